package main

import "teelog/internal/cli"

func main() {
	cli.Execute()
}
