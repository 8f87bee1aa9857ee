package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"teelog/internal/logdir"
)

var lsJSON bool

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "print entries as JSON")
}

var lsCmd = &cobra.Command{
	Use:   "ls [dir] [query]",
	Short: "List log files in a directory, newest first",
	Long:  "Lists structured and console logs with their logger name, start time and size. An optional query fuzzy-filters file names.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := settings.LogDir
		query := ""
		if len(args) > 0 {
			dir = args[0]
		}
		if len(args) > 1 {
			query = args[1]
		}
		entries, err := logdir.Scan(dir)
		if err != nil {
			return err
		}
		entries = logdir.Filter(entries, query)
		out := cmd.OutOrStdout()
		if lsJSON {
			fmt.Fprintln(out, toJSONString(entries))
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "no logs in %s\n", dir)
			return nil
		}
		writeTable(out, entries)
		return nil
	},
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// writeTable prints entries in aligned columns. Widths are measured in
// terminal cells so wide logger names line up.
func writeTable(w io.Writer, entries []logdir.Entry) {
	head := []string{"KIND", "NAME", "STARTED", "SIZE", "FILE"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			string(e.Kind),
			e.Name,
			humanize.Time(e.Stamp),
			humanize.Bytes(uint64(e.Size)),
			e.File,
		})
	}
	widths := make([]int, len(head))
	for i, h := range head {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	line := func(cells []string) string {
		var b strings.Builder
		for i, c := range cells {
			if i == len(cells)-1 {
				b.WriteString(c)
				break
			}
			b.WriteString(runewidth.FillRight(c, widths[i]))
			b.WriteString("  ")
		}
		return b.String()
	}
	fmt.Fprintln(w, headerStyle.Render(line(head)))
	for _, r := range rows {
		fmt.Fprintln(w, line(r))
	}
}
