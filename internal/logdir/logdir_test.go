package logdir

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNames(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	if got := StructuredName("MART", ts); got != "MART_20240309_140507.log" {
		t.Fatalf("structured name: %s", got)
	}
	if got := ConsoleName("MART", ts); got != "MART_console_20240309_140507.log" {
		t.Fatalf("console name: %s", got)
	}
	if got := StructuredPath("/tmp/logs", "MART", ts); got != filepath.Join("/tmp/logs", "MART_20240309_140507.log") {
		t.Fatalf("structured path: %s", got)
	}
}

func TestParse(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	cases := []struct {
		file string
		ok   bool
		kind Kind
		name string
	}{
		{"MART_20240309_140507.log", true, Structured, "MART"},
		{"MART_console_20240309_140507.log", true, Console, "MART"},
		{"my_run_20240309_140507.log", true, Structured, "my_run"},
		{"my_run_console_20240309_140507.log", true, Console, "my_run"},
		{"_20240309_140507.log", false, "", ""},
		{"MART_20240309.log", false, "", ""},
		{"MART_20240309_140507.txt", false, "", ""},
		{"notes.log", false, "", ""},
	}
	for _, c := range cases {
		e, ok := Parse(c.file)
		if ok != c.ok {
			t.Fatalf("%s: ok=%v want %v", c.file, ok, c.ok)
		}
		if !ok {
			continue
		}
		if e.Kind != c.kind || e.Name != c.name {
			t.Fatalf("%s: got kind=%s name=%s", c.file, e.Kind, e.Name)
		}
		if !e.Stamp.Equal(ts) {
			t.Fatalf("%s: stamp %v", c.file, e.Stamp)
		}
	}
}

func TestScan_SortsNewestFirstAndSkipsStrangers(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"A_20240101_000000.log",
		"A_console_20240101_000000.log",
		"B_20240301_120000.log",
		"readme.txt",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "C_20240401_000000.log"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %+v", got)
	}
	if got[0].File != "B_20240301_120000.log" {
		t.Fatalf("expected newest first, got %s", got[0].File)
	}
	if got[1].File != "A_20240101_000000.log" || got[2].Kind != Console {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Size != 2 {
		t.Fatalf("expected size 2, got %d", got[0].Size)
	}
}

func TestScan_MissingDir(t *testing.T) {
	got, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestFilter(t *testing.T) {
	entries := []Entry{
		{File: "MART_20240101_000000.log"},
		{File: "MART_console_20240101_000000.log"},
		{File: "train_20240101_000000.log"},
	}
	if got := Filter(entries, ""); len(got) != 3 {
		t.Fatalf("empty query should keep all, got %d", len(got))
	}
	got := Filter(entries, "cons")
	if len(got) != 1 || got[0].File != "MART_console_20240101_000000.log" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if got := Filter(entries, "zzz"); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestMatch(t *testing.T) {
	if !Match("MART_console_20240101_000000.log", Console) {
		t.Fatalf("console file should match Console")
	}
	if Match("MART_console_20240101_000000.log", Structured) {
		t.Fatalf("console file should not match Structured")
	}
	if !Match("MART_20240101_000000.log", "") {
		t.Fatalf("empty kind matches all")
	}
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"MART", "my_run", "console", "console_job"} {
		if err := ValidName(name); err != nil {
			t.Fatalf("ValidName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "a/b", `a\b`, "foo_console"} {
		if err := ValidName(name); err == nil {
			t.Fatalf("ValidName(%q) accepted", name)
		}
	}
	// every accepted name round-trips through Parse as the kind it was written as
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	for _, name := range []string{"MART", "my_run", "console_job"} {
		if e, ok := Parse(StructuredName(name, ts)); !ok || e.Kind != Structured || e.Name != name {
			t.Fatalf("structured %q parsed as %+v", name, e)
		}
		if e, ok := Parse(ConsoleName(name, ts)); !ok || e.Kind != Console || e.Name != name {
			t.Fatalf("console %q parsed as %+v", name, e)
		}
	}
}
