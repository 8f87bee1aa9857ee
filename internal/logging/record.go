package logging

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// TimeLayout renders record timestamps as "2006-01-02 15:04:05,000".
const TimeLayout = "2006-01-02 15:04:05,000"

const sep = " - "

// Record is a single emitted log message.
type Record struct {
	Time    time.Time `json:"time"`
	Name    string    `json:"name"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
}

// Formatter turns a record into the bytes written to one destination.
type Formatter interface {
	Format(r *Record) []byte
}

// TextFormatter writes "<time> - [<name> - ]<LEVEL> - <message>\n".
type TextFormatter struct {
	// WithName includes the logger name (file destination).
	WithName bool
	// LevelStyle decorates the level token, e.g. with colour. Nil leaves it plain.
	LevelStyle func(Level) string
}

func (f *TextFormatter) Format(r *Record) []byte {
	var b bytes.Buffer
	b.WriteString(r.Time.Format(TimeLayout))
	b.WriteString(sep)
	if f.WithName {
		b.WriteString(r.Name)
		b.WriteString(sep)
	}
	if f.LevelStyle != nil {
		b.WriteString(f.LevelStyle(r.Level))
	} else {
		b.WriteString(r.Level.String())
	}
	b.WriteString(sep)
	b.WriteString(r.Message)
	b.WriteByte('\n')
	return b.Bytes()
}

// ParseLine reads back one line of a structured log file.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < len(TimeLayout)+len(sep) || line[len(TimeLayout):len(TimeLayout)+len(sep)] != sep {
		return Record{}, fmt.Errorf("malformed log line: %q", line)
	}
	ts, err := time.ParseInLocation(TimeLayout, line[:len(TimeLayout)], time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("malformed timestamp: %w", err)
	}
	parts := strings.SplitN(line[len(TimeLayout)+len(sep):], sep, 3)
	if len(parts) != 3 {
		return Record{}, fmt.Errorf("malformed log line: %q", line)
	}
	lvl, err := ParseLevel(parts[1])
	if err != nil || parts[1] == "" {
		return Record{}, fmt.Errorf("malformed level in %q", line)
	}
	return Record{Time: ts, Name: parts[0], Level: lvl, Message: parts[2]}, nil
}
