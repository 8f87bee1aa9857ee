package server

import (
	"bufio"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"teelog/internal/logdir"
	"teelog/internal/logging"
)

var (
	errBadName       = errors.New("not a log file name")
	errNotFound      = errors.New("log file not found")
	errNotStructured = errors.New("records are only available for structured logs")
)

func (s *Server) listHandler(c *gin.Context) {
	entries, err := logdir.Scan(s.Dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	if k := logdir.Kind(c.Query("kind")); k != "" {
		kept := entries[:0]
		for _, e := range entries {
			if e.Kind == k {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	entries = logdir.Filter(entries, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{"dir": s.Dir, "logs": entries})
}

// resolve maps a request name onto a log file inside Dir. Anything that is
// not a bare teelog file name is rejected, which keeps paths inside Dir.
func (s *Server) resolve(name string) (string, logdir.Entry, error) {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", logdir.Entry{}, errBadName
	}
	e, ok := logdir.Parse(name)
	if !ok {
		return "", logdir.Entry{}, errBadName
	}
	p := filepath.Join(s.Dir, name)
	if st, err := os.Stat(p); err != nil || st.IsDir() {
		return "", logdir.Entry{}, errNotFound
	}
	return p, e, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadName), errors.Is(err, errNotStructured):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) readHandler(c *gin.Context) {
	p, _, err := s.resolve(c.Param("name"))
	if err != nil {
		c.JSON(statusFor(err), errJSON(err))
		return
	}
	tail := 0
	if v := strings.TrimSpace(c.Query("tail")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errJSON(errors.New("tail must be a non-negative integer")))
			return
		}
		tail = n
	}
	b, err := os.ReadFile(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	if tail > 0 {
		b = []byte(lastLines(string(b), tail))
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", b)
}

// lastLines keeps the final n lines of s, including its trailing newline.
func lastLines(s string, n int) string {
	end := len(s)
	if strings.HasSuffix(s, "\n") {
		end--
	}
	idx := end
	for i := 0; i < n; i++ {
		idx = strings.LastIndexByte(s[:idx], '\n')
		if idx < 0 {
			return s
		}
	}
	return s[idx+1:]
}

func (s *Server) recordsHandler(c *gin.Context) {
	p, e, err := s.resolve(c.Param("name"))
	if err == nil && e.Kind != logdir.Structured {
		err = errNotStructured
	}
	if err != nil {
		c.JSON(statusFor(err), errJSON(err))
		return
	}
	floor := logging.DebugLevel
	if v := c.Query("level"); v != "" {
		lvl, err := logging.ParseLevel(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errJSON(err))
			return
		}
		floor = lvl
	}
	recs, err := readRecords(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	out := make([]logging.Record, 0, len(recs))
	for _, r := range recs {
		if r.Level >= floor {
			out = append(out, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"file": e.File, "name": e.Name, "records": out})
}

// readRecords parses a structured log. Lines that do not start a record
// (multi-line messages) are folded into the previous record.
func readRecords(path string) ([]logging.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var recs []logging.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		r, err := logging.ParseLine(line)
		if err != nil {
			if len(recs) > 0 {
				recs[len(recs)-1].Message += "\n" + line
			}
			continue
		}
		recs = append(recs, r)
	}
	return recs, sc.Err()
}
