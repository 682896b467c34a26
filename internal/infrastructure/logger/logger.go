package logger

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RunLogFile returns log/<timestamp>_<name>.log under dir, one file per run.
func RunLogFile(dir, name string, now time.Time) string {
	filename := fmt.Sprintf("%s_%s.log", now.Format("2006-01-02_15-04-05"), sanitize(name))
	return filepath.Join(dir, filename)
}

// sanitize makes a run name safe for the file system.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "run"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
