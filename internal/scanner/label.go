package scanner

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle derives a human-readable run label from the video directory
// name, e.g. "/data/naacl-2013" becomes "Naacl 2013". Used for log lines and
// the ingest ledger.
func DisplayTitle(videoDir string) string {
	base := filepath.Base(filepath.Clean(videoDir))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "Video Ingest"
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Video Ingest"
	}
	return cases.Title(language.Und).String(title)
}
