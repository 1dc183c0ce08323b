// Package scanner enumerates video files in a source directory and derives
// anthology identifiers from their names.
//
// A file named "N13-1001.mp4" carries a bare identifier and denotes the only
// video for that paper. A file named "N13-4001.2.mp4" carries a sequence
// number between the identifier and the extension and denotes one of several
// videos for the same paper. Names that fit neither shape are skipped.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"anthingest/internal/anthology"
)

// Single is a video file that is the only one for its paper.
type Single struct {
	ID  string
	Ext string
}

// Multi is one of several numbered video files for the same paper.
type Multi struct {
	ID       string
	Sequence string
	Ext      string
}

// Reference returns the media reference recorded in the metadata document.
func (s Single) Reference() string {
	return s.ID + s.Ext
}

// Reference returns the media reference recorded in the metadata document.
func (m Multi) Reference() string {
	return m.ID + "." + m.Sequence + m.Ext
}

// Inventory is the result of scanning a video directory.
type Inventory struct {
	// Collections holds the distinct collection codes observed, sorted.
	Collections []string
	// Singles holds single-video identifiers in directory order.
	Singles []Single
	// Multis holds multi-video entries sorted lexicographically by
	// (identifier, sequence).
	Multis []Multi
	// Skipped holds file names that did not match the identifier convention.
	Skipped []string
}

// Empty reports whether the scan found no usable video files.
func (inv Inventory) Empty() bool {
	return len(inv.Singles) == 0 && len(inv.Multis) == 0
}

// Scan enumerates video files directly under videoDir and classifies each by
// its filename shape. Extensions are matched case-insensitively; when the
// list is empty only ".mp4" is considered.
func Scan(videoDir string, extensions []string) (Inventory, error) {
	if len(extensions) == 0 {
		extensions = []string{".mp4"}
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}

	entries, err := os.ReadDir(videoDir)
	if err != nil {
		return Inventory{}, fmt.Errorf("read video directory: %w", err)
	}

	var inv Inventory
	collections := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Membership is case-insensitive but the stored extension keeps the
		// filename's casing so references name the file on disk.
		ext := filepath.Ext(name)
		if _, ok := allowed[strings.ToLower(ext)]; !ok {
			continue
		}

		segments := strings.Split(name, ".")
		switch {
		case len(segments) == 2:
			id, err := anthology.Deconstruct(segments[0])
			if err != nil {
				inv.Skipped = append(inv.Skipped, name)
				continue
			}
			collections[id.Collection] = struct{}{}
			inv.Singles = append(inv.Singles, Single{ID: segments[0], Ext: ext})
		case len(segments) > 2:
			id, err := anthology.Deconstruct(segments[0])
			if err != nil {
				inv.Skipped = append(inv.Skipped, name)
				continue
			}
			collections[id.Collection] = struct{}{}
			inv.Multis = append(inv.Multis, Multi{
				ID:       segments[0],
				Sequence: strings.Join(segments[1:len(segments)-1], "."),
				Ext:      ext,
			})
		default:
			inv.Skipped = append(inv.Skipped, name)
		}
	}

	for collection := range collections {
		inv.Collections = append(inv.Collections, collection)
	}
	sort.Strings(inv.Collections)
	sort.Slice(inv.Multis, func(i, j int) bool {
		if inv.Multis[i].ID != inv.Multis[j].ID {
			return inv.Multis[i].ID < inv.Multis[j].ID
		}
		return inv.Multis[i].Sequence < inv.Multis[j].Sequence
	})
	return inv, nil
}
