// Package anthology implements the anthology identifier convention used by
// the archive's metadata documents.
//
// An identifier such as "N13-1001" names a single paper: the collection code
// ("N13", a venue letter prefix plus a two-digit year) selects the metadata
// document, the volume code ("13") selects the volume node inside it, and the
// paper code ("1001") selects the paper node within the volume.
package anthology

import (
	"fmt"
	"regexp"
	"strings"
)

// idPattern captures the collection prefix (letters + digits) and the paper
// code of an identifier like "N13-1001" or "W13-2201".
var idPattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)-(\w+)$`)

// ID is a deconstructed anthology identifier.
type ID struct {
	Collection string
	Volume     string
	Paper      string
}

// String reassembles the identifier in its canonical "N13-1001" form.
func (id ID) String() string {
	return id.Collection + "-" + id.Paper
}

// Deconstruct splits an anthology identifier into its collection, volume, and
// paper codes. The volume code is the numeric portion of the collection
// prefix, so "N13-1001" yields {Collection: "N13", Volume: "13", Paper: "1001"}.
func Deconstruct(anthID string) (ID, error) {
	trimmed := strings.TrimSpace(anthID)
	m := idPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return ID{}, fmt.Errorf("malformed anthology identifier %q", anthID)
	}
	return ID{
		Collection: m[1] + m[2],
		Volume:     m[2],
		Paper:      m[3],
	}, nil
}

// CollectionOf returns just the collection code of an identifier, or an error
// when the identifier does not follow the convention.
func CollectionOf(anthID string) (string, error) {
	id, err := Deconstruct(anthID)
	if err != nil {
		return "", err
	}
	return id.Collection, nil
}
