// Package catalog reads and updates the per-collection XML metadata
// documents that describe the archive's volumes and papers.
//
// Each collection code maps to one document, "<data_dir>/<collection>.xml",
// rooted at a collection node containing volume nodes containing paper nodes,
// all keyed by id attributes. The only mutation this package performs is
// appending video reference tags to paper nodes.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"anthingest/internal/anthology"
	"anthingest/internal/xmltree"
)

const (
	volumeTag = "volume"
	paperTag  = "paper"
	videoTag  = "video"
	idAttr    = "id"
	hrefAttr  = "href"
)

// ErrPaperNotFound reports a structural path query that matched no volume or
// paper node.
var ErrPaperNotFound = errors.New("paper not found")

// Store locates metadata documents under a single directory.
type Store struct {
	Dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) Store {
	return Store{Dir: dir}
}

// Path returns the document path for a collection code.
func (s Store) Path(collection string) string {
	return filepath.Join(s.Dir, collection+".xml")
}

// Select returns the collection codes from the observed set that have a
// document in the store, in directory order. Codes without a document are
// silently dropped.
func (s Store) Select(collections []string) ([]string, error) {
	observed := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		observed[c] = struct{}{}
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read metadata directory: %w", err)
	}

	var selected []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".xml") {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if _, ok := observed[base]; ok {
			selected = append(selected, base)
		}
	}
	return selected, nil
}

// Load parses the document for a collection code into memory.
func (s Store) Load(collection string) (*Document, error) {
	path := s.Path(collection)
	root, err := xmltree.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Document{Collection: collection, Path: path, Root: root}, nil
}

// Document is one collection's metadata tree, loaded for editing.
type Document struct {
	Collection string
	Path       string
	Root       *xmltree.Element
}

// Matches reports whether an anthology identifier belongs to this document.
// The test is textual containment of the document's base code, matching the
// selection rule used when scanning.
func (d *Document) Matches(anthID string) bool {
	return strings.Contains(anthID, d.Collection)
}

// LocatePaper finds the paper node for a deconstructed identifier: the volume
// node whose id attribute equals the volume code, then the paper node within
// it whose id attribute equals the paper code.
func (d *Document) LocatePaper(id anthology.ID) (*xmltree.Element, error) {
	volume := d.Root.FindChild(volumeTag, idAttr, id.Volume)
	if volume == nil {
		return nil, fmt.Errorf("%w: %s has no volume %q", ErrPaperNotFound, d.Path, id.Volume)
	}
	paper := volume.FindChild(paperTag, idAttr, id.Paper)
	if paper == nil {
		return nil, fmt.Errorf("%w: %s volume %q has no paper %q", ErrPaperNotFound, d.Path, id.Volume, id.Paper)
	}
	return paper, nil
}

// InsertVideoTag appends a video reference tag to the paper node for id.
// Insertion is additive: without skipExisting a rerun appends a duplicate
// tag. With skipExisting an identical existing reference is left alone and
// false is returned.
func (d *Document) InsertVideoTag(id anthology.ID, reference string, skipExisting bool) (bool, error) {
	paper, err := d.LocatePaper(id)
	if err != nil {
		return false, err
	}
	if skipExisting {
		for _, video := range paper.ChildElements() {
			if video.Tag == videoTag && video.Attr(hrefAttr) == reference {
				return false, nil
			}
		}
	}
	paper.Append(xmltree.NewElement(videoTag, xmltree.Attr{Key: hrefAttr, Value: reference}))
	return true, nil
}

// Save re-indents the tree and rewrites the document in full.
func (d *Document) Save() error {
	xmltree.Indent(d.Root, "  ")
	return xmltree.WriteFile(d.Root, d.Path)
}
