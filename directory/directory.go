// Package directory is the segment-file collaborator: creation of
// component files during writing and memory-mapped, read-only access to
// them afterward (spec.md §6's "{segment_id}.{component}" naming).
//
// Grounded on the teacher's segment.Data / countHashWriter file-handling
// split (github.com/blugelabs/ice/v2's segment.go, new.go) and on bluge's
// directory abstraction boundary, using github.com/blevesearch/mmap-go for
// the mapped read side rather than ice's os-specific Data wrapper.
package directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/mmap-go"
)

// Component names the files that make up one segment, per spec.md §6.
type Component string

const (
	ComponentTerms      Component = "term"
	ComponentPostings   Component = "idx"
	ComponentStore      Component = "store"
	ComponentFastFields Component = "fastfield"
	ComponentFieldNorms Component = "fieldnorm"
	ComponentInfo       Component = "info"
)

// Path returns the on-disk path for one segment component under dir,
// following the "{segment_id}.{component}" naming convention.
func Path(dir, segmentID string, c Component) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s", segmentID, c))
}

// Directory creates and serves component files for segments rooted at a
// single filesystem directory.
type Directory struct {
	root string
}

// Open returns a Directory rooted at root, creating it if it does not
// exist.
func Open(root string) (*Directory, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return &Directory{root: root}, nil
}

// WriteComponent writes data as the full contents of segmentID's c
// component file, creating or truncating it.
func (d *Directory) WriteComponent(segmentID string, c Component, data []byte) error {
	path := Path(d.root, segmentID, c)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("directory: writing %s: %w", path, err)
	}
	return nil
}

// MappedFile is an open, memory-mapped component file. Callers must call
// Close when done; the returned byte slice must not be used afterward.
type MappedFile struct {
	f  *os.File
	mm mmap.MMap
}

// Bytes returns the mapped file's contents.
func (m *MappedFile) Bytes() []byte { return []byte(m.mm) }

// Close unmaps and closes the underlying file.
func (m *MappedFile) Close() error {
	if m.mm != nil {
		if err := m.mm.Unmap(); err != nil {
			return fmt.Errorf("directory: unmap: %w", err)
		}
	}
	return m.f.Close()
}

// OpenComponent memory-maps segmentID's c component file for read-only
// access. An empty file is not mapped; its Bytes are empty.
func (d *Directory) OpenComponent(segmentID string, c Component) (*MappedFile, error) {
	path := Path(d.root, segmentID, c)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("directory: opening %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("directory: stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return &MappedFile{f: f}, nil
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("directory: mapping %s: %w", path, err)
	}
	return &MappedFile{f: f, mm: mm}, nil
}

// RemoveSegment deletes every known component file for segmentID, used to
// discard a segment whose finalize or serialize step failed partway
// through (spec.md §7's "partial files left by a failed close must be
// discarded by the caller").
func (d *Directory) RemoveSegment(segmentID string) error {
	components := []Component{
		ComponentTerms, ComponentPostings, ComponentStore,
		ComponentFastFields, ComponentFieldNorms, ComponentInfo,
	}
	for _, c := range components {
		path := Path(d.root, segmentID, c)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("directory: removing %s: %w", path, err)
		}
	}
	return nil
}
