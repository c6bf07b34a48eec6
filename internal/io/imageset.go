// Directory-backed list of images awaiting annotation
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNoImages is returned when a scan finds no file with the wanted extension.
var ErrNoImages = errors.New("no images found")

// ImageSet tracks the annotateable files of one directory and the current position.
// File names are kept sorted so the annotation order is stable between runs.
type ImageSet struct {
	mu        sync.RWMutex
	dir       string
	extension string
	files     []string
	index     int
}

// ScanImageSet lists the regular files in dir whose extension matches ext.
// The match is case-insensitive and does not descend into subdirectories.
func ScanImageSet(dir, ext string) (*ImageSet, error) {
	files, err := listImages(dir, ext)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s/*%s", ErrNoImages, dir, ext)
	}

	return &ImageSet{
		dir:       dir,
		extension: ext,
		files:     files,
	}, nil
}

func listImages(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if hasExtension(entry.Name(), ext) {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func hasExtension(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// Dir returns the scanned directory
func (s *ImageSet) Dir() string {
	return s.dir
}

// Len returns the number of files in the set
func (s *ImageSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Index returns the current position
func (s *ImageSet) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Files returns a copy of the file names
func (s *ImageSet) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Current returns the current file name
func (s *ImageSet) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index < 0 || s.index >= len(s.files) {
		return "", false
	}
	return s.files[s.index], true
}

// Path joins the set directory with name
func (s *ImageSet) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Next advances to the following file. On the last file it returns false
// and the position is left untouched.
func (s *ImageSet) Next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index+1 >= len(s.files) {
		return "", false
	}
	s.index++
	return s.files[s.index], true
}

// SeekName moves to name. It returns false if name is not listed.
func (s *ImageSet) SeekName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := sort.SearchStrings(s.files, name)
	if pos >= len(s.files) || s.files[pos] != name {
		return false
	}
	s.index = pos
	return true
}

// Add inserts name if it matches the extension and is not yet listed.
// The current file stays current even when the insertion shifts its index.
func (s *ImageSet) Add(name string) bool {
	if !hasExtension(name, s.extension) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos := sort.SearchStrings(s.files, name)
	if pos < len(s.files) && s.files[pos] == name {
		return false
	}

	s.files = append(s.files, "")
	copy(s.files[pos+1:], s.files[pos:])
	s.files[pos] = name
	if pos <= s.index {
		s.index++
	}
	return true
}

// Remove drops name from the set. The current file can't be removed; it
// stays listed until the operator moves past it.
func (s *ImageSet) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := sort.SearchStrings(s.files, name)
	if pos >= len(s.files) || s.files[pos] != name || pos == s.index {
		return false
	}

	s.files = append(s.files[:pos], s.files[pos+1:]...)
	if pos < s.index {
		s.index--
	}
	return true
}
