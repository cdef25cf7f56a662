// Package intake validates and holds the video selected for submission.
//
// Both the drag-and-drop style path argument and the interactive picker funnel
// through Select, which accepts only candidates tagged with a video/* type.
// Candidates without a declared type are sniffed with mimetype before the
// check runs.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"sidelines/internal/services"
)

// Opener returns a fresh reader over the candidate's bytes.
type Opener func() (io.ReadCloser, error)

// Candidate is a file offered for selection.
type Candidate struct {
	Name string
	Type string
	Size int64
	Open Opener
}

// File is the accepted selection. The submission client borrows it read-only
// for one request.
type File struct {
	Name string
	Type string
	Size int64
	open Opener
}

// Open returns a reader over the file contents.
func (f *File) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, services.Wrap(services.ErrValidation, "intake", "open", "no file selected", nil)
	}
	return f.open()
}

// FromPath builds a candidate backed by a file on disk. The type is sniffed
// from the content, falling back to the extension when sniffing is
// inconclusive.
func FromPath(path string) (Candidate, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Candidate{}, services.Wrap(services.ErrValidation, "intake", "stat", "path is empty", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, services.Wrap(services.ErrValidation, "intake", "stat", path, err)
	}
	if info.IsDir() {
		return Candidate{}, services.Wrap(services.ErrValidation, "intake", "stat", fmt.Sprintf("%s is a directory", path), nil)
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return Candidate{}, services.Wrap(services.ErrValidation, "intake", "detect type", path, err)
	}
	typ := baseType(detected.String())
	if typ == "application/octet-stream" {
		if byExt := baseType(mime.TypeByExtension(filepath.Ext(path))); byExt != "" {
			typ = byExt
		}
	}
	return Candidate{
		Name: filepath.Base(path),
		Type: typ,
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes builds an in-memory candidate. An empty typ is sniffed.
func FromBytes(name, typ string, data []byte) Candidate {
	if strings.TrimSpace(typ) == "" {
		typ = mimetype.Detect(data).String()
	}
	return Candidate{
		Name: name,
		Type: typ,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// IsVideo reports whether the type tag belongs to the video/* category.
func IsVideo(typ string) bool {
	return strings.HasPrefix(baseType(typ), "video/")
}

// Option configures an Intake.
type Option func(*Intake)

// WithMaxBytes rejects candidates larger than limit. Zero disables the check.
func WithMaxBytes(limit int64) Option {
	return func(i *Intake) {
		if limit > 0 {
			i.maxBytes = limit
		}
	}
}

// Intake holds at most one selected file.
type Intake struct {
	mu       sync.Mutex
	selected *File
	maxBytes int64
}

// New constructs an empty intake.
func New(opts ...Option) *Intake {
	i := &Intake{}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Select replaces the current selection when the candidate is a video.
// On failure the previous selection is left unchanged.
func (i *Intake) Select(c Candidate) (*File, error) {
	typ := baseType(c.Type)
	if typ == "" {
		return nil, services.Wrap(services.ErrValidation, "intake", "select", fmt.Sprintf("%s: unknown file type", displayName(c.Name)), nil)
	}
	if !IsVideo(typ) {
		return nil, services.Wrap(services.ErrValidation, "intake", "select", fmt.Sprintf("%s: %s is not a video", displayName(c.Name), typ), nil)
	}
	if c.Open == nil {
		return nil, services.Wrap(services.ErrValidation, "intake", "select", fmt.Sprintf("%s: no content", displayName(c.Name)), nil)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.maxBytes > 0 && c.Size > i.maxBytes {
		return nil, services.Wrap(services.ErrValidation, "intake", "select",
			fmt.Sprintf("%s: %d bytes exceeds limit of %d", displayName(c.Name), c.Size, i.maxBytes), nil)
	}
	file := &File{
		Name: displayName(c.Name),
		Type: typ,
		Size: c.Size,
		open: c.Open,
	}
	i.selected = file
	return file, nil
}

// Clear drops the selection.
func (i *Intake) Clear() {
	i.mu.Lock()
	i.selected = nil
	i.mu.Unlock()
}

// Selected returns the current selection, or nil.
func (i *Intake) Selected() *File {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.selected
}

func baseType(typ string) string {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(typ); err == nil {
		return strings.ToLower(parsed)
	}
	if idx := strings.Index(typ, ";"); idx >= 0 {
		typ = typ[:idx]
	}
	return strings.ToLower(strings.TrimSpace(typ))
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return filepath.Base(name)
}
