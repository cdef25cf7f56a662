package intake

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"sidelines/internal/services"
)

// Minimal ISO BMFF header; mimetype reports video/mp4 for it.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
	'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
	'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

func TestSelectAcceptsVideo(t *testing.T) {
	in := New()
	file, err := in.Select(FromBytes("shot.mp4", "video/mp4", []byte("data")))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if file.Name != "shot.mp4" || file.Type != "video/mp4" || file.Size != 4 {
		t.Fatalf("unexpected file: %+v", file)
	}
	if in.Selected() != file {
		t.Fatal("expected selection to be held")
	}
	rc, err := file.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "data" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSelectRejectsNonVideoAndKeepsPriorSelection(t *testing.T) {
	in := New()
	prior, err := in.Select(FromBytes("a.webm", "video/webm", []byte("x")))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	cases := []Candidate{
		FromBytes("notes.txt", "text/plain", []byte("hello")),
		FromBytes("pic.png", "image/png", []byte("png")),
		{Name: "blank", Type: "", Open: prior.open},
		{Name: "nocontent.mp4", Type: "video/mp4"},
	}
	for _, c := range cases {
		if _, err := in.Select(c); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", c.Name, err)
		}
		if in.Selected() != prior {
			t.Fatalf("%s: prior selection was replaced", c.Name)
		}
	}
}

func TestSelectNormalizesTypeParameters(t *testing.T) {
	in := New()
	file, err := in.Select(FromBytes("clip.mov", "Video/QuickTime; codecs=avc1", []byte("x")))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if file.Type != "video/quicktime" {
		t.Fatalf("expected normalized type, got %q", file.Type)
	}
}

func TestSelectEnforcesMaxBytes(t *testing.T) {
	in := New(WithMaxBytes(3))
	if _, err := in.Select(FromBytes("big.mp4", "video/mp4", []byte("1234"))); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if in.Selected() != nil {
		t.Fatal("expected no selection")
	}
	if _, err := in.Select(FromBytes("ok.mp4", "video/mp4", []byte("123"))); err != nil {
		t.Fatalf("expected file at the limit to pass: %v", err)
	}
}

func TestClearDropsSelection(t *testing.T) {
	in := New()
	if _, err := in.Select(FromBytes("a.mp4", "video/mp4", []byte("x"))); err != nil {
		t.Fatalf("Select: %v", err)
	}
	in.Clear()
	if in.Selected() != nil {
		t.Fatal("expected selection cleared")
	}
	var empty *File
	if _, err := empty.Open(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error from nil file, got %v", err)
	}
}

func TestFromPathSniffsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trick")
	if err := os.WriteFile(path, mp4Header, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := FromPath(path)
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if !IsVideo(c.Type) {
		t.Fatalf("expected sniffed video type, got %q", c.Type)
	}
	if c.Name != "trick" || c.Size != int64(len(mp4Header)) {
		t.Fatalf("unexpected candidate: %+v", c)
	}

	textPath := filepath.Join(dir, "readme.txt")
	if err := os.WriteFile(textPath, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err = FromPath(textPath)
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if _, err := New().Select(c); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected text file rejection, got %v", err)
	}
}

func TestFromPathErrors(t *testing.T) {
	if _, err := FromPath(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
	if _, err := FromPath(filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing path, got %v", err)
	}
	if _, err := FromPath(t.TempDir()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for directory, got %v", err)
	}
}
