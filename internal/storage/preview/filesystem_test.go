package preview

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"battle-arena/internal/models"
)

func newTestStorage(t *testing.T) *FileSystemStorage {
	t.Helper()
	fs, err := NewFileSystemStorage(filepath.Join(t.TempDir(), "previews"))
	if err != nil {
		t.Fatalf("NewFileSystemStorage failed: %v", err)
	}
	return fs
}

func TestNewFileSystemStorage_EmptyDir(t *testing.T) {
	if _, err := NewFileSystemStorage(""); err == nil {
		t.Fatal("Expected error for empty dir")
	}
}

func TestSavePathRelease(t *testing.T) {
	fs := newTestStorage(t)
	id := uuid.NewString()
	png := models.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	jpg := models.Image{MIMEType: "image/jpeg", Data: []byte{0xFF, 0xD8}}

	if err := fs.Save(id, 1, png); err != nil {
		t.Fatalf("Save slot 1 failed: %v", err)
	}
	if err := fs.Save(id, 2, jpg); err != nil {
		t.Fatalf("Save slot 2 failed: %v", err)
	}

	p1, err := fs.Path(id, 1)
	if err != nil {
		t.Fatalf("Path slot 1 failed: %v", err)
	}
	if filepath.Ext(p1) != ".png" {
		t.Errorf("Expected .png extension, got %s", p1)
	}
	data, err := os.ReadFile(p1)
	if err != nil || !bytes.Equal(data, png.Data) {
		t.Errorf("Unexpected preview content %v (%v)", data, err)
	}
	p2, err := fs.Path(id, 2)
	if err != nil || filepath.Ext(p2) != ".jpg" {
		t.Errorf("Expected .jpg preview for slot 2, got %q (%v)", p2, err)
	}

	if err := fs.Release(id); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := fs.Path(id, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after release, got %v", err)
	}
	if err := fs.Release(id); err != nil {
		t.Errorf("Expected second release to succeed, got %v", err)
	}
}

func TestSave_ReplacesSlot(t *testing.T) {
	fs := newTestStorage(t)
	id := uuid.NewString()

	if err := fs.Save(id, 1, models.Image{MIMEType: "image/png", Data: []byte("old")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := fs.Save(id, 1, models.Image{MIMEType: "image/jpeg", Data: []byte("new")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	matches, _ := filepath.Glob(filepath.Join(fs.basePath, id, "1.*"))
	if len(matches) != 1 || filepath.Ext(matches[0]) != ".jpg" {
		t.Errorf("Expected exactly the new preview, got %v", matches)
	}
}

func TestRejectsBadInput(t *testing.T) {
	fs := newTestStorage(t)
	img := models.Image{MIMEType: "image/png", Data: []byte{1}}

	if err := fs.Save("../../etc", 1, img); err == nil {
		t.Error("Expected error for non-uuid session id")
	}
	if err := fs.Save(uuid.NewString(), 3, img); err == nil {
		t.Error("Expected error for slot 3")
	}
	if err := fs.Save(uuid.NewString(), 1, models.Image{MIMEType: "image/png"}); err == nil {
		t.Error("Expected error for empty image")
	}
	if _, err := fs.Path("not-a-uuid", 1); err == nil {
		t.Error("Expected error for invalid session id on Path")
	}
	if err := fs.Release("../.."); err == nil {
		t.Error("Expected error for invalid session id on Release")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":  ".jpg",
		"image/png":   ".png",
		"image/webp":  ".webp",
		"":            ".bin",
		"x-nonsense/": ".bin",
	}
	for in, want := range tests {
		if got := extensionFor(in); got != want {
			t.Errorf("extensionFor(%q) = %q, want %q", in, got, want)
		}
	}
}
