package preview

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"battle-arena/internal/models"
)

var ErrNotFound = errors.New("preview not found")

// FileSystemStorage keeps preview copies of uploaded images under
// basePath/<session>/<slot><ext>. Nothing here outlives the session.
type FileSystemStorage struct {
	basePath string
}

// NewFileSystemStorage creates basePath if needed.
func NewFileSystemStorage(basePath string) (*FileSystemStorage, error) {
	if basePath == "" {
		return nil, errors.New("preview dir must not be empty")
	}
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve preview dir %q: %w", basePath, err)
	}
	if err := os.MkdirAll(absBasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create preview dir %q: %w", absBasePath, err)
	}
	log.Info().Str("dir", absBasePath).Msg("[Preview Storage] initialized")
	return &FileSystemStorage{basePath: absBasePath}, nil
}

// sessionDir rejects anything that is not a uuid so request input can never
// escape basePath.
func (fs *FileSystemStorage) sessionDir(sessionID string) (string, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	return filepath.Join(fs.basePath, id.String()), nil
}

func validSlot(slot int) error {
	if slot != 1 && slot != 2 {
		return fmt.Errorf("invalid preview slot %d", slot)
	}
	return nil
}

// Save writes img as the preview for slot, replacing an earlier one.
func (fs *FileSystemStorage) Save(sessionID string, slot int, img models.Image) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	if img.Empty() {
		return errors.New("preview image must not be empty")
	}
	dir, err := fs.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session preview dir: %w", err)
	}
	if err := fs.removeSlot(dir, slot); err != nil {
		return err
	}

	target := filepath.Join(dir, strconv.Itoa(slot)+extensionFor(img.MIMEType))
	if err := os.WriteFile(target, img.Data, 0o644); err != nil {
		return fmt.Errorf("write preview %q: %w", target, err)
	}
	log.Debug().Str("session", sessionID).Int("slot", slot).Int("bytes", len(img.Data)).Msg("[Preview Storage] preview saved")
	return nil
}

// Path returns the file holding the preview for slot.
func (fs *FileSystemStorage) Path(sessionID string, slot int) (string, error) {
	if err := validSlot(slot); err != nil {
		return "", err
	}
	dir, err := fs.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(slot)+".*"))
	if err != nil {
		return "", fmt.Errorf("look up preview: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	return matches[0], nil
}

// Release deletes every preview of the session. Releasing twice is fine.
func (fs *FileSystemStorage) Release(sessionID string) error {
	dir, err := fs.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("release previews of %s: %w", sessionID, err)
	}
	log.Debug().Str("session", sessionID).Msg("[Preview Storage] previews released")
	return nil
}

func (fs *FileSystemStorage) removeSlot(dir string, slot int) error {
	matches, err := filepath.Glob(filepath.Join(dir, strconv.Itoa(slot)+".*"))
	if err != nil {
		return fmt.Errorf("look up old preview: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove old preview %q: %w", m, err)
		}
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
