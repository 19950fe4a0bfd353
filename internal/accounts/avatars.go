package accounts

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AvatarStore writes uploaded avatars to local disk under Dir/avatars and
// returns the public path they are served from.
type AvatarStore struct {
	Dir string
}

var allowedAvatarExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

func ValidAvatarExt(filename string) bool {
	return allowedAvatarExts[strings.ToLower(filepath.Ext(filename))]
}

func (s AvatarStore) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.New().String() + ext

	dir := filepath.Join(s.Dir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return path.Join("/uploads/avatars", name), nil
}
