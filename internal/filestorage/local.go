package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"library-hub/internal/logger"

	"github.com/google/uuid"
)

// ErrUnsupportedType 副檔名不在允許清單內
var ErrUnsupportedType = errors.New("unsupported file type")

// ProfilePhotoDir MEDIA_ROOT 底下存放大頭照的子目錄
const ProfilePhotoDir = "profile_photos"

var imageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// Storage 儲存上傳檔案，回傳相對於根目錄的路徑
type Storage interface {
	Save(fh *multipart.FileHeader, subDir string) (string, error)
	Delete(relPath string) error
}

var newFileName = func(ext string) string { return uuid.NewString() + ext }

// LocalStorage 將檔案寫入本機目錄
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("NewLocalStorage: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (ls *LocalStorage) Root() string { return ls.root }

// Save 僅接受圖片，以 uuid 重新命名避免衝突
func (ls *LocalStorage) Save(fh *multipart.FileHeader, subDir string) (string, error) {
	if fh == nil {
		return "", errors.New("Save: no file")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExt[ext] {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("Save: open: %w", err)
	}
	defer src.Close()

	dir := filepath.Join(ls.root, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("Save: mkdir: %w", err)
	}
	name := newFileName(ext)
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("Save: create: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("Save: copy: %w", err)
	}

	rel := filepath.ToSlash(filepath.Join(subDir, name))
	logger.Info().Str("filename", fh.Filename).Str("saved_as", rel).Msg("file saved")
	return rel, nil
}

// Delete 不存在的檔案視為成功；禁止跳出根目錄
func (ls *LocalStorage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("Delete: invalid path %q", relPath)
	}
	full := filepath.Join(ls.root, clean)
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", full).Msg("file to delete does not exist")
			return nil
		}
		return fmt.Errorf("Delete: %w", err)
	}
	logger.Info().Str("path", full).Msg("file deleted")
	return nil
}
