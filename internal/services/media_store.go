package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var ErrMediaNotFound = errors.New("media not found")

// DiskMediaStore 读取 MEDIA_ROOT 下的文章图片
type DiskMediaStore struct {
	basepath string
}

func NewDiskMediaStore(basepath string) *DiskMediaStore {
	slog.Info("using disk media storage", "basepath", basepath)
	return &DiskMediaStore{basepath: basepath}
}

func (s *DiskMediaStore) fullpath(path string) string {
	return filepath.Join(s.basepath, filepath.Clean(string(filepath.Separator)+path))
}

func (s *DiskMediaStore) Read(path string) ([]byte, error) {
	fullpath := s.fullpath(path)
	data, err := os.ReadFile(fullpath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, path)
		}
		slog.Error("error reading media file", "path", fullpath, "error", err)
		return nil, fmt.Errorf("error reading media %v: %w", path, err)
	}
	return data, nil
}
