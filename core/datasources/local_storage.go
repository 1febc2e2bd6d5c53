package datasources

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
)

const blockFileExt = ".json"

var _ BlockStorage = (*LocalStorage)(nil)

// LocalStorage reads "<height>.json" block files from a directory.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Name() string {
	return "local"
}

func (s *LocalStorage) Read(_ context.Context, height int64) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, blockFileName(height)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(errs.NotFound, "block file for height %d", height)
		}
		return nil, errors.Wrapf(err, "can't read block file for height %d", height)
	}
	return data, nil
}

func (s *LocalStorage) LatestHeight(_ context.Context) (int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Wrapf(err, "can't list block directory %q", s.dir)
	}
	latest := int64(-1)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if height, ok := parseBlockFileName(entry.Name()); ok && height > latest {
			latest = height
		}
	}
	if latest < 0 {
		return 0, errors.Wrapf(errs.NotFound, "no block files in %q", s.dir)
	}
	return latest, nil
}

func blockFileName(height int64) string {
	return strconv.FormatInt(height, 10) + blockFileExt
}

func parseBlockFileName(name string) (int64, bool) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, blockFileExt) {
		return 0, false
	}
	height, err := strconv.ParseInt(strings.TrimSuffix(base, blockFileExt), 10, 64)
	if err != nil || height < 0 {
		return 0, false
	}
	return height, true
}
