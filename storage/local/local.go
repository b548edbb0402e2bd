package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderLocal, func(_ context.Context, cfg storage.Config, _ *logger.Logger) (storage.Prober, error) {
		return NewProber(cfg.BasePath)
	})
}

var errFound = errors.New("found")

// Prober implements storage.Prober on a directory tree: each bucket is a
// subdirectory of the base path and object keys are slash-separated paths.
type Prober struct {
	basePath string
}

// NewProber creates a prober rooted at basePath.
func NewProber(basePath string) (*Prober, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base path: %w", err)
	}
	return &Prober{basePath: abs}, nil
}

// HasObjects walks the bucket directory until it meets a file whose key has prefix.
func (p *Prober) HasObjects(ctx context.Context, bucket, prefix string) (bool, error) {
	root := filepath.Join(p.basePath, filepath.Clean("/"+bucket))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if d.IsDir() {
			if key != "." && !strings.HasPrefix(key+"/", prefix) && !strings.HasPrefix(prefix, key+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(key, prefix) {
			return errFound
		}
		return nil
	})
	switch {
	case errors.Is(err, errFound):
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: walk %s: %w", root, err)
	}
	return false, nil
}

// compile-time check
var _ storage.Prober = (*Prober)(nil)
