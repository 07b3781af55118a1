package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes uploaded objects to the local filesystem and returns a
// URL path under which the router serves them. It satisfies the object
// storage interface the catalog uses, so a bucket-backed client can replace
// it without touching the product code.
type Store struct {
	dir       string
	urlPrefix string
}

// New creates the backing directory if needed.
func New(dir, urlPrefix string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &Store{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Save streams the object to disk under a collision-free name and returns
// the servable URL path.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write object: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Dir returns the backing directory, for wiring the static file route.
func (s *Store) Dir() string {
	return s.dir
}
