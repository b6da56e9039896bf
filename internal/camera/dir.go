package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
)

// DirSource reads frames from a directory of image files in lexical order.
// Useful for testing and for cameras that dump stills to disk.
type DirSource struct {
	paths []string
	pos   int
}

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// NewDirSource opens a directory of frames. A missing or unreadable
// directory is ErrUnavailable; an empty directory is not — exhaustion is
// reported by Next so the caller can distinguish "no frames at all" from
// "ran out mid-session".
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory %s: %w", dir, ErrUnavailable)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return &DirSource{paths: paths}, nil
}

// Next decodes and returns the next frame. Files that fail to decode are
// skipped.
func (s *DirSource) Next(ctx context.Context) (image.Image, error) {
	for s.pos < len(s.paths) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := s.paths[s.pos]
		s.pos++

		f, err := os.Open(path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			continue
		}
		return img, nil
	}

	return nil, ErrExhausted
}

func (s *DirSource) Close() error {
	s.pos = len(s.paths)
	return nil
}
