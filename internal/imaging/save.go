// internal/imaging/save.go
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

// DefaultPattern names received images by their completion time.
const DefaultPattern = "tonecast-%Y%m%d-%H%M%S.png"

// maxCollisions bounds the numeric suffixes tried for one name.
const maxCollisions = 1000

// ErrNameCollision indicates every suffixed file name was already taken
var ErrNameCollision = errors.New("no free output file name")

// Saver writes received images as PNG files named from a strftime pattern.
type Saver struct {
	dir     string
	pattern *strftime.Strftime
}

// NewSaver creates a saver writing into dir.
func NewSaver(dir, pattern string) (*Saver, error) {
	p, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("output pattern %q: %w", pattern, err)
	}
	return &Saver{dir: dir, pattern: p}, nil
}

// Save encodes img as PNG. An existing file is never overwritten; a numeric
// suffix is added instead. It returns the path written.
func (s *Saver) Save(img image.Image, at time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := s.pattern.FormatString(at)
	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".png"
		name += ext
	}
	base := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisions; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create image file: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("encode png: %w", err)
		}
		return path, f.Close()
	}
	return "", fmt.Errorf("%w: %s", ErrNameCollision, name)
}
