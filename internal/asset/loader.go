package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inamate/inamate/canvas-go/internal/raster"
)

// URLPrefix is the path stored assets are served under.
const URLPrefix = "/assets/"

var ErrUnknownSource = errors.New("unknown image source")

// Loader resolves data: URIs and stored asset URLs into image bytes.
type Loader struct {
	dir string
}

var _ raster.Loader = (*Loader)(nil)

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load(ctx context.Context, src string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(src, "data:") {
		return raster.DataURILoader{}.Load(ctx, src)
	}
	name, ok := strings.CutPrefix(src, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: %.64s", ErrUnknownSource, src)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}
