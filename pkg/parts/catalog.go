package parts

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/switchyard/pkg/errors"
)

// Catalog answers image and geometry lookups by part name. It is read-only
// after construction and safe for concurrent use.
type Catalog struct {
	images   map[string]string
	geometry map[string]Geometry
}

// New builds a catalog, re-keying both maps with [Normalize]. When two raw
// keys normalize to the same key, the lexically first raw key wins.
func New(images map[string]string, geometry map[string]Geometry) *Catalog {
	return &Catalog{
		images:   rekey(images),
		geometry: rekey(geometry),
	}
}

func rekey[V any](in map[string]V) map[string]V {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]V, len(in))
	for _, k := range keys {
		nk := Normalize(k)
		if _, dup := out[nk]; !dup {
			out[nk] = in[k]
		}
	}
	return out
}

// GeometryFor returns the geometry for a raw part name.
func (c *Catalog) GeometryFor(name string) (Geometry, bool) {
	if c == nil {
		return Geometry{}, false
	}
	g, ok := c.geometry[Normalize(name)]
	return g, ok
}

// ImageFor returns the image URL for a raw part name.
func (c *Catalog) ImageFor(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	u, ok := c.images[Normalize(name)]
	return u, ok
}

// Len returns the number of image and geometry entries.
func (c *Catalog) Len() (images, geometry int) {
	if c == nil {
		return 0, 0
	}
	return len(c.images), len(c.geometry)
}

// Source fetches raw catalog maps, typically from the remote controller.
type Source interface {
	Parts(ctx context.Context) (map[string]string, error)
	PartGeometry(ctx context.Context) (map[string]Geometry, error)
}

// Load fetches images and geometry concurrently. A geometry source that
// reports NOT_FOUND yields an empty geometry map; every other failure is
// returned.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	var (
		images   map[string]string
		geometry map[string]Geometry
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if images, err = src.Parts(ctx); err != nil {
			return fmt.Errorf("parts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		geometry, err = src.PartGeometry(ctx)
		if errors.Is(err, errors.ErrCodeNotFound) {
			geometry, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("part geometry: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(images, geometry), nil
}
