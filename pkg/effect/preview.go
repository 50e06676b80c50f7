package effect

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tstromberg/fotoredo/pkg/photo"
)

// Previews renders each selectable effect on its own over src, for an effect
// picker. Each preview is at most maxDim on its longer side.
func Previews(ctx context.Context, src image.Image, p photo.Params, maxDim int) (map[Kind]*image.RGBA, error) {
	var mu sync.Mutex
	out := map[Kind]*image.RGBA{}

	g, ctx := errgroup.WithContext(ctx)
	for _, k := range Kinds {
		g.Go(func() error {
			c, err := BuildGraph(src, NewSelection(k), p)
			if err != nil {
				return err
			}
			img, err := c.Brush().Preview(ctx, maxDim)
			if err != nil {
				return err
			}
			mu.Lock()
			out[k] = img
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
