package form

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs one independent pass of def per source, at most limit at a
// time (limit < 1 means unbounded).  Results keep the order of sources.
// Every Form owns its own state; collaborators injected through opts are
// shared and must be safe for concurrent use.
//
// The returned error is either ctx's error or a structural definition
// error.  Validation and submission errors stay on each Form.
func RunAll(ctx context.Context, def *Definition, sources []Source, limit int, opts ...Option) ([]*Form, error) {
	if err := def.check(); err != nil {
		return nil, err
	}

	forms := make([]*Form, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := New(def, src, opts...)
			if err != nil {
				return err
			}
			forms[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return forms, nil
}
