package console

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Total is one dashboard tile.
type Total struct {
	Entity string `json:"entity"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
	Err    error  `json:"-"`
}

// Dashboard fetches the remote totals of several screens concurrently. A
// failing screen reports its error on its own tile; the others still load.
func Dashboard(ctx context.Context, screens ...*Screen) []Total {
	out := make([]Total, len(screens))
	g, gctx := errgroup.WithContext(ctx)
	for i, scr := range screens {
		out[i] = Total{Entity: scr.Entity(), Title: scr.Title()}
		g.Go(func() error {
			count, err := scr.Total(gctx)
			out[i].Count = count
			out[i].Err = err
			if err != nil {
				scr.noteErr(NoticeFetch, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
