package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/bloops-games/launched/internal/codec"
	"github.com/bloops-games/launched/internal/gamestat"
	"github.com/bloops-games/launched/internal/snapshot"
)

const openTimeout = 5 * time.Second

func inspect(ctx context.Context, w io.Writer, store snapshot.Store, seeding string) error {
	s, err := gamestat.ParseLeastSeeding(seeding)
	if err != nil {
		return err
	}

	data, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	res, err := codec.Decode(data, s)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	if r, ok := store.(snapshot.SavedAtReader); ok {
		ts, err := r.SavedAt(ctx)
		if err != nil {
			return fmt.Errorf("saved at: %w", err)
		}
		if !ts.IsZero() {
			_, _ = fmt.Fprintf(w, "saved at %s\n", ts.Format(codec.TimeLayout))
		}
	}

	ids := make([]int64, 0, len(res.Profiles))
	for id := range res.Profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USER\tGAMES\tMOST\tLEAST\tLAST")
	for _, id := range ids {
		p := res.Profiles[id]
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			id, p.Len(), recordName(p.MostLaunched()), recordName(p.LeastLaunched()), recordName(p.LastLaunched()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%d users, %d skipped entries\n", len(ids), len(res.Skipped))
	for _, e := range res.Skipped {
		_, _ = fmt.Fprintf(w, "  skipped: %v\n", e)
	}

	return nil
}

// migrate copies the document from src to dst. It is decoded first so a
// corrupt document is never written. Malformed entries are dropped.
func migrate(ctx context.Context, src, dst snapshot.Store) (int, error) {
	data, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load source: %w", err)
	}

	res, err := codec.Decode(data, gamestat.SeedFromTrigger)
	if err != nil {
		return 0, fmt.Errorf("decode source: %w", err)
	}

	out, err := codec.Encode(res.Profiles)
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}

	if err := dst.Save(ctx, out); err != nil {
		return 0, fmt.Errorf("save target: %w", err)
	}

	return len(res.Profiles), nil
}

func recordName(r *gamestat.Record) string {
	if r == nil {
		return "-"
	}
	return r.Name
}
