package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/resolve"
)

const progressEvery = 50

// Resolver resolves one artist.
type Resolver interface {
	Resolve(ctx context.Context, p artist.Profile) resolve.Result
}

// Flusher persists buffered cache writes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Options configures a Coordinator.
type Options struct {
	OutputPath      string
	Workers         int
	CheckpointEvery int
}

// Summary describes the dataset after a run.
type Summary struct {
	Artists     int
	WithMBID    int
	WithCountry int
	Processed   int
	Skipped     int
	Failed      int
}

// Percent returns n as a percentage of all artists.
func (s Summary) Percent(n int) float64 {
	if s.Artists == 0 {
		return 0
	}
	return 100 * float64(n) / float64(s.Artists)
}

// Coordinator runs resolutions on a bounded worker pool and checkpoints the
// output dataset and cache as results arrive.
type Coordinator struct {
	resolver Resolver
	cache    Flusher
	opts     Options
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(resolver Resolver, cache Flusher, opts Options, logger *slog.Logger) *Coordinator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.CheckpointEvery < 1 {
		opts.CheckpointEvery = 1
	}
	return &Coordinator{
		resolver: resolver,
		cache:    cache,
		opts:     opts,
		logger:   logger.With(slog.String("component", "batch")),
	}
}

// Run resolves every profile not already in the output dataset. New rows
// follow the rows already in the file, in input order, whatever order the
// workers finish in. On cancellation the results already received are saved
// and the context error is returned.
func (c *Coordinator) Run(ctx context.Context, profiles []artist.Profile) (Summary, error) {
	ds, err := LoadDataset(c.opts.OutputPath)
	if err != nil {
		return Summary{}, err
	}

	pending := c.pending(ds, profiles)
	skipped := len(profiles) - len(pending)
	run := &runBatch{ds: ds, base: ds.Len(), rank: make(map[artist.Key]int, len(pending))}
	for i, p := range pending {
		run.rank[p.Key()] = i
	}
	c.logger.Info("starting batch",
		slog.Int("artists", len(profiles)),
		slog.Int("pending", len(pending)),
		slog.Int("already_done", skipped),
		slog.Int("workers", c.opts.Workers))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan resolve.Result, c.opts.Workers)
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(c.opts.Workers)
	dispatchErr := make(chan error, 1)
	go func() {
		for _, p := range pending {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				res := c.resolver.Resolve(gctx, p)
				// Lookups made after cancellation fail, so the result would
				// record a miss that never happened.
				if gctx.Err() != nil {
					return gctx.Err()
				}
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		dispatchErr <- g.Wait()
		close(results)
	}()

	var (
		buf     []resolve.Result
		done    int
		failed  int
		started = time.Now()
	)
	for r := range results {
		buf = append(buf, r)
		done++
		if r.Method == resolve.MethodFailed {
			failed++
		}
		if done%progressEvery == 0 {
			c.logger.Info("progress",
				slog.Int("done", done),
				slog.Int("pending", len(pending)),
				slog.Duration("elapsed", time.Since(started).Round(time.Second)))
		}
		if len(buf) >= c.opts.CheckpointEvery {
			if err := c.checkpoint(ctx, run, buf); err != nil {
				return Summary{}, err
			}
			buf = buf[:0]
		}
	}
	runErr := <-dispatchErr

	// The final checkpoint must survive a cancelled run.
	if err := c.checkpoint(context.WithoutCancel(ctx), run, buf); err != nil {
		return Summary{}, err
	}

	sum := summarize(ds)
	sum.Processed = done
	sum.Skipped = skipped
	sum.Failed = failed
	if runErr != nil {
		return sum, fmt.Errorf("batch interrupted after %d of %d artists: %w", done, len(pending), runErr)
	}
	return sum, nil
}

// pending returns the profiles that still need resolving, dropping empty
// names, rows already in the dataset and duplicates within profiles.
func (c *Coordinator) pending(ds *Dataset, profiles []artist.Profile) []artist.Profile {
	seen := make(map[artist.Key]bool, len(profiles))
	out := make([]artist.Profile, 0, len(profiles))
	for _, p := range profiles {
		key := p.Key()
		if key.Name == "" || seen[key] || ds.Has(key) {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// runBatch is the dataset of one run plus what it needs to keep new rows in
// input order: the number of rows loaded from the file and each pending
// artist's input position.
type runBatch struct {
	ds   *Dataset
	base int
	rank map[artist.Key]int
}

// checkpoint merges buf into the dataset, restores input order among the
// rows added by this run, rewrites the output file and flushes the cache.
func (c *Coordinator) checkpoint(ctx context.Context, b *runBatch, buf []resolve.Result) error {
	ds := b.ds
	if len(buf) > 0 {
		for _, res := range buf {
			ds.Merge(RowFromResult(res))
		}
		ds.sortFrom(b.base, b.rank)
		if err := ds.Save(c.opts.OutputPath); err != nil {
			return fmt.Errorf("saving dataset: %w", err)
		}
	}
	if err := c.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	c.logger.Debug("checkpoint", slog.Int("rows", ds.Len()), slog.Int("merged", len(buf)))
	return nil
}

func summarize(ds *Dataset) Summary {
	s := Summary{Artists: ds.Len()}
	for _, row := range ds.Rows() {
		if row.MBID != "" {
			s.WithMBID++
		}
		if row.Country != "" {
			s.WithCountry++
		}
	}
	return s
}
