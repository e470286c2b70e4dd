package transcribe

import (
	"context"
	"fmt"

	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// settings for transcribing several files
type BatchOptions struct {
	Concurrency     int
	RateLimitPerMin int
	Logger          *logging.Logger
}

// TranscribeAll runs t over every path with bounded parallelism and an
// optional request rate limit. Results are returned in input order; the
// first failure cancels the remaining uploads.
func TranscribeAll(
	ctx context.Context,
	t Transcriber,
	paths []string,
	opts Options,
	batch BatchOptions,
) ([]*Result, error) {
	logger := logging.OrNop(batch.Logger)

	concurrency := batch.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	limit := rate.Inf
	if batch.RateLimitPerMin > 0 {
		limit = rate.Limit(float64(batch.RateLimitPerMin) / 60.0)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}

			logger.Infow("Transcribing file",
				"file", path,
				"progress", fmt.Sprintf("%d/%d", i+1, len(paths)),
			)

			res, err := t.Transcribe(gctx, path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
