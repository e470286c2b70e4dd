package translate

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/lloyd42/whisper-asr-client/internal/logging"
)

// Engine splits items into batches and sends each batch through a
// Completer as one request. A batch that fails keeps the original text of
// its items; the failure is reported in the returned error while the other
// batches still complete.
type Engine struct {
	llm    Completer
	opts   Options
	logger *logging.Logger
}

func NewEngine(llm Completer, opts Options) *Engine {
	return &Engine{
		llm:    llm,
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}
}

func (e *Engine) batchSize() int {
	if e.opts.BatchSize > 0 {
		return e.opts.BatchSize
	}
	return DefaultBatchSize
}

// Translate processes batches one after another.
func (e *Engine) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	return e.TranslateWithConcurrency(ctx, items, 1)
}

// TranslateWithConcurrency runs up to concurrency batches at once. The
// result always has one entry per item, in input order.
func (e *Engine) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := e.split(items)
	results := make([][]TranslationResult, len(batches))
	errs := make([]error, len(batches))

	e.logger.Debugw("Sending translation batches",
		"task", e.opts.task(),
		"items", len(items),
		"batches", len(batches),
		"concurrency", concurrency,
	)

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			out, err := e.translateBatch(ctx, batch)
			if err != nil {
				e.logger.Warnw("Translation batch failed, keeping original text",
					"batch", i,
					"items", len(batch),
					"error", err,
				)
				errs[i] = fmt.Errorf("batch %d failed: %w", i, err)
				out = untouched(batch)
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	all := make([]TranslationResult, 0, len(items))
	for _, r := range results {
		all = append(all, r...)
	}
	return all, errors.Join(errs...)
}

// split cuts items into batches bounded by BatchSize and, when set,
// MaxBatchChars. An item longer than MaxBatchChars gets a batch of its own.
func (e *Engine) split(items []TranslationItem) [][]TranslationItem {
	size := e.batchSize()
	maxChars := e.opts.MaxBatchChars

	var batches [][]TranslationItem
	start, chars := 0, 0
	for i, item := range items {
		n := utf8.RuneCountInString(item.Text)
		full := i-start >= size || (maxChars > 0 && i > start && chars+n > maxChars)
		if full {
			batches = append(batches, items[start:i])
			start, chars = i, 0
		}
		chars += n
	}
	return append(batches, items[start:])
}

func (e *Engine) translateBatch(
	ctx context.Context,
	batch []TranslationItem,
) ([]TranslationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply, err := e.llm.Complete(ctx, BuildPrompt(e.opts, batch))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if reply == "" {
		return nil, fmt.Errorf("no text in model response")
	}

	parsed, err := extractTranslationResults(reply)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(reply, 200),
		)
	}

	return e.match(batch, parsed), nil
}

// match pairs replies with the batch by id. Ids the model invented are
// dropped and ids it skipped keep their original text.
func (e *Engine) match(
	batch []TranslationItem,
	parsed []TranslationResult,
) []TranslationResult {
	byID := make(map[segmentID]string, len(parsed))
	for _, r := range parsed {
		if _, seen := byID[r.ID]; !seen {
			byID[r.ID] = r.Text
		}
	}

	out := make([]TranslationResult, len(batch))
	missing := 0
	for i, item := range batch {
		text, ok := byID[segmentID(item.ID)]
		if !ok {
			text = item.Text
			missing++
		}
		out[i] = TranslationResult{ID: segmentID(item.ID), Text: text}
	}
	if missing > 0 {
		e.logger.Warnw("Model skipped some items, keeping original text",
			"missing", missing,
			"batch_items", len(batch),
		)
	}
	return out
}

func untouched(batch []TranslationItem) []TranslationResult {
	out := make([]TranslationResult, len(batch))
	for i, item := range batch {
		out[i] = TranslationResult{ID: segmentID(item.ID), Text: item.Text}
	}
	return out
}
