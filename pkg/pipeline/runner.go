package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/fonts"
	"github.com/matzehuels/labelsheet/pkg/label/compose"
	"github.com/matzehuels/labelsheet/pkg/label/symbol"
	"github.com/matzehuels/labelsheet/pkg/observability"
	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
	"github.com/matzehuels/labelsheet/pkg/sheet/sink"
)

// Runner executes label and sheet generation with caching.
//
// The Runner holds no per-run state: the cache, keyer, font and logger are
// shared and read-only, so multiple goroutines can use one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Font   *fonts.Font
	Logger *log.Logger
}

// NewRunner creates a runner.
// A nil cache disables caching, a nil keyer uses cache.DefaultKeyer and a
// nil font uses the embedded default. The font is parsed here, so a broken
// font fails before any label is drawn.
func NewRunner(c cache.Cache, keyer cache.Keyer, f *fonts.Font, logger *log.Logger) (*Runner, error) {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if f == nil {
		var err error
		if f, err = fonts.Default(); err != nil {
			return nil, err
		}
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Font:   f,
		Logger: logger,
	}, nil
}

// Label renders a single label.
func (r *Runner) Label(ctx context.Context, rec Record, opts Options) (*LabelResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()
	res, err := r.renderLabel(ctx, compose.New(r.Font, opts.ComposeOptions()...), 0, rec, opts)
	observability.Pipeline().OnLabelComplete(ctx, 0, time.Since(start), err)
	return res, err
}

// Labels renders every record on a bounded worker pool.
//
// Results are returned in input order with nil entries for records that
// failed; each failure is also listed in the returned slice. Only context
// cancellation aborts the whole batch.
func (r *Runner) Labels(ctx context.Context, records []Record, opts Options) ([]*LabelResult, []Failure, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, fmt.Errorf("invalid options: %w", err)
	}

	comp := compose.New(r.Font, opts.ComposeOptions()...)
	results := make([]*LabelResult, len(records))
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := r.renderLabel(gctx, comp, i, rec, opts)
			observability.Pipeline().OnLabelComplete(gctx, i, time.Since(start), err)
			if err != nil {
				r.Logger.Debug("label failed", "index", i, "id", rec.ID, "err", err)
				errs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var failures []Failure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, Failure{Index: i, ID: records[i].ID, Err: err})
		}
	}
	return results, failures, nil
}

// Sheet renders every record and lays the labels out as a PDF document.
//
// Records that cannot be encoded are skipped and reported in
// SheetResult.Failures; the remaining labels keep their relative order.
// The sheet is emitted even when every record failed.
func (r *Runner) Sheet(ctx context.Context, records []Record, opts Options) (*SheetResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &SheetResult{RunID: uuid.NewString()}
	result.Stats.Records = len(records)
	runStart := time.Now()
	observability.Pipeline().OnRunStart(ctx, result.RunID, len(records))

	// Stage 1: Labels
	labelStart := time.Now()
	labels, failures, err := r.Labels(ctx, records, opts)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	result.Failures = failures
	result.Stats.LabelTime = time.Since(labelStart)

	var (
		images []*image.Gray
		keys   []string
		source []int
	)
	for _, l := range labels {
		if l == nil {
			continue
		}
		images = append(images, l.Image)
		keys = append(keys, l.Key)
		source = append(source, l.Index)
		if l.Cached {
			result.CacheInfo.LabelHits++
		}
	}
	result.Stats.Labels = len(images)

	r.Logger.Info("rendered labels",
		"run", result.RunID,
		"labels", len(images),
		"failed", len(failures),
		"cached", result.CacheInfo.LabelHits,
		"duration", result.Stats.LabelTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	doc, err := r.arrange(images, source, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Document = doc
	result.Stats.Pages = len(doc.Pages)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, len(images), len(doc.Pages), result.Stats.LayoutTime)

	r.Logger.Info("computed layout",
		"pages", len(doc.Pages),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Emit
	emitStart := time.Now()
	pdf, hit, err := r.EmitWithCacheInfo(ctx, doc, keys, opts)
	result.Stats.EmitTime = time.Since(emitStart)
	observability.Pipeline().OnEmitComplete(ctx, "pdf", len(pdf), result.Stats.EmitTime, err)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	result.PDF = pdf
	result.CacheInfo.SheetHit = hit

	r.Logger.Info("emitted sheet",
		"bytes", len(pdf),
		"cached", hit,
		"duration", result.Stats.EmitTime)

	observability.Pipeline().OnRunComplete(ctx, result.RunID, len(images), len(failures), time.Since(runStart))
	return result, nil
}

// EmitWithCacheInfo serializes doc as PDF. labelKeys are the cache keys of
// the placed labels in order; together with the sheet geometry they
// identify the document.
func (r *Runner) EmitWithCacheInfo(ctx context.Context, doc layout.Document, labelKeys []string, opts Options) ([]byte, bool, error) {
	cacheKey := r.Keyer.SheetKey(cache.HashStrings(labelKeys), opts.SheetKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "sheet")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "sheet")
	}

	pdf, err := sink.RenderPDF(doc)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, pdf, cache.TTLSheet); err != nil {
		r.Logger.Warn("cache write failed", "type", "sheet", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "sheet", len(pdf))
	}
	return pdf, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// arrange lays out images and rewrites placement indices to input
// positions, so skipped records do not shift the reported order.
func (r *Runner) arrange(images []*image.Gray, source []int, opts Options) (layout.Document, error) {
	cellW, cellH := opts.CellSize()
	eng, err := layout.New(opts.Sheet, cellW, cellH)
	if err != nil {
		return layout.Document{}, err
	}
	doc, err := eng.Arrange(images)
	if err != nil {
		return layout.Document{}, err
	}
	for p := range doc.Pages {
		for i := range doc.Pages[p].Placements {
			pl := &doc.Pages[p].Placements[i]
			pl.Index = source[pl.Index]
		}
	}
	return doc, nil
}

// renderLabel encodes and composes one record, reading through the cache.
func (r *Runner) renderLabel(ctx context.Context, comp *compose.Compositor, index int, rec Record, opts Options) (*LabelResult, error) {
	payload := opts.Locator(rec.ID)
	key := r.Keyer.LabelKey(payload, opts.LabelKeyOpts(rec.Name, r.Font.Hash))
	res := &LabelResult{Index: index, Record: rec, Payload: payload, Key: key}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if img, err := sink.DecodePNG(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "label")
				res.Image, res.PNG, res.Cached = img, data, true
				return res, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "label")
	}

	sym, err := symbol.Encode(payload, opts.ErrorCorrection, opts.SymbolDimension)
	if err != nil {
		return nil, err
	}
	if missing := r.Font.Missing(rec.Name); len(missing) > 0 {
		r.Logger.Warn("font has no glyphs for name", "id", rec.ID, "font", r.Font.Name, "missing", string(missing))
	}
	img := comp.Compose(sym, rec.Name, opts.SymbolDimension, opts.LabelHeight())
	data, err := sink.RenderPNG(img)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode label png")
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLLabel); err != nil {
		r.Logger.Warn("cache write failed", "type", "label", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "label", len(data))
	}

	res.Image, res.PNG = img, data
	return res, nil
}
