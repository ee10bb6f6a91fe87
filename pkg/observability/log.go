package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes pipeline and cache events to a logger at debug level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnRunStart(_ context.Context, runID string, records int) {
	h.logger.Debug("run started", "run", runID, "records", records)
}

func (h *LogHooks) OnRunComplete(_ context.Context, runID string, labels, failures int, d time.Duration) {
	h.logger.Debug("run complete", "run", runID, "labels", labels, "failures", failures, "took", d)
}

func (h *LogHooks) OnLabelComplete(_ context.Context, index int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("label failed", "index", index, "err", err)
		return
	}
	h.logger.Debug("label rendered", "index", index, "took", d)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, labels, pages int, d time.Duration) {
	h.logger.Debug("layout complete", "labels", labels, "pages", pages, "took", d)
}

func (h *LogHooks) OnEmitComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("emit failed", "format", format, "err", err)
		return
	}
	h.logger.Debug("emitted", "format", format, "bytes", size, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
)
