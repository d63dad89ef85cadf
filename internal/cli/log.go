package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sheetpack/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Wrote 3 files (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Debug Hooks
// =============================================================================

// logHooks reports pipeline and cache events at debug level. Trials are
// already logged by the runner and are skipped here.
type logHooks struct {
	observability.NoopPipelineHooks
	logger *log.Logger
}

// registerLogHooks installs logHooks for --verbose runs.
func registerLogHooks(l *log.Logger) {
	h := &logHooks{logger: l}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h *logHooks) OnMeasureStart(_ context.Context, files int) {
	h.logger.Debug("measure start", "files", files)
}

func (h *logHooks) OnMeasureComplete(_ context.Context, files int, d time.Duration, err error) {
	h.complete("measure", d, err, "files", files)
}

func (h *logHooks) OnPackStart(_ context.Context, items int) {
	h.logger.Debug("pack start", "items", items)
}

func (h *logHooks) OnPackComplete(_ context.Context, width, height int, d time.Duration, err error) {
	h.complete("pack", d, err, "width", width, "height", height)
}

func (h *logHooks) OnExportStart(_ context.Context, formats []string) {
	h.logger.Debug("export start", "formats", strings.Join(formats, ","))
}

func (h *logHooks) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.complete("export", d, err, "formats", strings.Join(formats, ","))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *logHooks) complete(stage string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "duration", d.Round(time.Millisecond))
	if err != nil {
		h.logger.Debug(stage+" failed", append(kv, "err", err)...)
		return
	}
	h.logger.Debug(stage+" done", kv...)
}
