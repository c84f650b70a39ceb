// Package frameops reads and writes the comp's global and render frame range.
package frameops

import (
	"context"
	"fmt"
	"log/slog"

	"fusionkit/internal/host"
	"fusionkit/internal/logging"
)

// Hook performs frame range operations on the current comp.
type Hook struct {
	host   host.CurrentDocumentProvider
	logger *slog.Logger
}

// New constructs a Hook.
func New(provider host.CurrentDocumentProvider, logger *slog.Logger) *Hook {
	return &Hook{host: provider, logger: logging.NewComponentLogger(logger, "frameops")}
}

// GetFrameRange returns the comp's global in and out frames.
func (h *Hook) GetFrameRange(ctx context.Context) (int, int, error) {
	comp, err := h.host.CurrentComp(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("current comp: %w", err)
	}
	attrs := comp.Attrs()
	in, ok := attrs.Int(host.AttrGlobalStart)
	if !ok {
		return 0, 0, fmt.Errorf("comp attribute %s missing or not numeric", host.AttrGlobalStart)
	}
	out, ok := attrs.Int(host.AttrGlobalEnd)
	if !ok {
		return 0, 0, fmt.Errorf("comp attribute %s missing or not numeric", host.AttrGlobalEnd)
	}
	return in, out, nil
}

// SetFrameRange sets the global range to in..out and the render range to
// headIn..tailOut.
func (h *Hook) SetFrameRange(ctx context.Context, headIn, in, out, tailOut int) error {
	if in > out {
		return fmt.Errorf("in frame %d is after out frame %d", in, out)
	}
	if headIn > tailOut {
		return fmt.Errorf("head in frame %d is after tail out frame %d", headIn, tailOut)
	}
	comp, err := h.host.CurrentComp(ctx)
	if err != nil {
		return fmt.Errorf("current comp: %w", err)
	}

	// End attributes go first so the host never sees start > end while the
	// range moves forward.
	steps := []host.Attrs{
		{host.AttrGlobalEnd: out},
		{host.AttrRenderEnd: tailOut},
		{host.AttrGlobalStart: in},
		{host.AttrRenderStart: headIn},
	}
	if err := comp.Lock(); err != nil {
		return fmt.Errorf("lock comp: %w", err)
	}
	for _, attrs := range steps {
		if err := comp.SetAttrs(attrs); err != nil {
			_ = comp.Unlock()
			return fmt.Errorf("set frame range: %w", err)
		}
	}
	if err := comp.Unlock(); err != nil {
		return fmt.Errorf("unlock comp: %w", err)
	}

	h.logger.Info("frame range set",
		logging.Int("head_in", headIn),
		logging.Int("in", in),
		logging.Int("out", out),
		logging.Int("tail_out", tailOut),
	)
	return nil
}
