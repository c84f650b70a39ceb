// Package sceneops performs scene file operations against the host's current
// comp for the work files and snapshot apps.
package sceneops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fusionkit/internal/host"
	"fusionkit/internal/logging"
)

// Operation names a scene operation.
type Operation string

const (
	OpCurrentPath Operation = "current_path"
	OpOpen        Operation = "open"
	OpSave        Operation = "save"
	OpSaveAs      Operation = "save_as"
	OpReset       Operation = "reset"
)

// ErrUnsupportedOperation is returned for operations the host cannot perform.
var ErrUnsupportedOperation = errors.New("unsupported scene operation")

// Request carries the arguments the work files app passes with an operation.
type Request struct {
	Operation Operation
	FilePath  string
	// ParentAction is the work files action that triggered the operation,
	// such as open_file or version_up. Informational only.
	ParentAction string
	FileVersion  int
	ReadOnly     bool
}

// Result reports the outcome of a scene operation.
type Result struct {
	// Path is set for current_path.
	Path string
	// Reset is true when a reset left the scene in a clean state.
	Reset bool
}

// Hook executes scene operations.
type Hook struct {
	host   host.CurrentDocumentProvider
	logger *slog.Logger
}

// New constructs a Hook.
func New(provider host.CurrentDocumentProvider, logger *slog.Logger) *Hook {
	return &Hook{host: provider, logger: logging.NewComponentLogger(logger, "sceneops")}
}

// Execute performs req against the current comp.
func (h *Hook) Execute(ctx context.Context, req Request) (Result, error) {
	h.logger.Debug("scene operation",
		logging.String(logging.FieldOperation, string(req.Operation)),
		logging.String(logging.FieldPath, req.FilePath),
		logging.String("parent_action", req.ParentAction),
		logging.Int("file_version", req.FileVersion),
		logging.Bool("read_only", req.ReadOnly),
	)

	if req.Operation == OpOpen {
		if req.FilePath == "" {
			return Result{}, errors.New("open: file path is required")
		}
		if err := h.host.LoadComp(ctx, req.FilePath); err != nil {
			return Result{}, fmt.Errorf("open %s: %w", req.FilePath, err)
		}
		return Result{}, nil
	}

	comp, err := h.host.CurrentComp(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("current comp: %w", err)
	}

	switch req.Operation {
	case OpCurrentPath:
		return Result{Path: comp.Attrs().String(host.AttrFileName)}, nil
	case OpSave, OpSaveAs:
		if err := comp.Save(req.FilePath); err != nil {
			return Result{}, fmt.Errorf("%s: %w", req.Operation, err)
		}
		return Result{}, nil
	case OpReset:
		if err := comp.Save(req.FilePath); err != nil {
			return Result{}, fmt.Errorf("reset: %w", err)
		}
		return Result{Reset: true}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedOperation, req.Operation)
	}
}
