package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"fusionkit/internal/host"
	"fusionkit/internal/logging"
	"fusionkit/internal/publish"
	"fusionkit/internal/sequence"
)

// ActionReadNode creates a Loader tool for the publish.
const ActionReadNode = "read_node"

var (
	// ErrUnsupportedExtension is returned when a publish cannot be read by a Loader.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrUnknownAction is returned for action names this package does not implement.
	ErrUnknownAction = errors.New("unknown loader action")
)

// Action is an action instance offered for a publish.
type Action struct {
	Name        string         `json:"name"`
	Params      map[string]any `json:"params,omitempty"`
	Caption     string         `json:"caption"`
	Description string         `json:"description"`
}

// ActionRequest is one entry of a batch passed to ExecuteMultipleActions.
type ActionRequest struct {
	Name    string
	Params  map[string]any
	Publish *publish.File
}

// Loader executes loader actions against the current comp.
type Loader struct {
	host       host.CurrentDocumentProvider
	resolver   *sequence.Resolver
	extensions map[string]struct{}
	logger     *slog.Logger
}

// New constructs a Loader accepting the given extensions. Extensions are
// compared case-insensitively and may be given with or without a leading dot.
func New(provider host.CurrentDocumentProvider, resolver *sequence.Resolver, extensions []string, logger *slog.Logger) *Loader {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	if resolver == nil {
		resolver = sequence.NewResolver(nil)
	}
	return &Loader{
		host:       provider,
		resolver:   resolver,
		extensions: allowed,
		logger:     logging.NewComponentLogger(logger, "loader"),
	}
}

// GenerateActions returns the action instances available for pub among the
// configured actions. uiArea names where the publish is displayed (main,
// details or history) and is only logged.
func (l *Loader) GenerateActions(pub publish.File, actions []string, uiArea string) []Action {
	l.logger.Debug("generate actions",
		logging.Int64(logging.FieldPublishID, pub.ID),
		logging.String("ui_area", uiArea),
		logging.Any("actions", actions),
	)
	var out []Action
	for _, name := range actions {
		if name != ActionReadNode {
			continue
		}
		out = append(out, Action{
			Name:        ActionReadNode,
			Caption:     cases.Title(language.English).String("create " + strings.ReplaceAll(ActionReadNode, "_", " ")),
			Description: "This will add a read node to the current scene.",
		})
	}
	return out
}

// ExecuteMultipleActions runs each request in order and stops at the first
// failure.
func (l *Loader) ExecuteMultipleActions(ctx context.Context, requests []ActionRequest) ([]host.Tool, error) {
	tools := make([]host.Tool, 0, len(requests))
	for i, req := range requests {
		if req.Publish == nil {
			return tools, fmt.Errorf("action %d (%s): publish is required", i, req.Name)
		}
		tool, err := l.ExecuteAction(ctx, req.Name, req.Params, *req.Publish)
		if err != nil {
			return tools, fmt.Errorf("action %d (%s): %w", i, req.Name, err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// ExecuteAction performs a single action for pub and returns the created tool.
func (l *Loader) ExecuteAction(ctx context.Context, name string, params map[string]any, pub publish.File) (host.Tool, error) {
	l.logger.Debug("execute action",
		logging.String(logging.FieldOperation, name),
		logging.Int64(logging.FieldPublishID, pub.ID),
		logging.Any("params", params),
	)
	if err := ctx.Err(); err != nil {
		return host.Tool{}, err
	}
	path := PublishPath(pub)
	switch name {
	case ActionReadNode:
		return l.createReadNode(ctx, path)
	default:
		return host.Tool{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// PublishPath returns pub's path with forward slashes in Unicode NFC form.
func PublishPath(pub publish.File) string {
	return norm.NFC.String(filepath.ToSlash(pub.Path))
}

func (l *Loader) createReadNode(ctx context.Context, path string) (host.Tool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := l.extensions[ext]; !ok {
		return host.Tool{}, fmt.Errorf("%w: %q", ErrUnsupportedExtension, path)
	}

	rng, found, err := l.resolver.Resolve(path)
	if err != nil {
		return host.Tool{}, fmt.Errorf("resolve sequence: %w", err)
	}

	comp, err := l.host.CurrentComp(ctx)
	if err != nil {
		return host.Tool{}, fmt.Errorf("current comp: %w", err)
	}
	spec := host.LoaderSpec{Clip: path}
	if found {
		spec.Clip = sequence.FramePath(path, rng.Min)
		spec.Frames = &host.FrameRange{In: rng.Min, Out: rng.Max}
		spec.ClipTimeStart = 0
	}

	if err := comp.Lock(); err != nil {
		return host.Tool{}, fmt.Errorf("lock comp: %w", err)
	}
	tool, addErr := comp.AddLoader(spec)
	if err := comp.Unlock(); err != nil && addErr == nil {
		addErr = fmt.Errorf("unlock comp: %w", err)
	}
	if addErr != nil {
		return host.Tool{}, fmt.Errorf("add loader: %w", addErr)
	}

	attrs := []any{
		logging.String(logging.FieldPath, spec.Clip),
		logging.String("tool", tool.Name),
	}
	if found {
		attrs = append(attrs, logging.String("frames", rng.String()))
	}
	l.logger.Info("read node created", attrs...)
	return tool, nil
}
