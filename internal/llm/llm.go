package llm

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultCandidates is the fixed candidate-model priority list, ordered
// fastest and cheapest first. A stored user preference can promote one
// entry to the front; the rest keep their relative order.
var DefaultCandidates = []string{
	"gemini-2.5-flash-lite",
	"gemini-2.5-flash",
	"gemini-2.5-pro",
}

// Request describes a single text-generation call. The model identifier is
// not part of the request: the Invoker supplies one per attempt.
type Request struct {
	// Prompt is the full prompt text sent as a single user message.
	Prompt string

	// APIKey is an optional request-scoped credential. When set it takes
	// precedence over the Invoker's default key.
	APIKey string

	// JSONMode asks the backend for a JSON-formatted response. It is a
	// hint to the service, not a guarantee.
	JSONMode bool
}

// Backend performs one generation call against one concrete model.
// Implementations wrap a specific SDK (Gemini, OpenAI-compatible).
type Backend interface {
	GenerateText(ctx context.Context, modelID, apiKey string, req Request) (string, error)
}

// Settings exposes the persisted, read-only lookups the Invoker consumes.
// The Invoker never writes through this interface.
type Settings interface {
	// PreferredModel returns the stored preferred-model identifier, or
	// empty when none is stored.
	PreferredModel() (string, error)

	// APIKey returns the stored API key, or empty when none is stored.
	APIKey() (string, error)
}

// Options configures an Invoker.
type Options struct {
	// Candidates overrides DefaultCandidates when non-empty.
	Candidates []string

	// DefaultKey is the process-level credential, used when the request
	// carries none.
	DefaultKey string

	// Settings is the optional persisted-settings lookup. May be nil.
	Settings Settings
}

// Invoker issues a generation request against the candidate models in
// order, falling back laterally on any failure or empty response. There is
// no per-model retry and attempts are strictly sequential.
type Invoker struct {
	backend    Backend
	candidates []string
	defaultKey string
	settings   Settings
}

// NewInvoker creates an Invoker over the given backend.
func NewInvoker(backend Backend, opts Options) *Invoker {
	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	return &Invoker{
		backend:    backend,
		candidates: candidates,
		defaultKey: opts.DefaultKey,
		settings:   opts.Settings,
	}
}

// Candidates returns the configured candidate list in priority order,
// before preference promotion.
func (inv *Invoker) Candidates() []string {
	out := make([]string, len(inv.candidates))
	copy(out, inv.candidates)
	return out
}

// Generate tries each candidate model in order and returns the first
// non-empty text. With no resolvable credential it fails immediately with
// ErrMissingCredential and performs zero calls. When every candidate fails
// or returns empty text it fails with AllModelsFailedError.
func (inv *Invoker) Generate(ctx context.Context, req Request) (string, error) {
	key, err := inv.resolveKey(req)
	if err != nil {
		return "", err
	}

	candidates := inv.candidateOrder()

	var lastErr error
	for _, modelID := range candidates {
		text, err := inv.backend.GenerateText(ctx, modelID, key, req)
		if err != nil {
			slog.Warn("model attempt failed, trying next candidate", "model", modelID, "error", err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = &EmptyResponseError{Model: modelID}
			slog.Warn("model returned empty response, trying next candidate", "model", modelID)
			continue
		}
		return text, nil
	}

	return "", &AllModelsFailedError{Attempts: len(candidates), Last: lastErr}
}

// resolveKey applies the credential precedence: request key over default key.
func (inv *Invoker) resolveKey(req Request) (string, error) {
	if req.APIKey != "" {
		return req.APIKey, nil
	}
	if inv.defaultKey != "" {
		return inv.defaultKey, nil
	}
	return "", ErrMissingCredential
}

// candidateOrder returns the candidate list with the stored preferred model
// (if any, and if present in the list) moved to the front. The relative
// order of the remaining entries is preserved.
func (inv *Invoker) candidateOrder() []string {
	order := inv.Candidates()
	if inv.settings == nil {
		return order
	}

	preferred, err := inv.settings.PreferredModel()
	if err != nil {
		slog.Warn("reading preferred model", "error", err)
		return order
	}
	if preferred == "" {
		return order
	}

	for i, m := range order {
		if m == preferred {
			promoted := make([]string, 0, len(order))
			promoted = append(promoted, preferred)
			promoted = append(promoted, order[:i]...)
			promoted = append(promoted, order[i+1:]...)
			return promoted
		}
	}
	return order
}
