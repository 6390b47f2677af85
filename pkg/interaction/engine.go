package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/matchers"
	"github.com/getmockd/contractmock/pkg/model"
)

// ErrNoInteraction is returned when a request matches no interaction.
var ErrNoInteraction = errors.New("no interaction matched the request")

// Engine is a model.Generator serving a fixed set of interactions. The
// first interaction whose request matches wins.
type Engine struct {
	registry *matchers.Registry
	log      *slog.Logger

	mu           sync.Mutex
	interactions []Interaction
	hits         []int
	unexpected   []string
	// generation changes on Replace so hits from an older set are dropped.
	generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the registry used to pick body matchers.
func WithRegistry(r *matchers.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates an engine for interactions.
func NewEngine(interactions []Interaction, opts ...Option) *Engine {
	e := &Engine{
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = matchers.NewRegistry(matchers.WithLogger(e.log))
	}
	e.Replace(interactions)
	return e
}

// Replace swaps the interactions and resets the verification state.
func (e *Engine) Replace(interactions []Interaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interactions = append([]Interaction(nil), interactions...)
	e.hits = make([]int, len(interactions))
	e.unexpected = nil
	e.generation++
}

// Generate implements model.Generator. Matching runs without holding the
// engine lock, so slow body comparers do not serialize requests.
func (e *Engine) Generate(_ context.Context, req *model.Request) (*model.Response, error) {
	e.mu.Lock()
	interactions, generation := e.interactions, e.generation
	e.mu.Unlock()

	var closest []matchers.Mismatch
	for i := range interactions {
		in := &interactions[i]
		mismatches := e.match(&in.Request, req)
		if len(mismatches) == 0 {
			e.record(func() {
				if e.generation == generation {
					e.hits[i]++
				}
			})
			resp := in.Response.ToResponse()
			e.log.Debug("matched interaction",
				"description", in.Description,
				"method", req.Method,
				"path", req.Path,
				"status", statusText(resp.Status))
			return resp, nil
		}
		if closest == nil || len(mismatches) < len(closest) {
			closest = mismatches
		}
	}

	summary := req.Method + " " + req.Path
	e.record(func() {
		e.unexpected = append(e.unexpected, summary)
	})
	if len(closest) > 0 {
		return nil, fmt.Errorf("%w: %s (closest mismatch: %s)", ErrNoInteraction, summary, closest[0])
	}
	return nil, fmt.Errorf("%w: %s", ErrNoInteraction, summary)
}

func (e *Engine) record(update func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	update()
}

func (e *Engine) match(exp *Request, req *model.Request) []matchers.Mismatch {
	var mismatches []matchers.Mismatch
	if exp.Method != "" && !strings.EqualFold(exp.Method, req.Method) {
		mismatches = append(mismatches, matchers.Mismatch{Path: "method", Message: fmt.Sprintf("expected %s but received %s", strings.ToUpper(exp.Method), req.Method)})
	}
	if exp.Path != "" && exp.Path != req.Path {
		mismatches = append(mismatches, matchers.Mismatch{Path: "path", Message: fmt.Sprintf("expected %q but received %q", exp.Path, req.Path)})
	}
	for name, want := range exp.Query {
		if got, ok := req.Query[name]; !ok || got != want {
			mismatches = append(mismatches, matchers.Mismatch{Path: "query." + name, Message: fmt.Sprintf("expected %q but received %q", want, got)})
		}
	}
	for name, want := range exp.Headers {
		if !headerMatches(req.Headers, name, want) {
			mismatches = append(mismatches, matchers.Mismatch{Path: "header." + name, Message: fmt.Sprintf("expected %q", want)})
		}
	}
	if len(mismatches) > 0 || len(exp.Body) == 0 {
		return mismatches
	}

	expected := model.NewBody(exp.Body, exp.ContentType())
	m := e.registry.Resolve(exp.ContentType())
	if m == nil {
		m = matchers.TextMatcher{}
	}
	return m.Match(expected, req.Body)
}

// headerMatches compares against the individual values and against the
// values joined back into one header line.
func headerMatches(headers map[string][]string, name, want string) bool {
	for k, values := range headers {
		if !strings.EqualFold(k, name) {
			continue
		}
		if lo.Contains(values, want) || strings.Join(values, ", ") == want {
			return true
		}
	}
	return false
}

// Verify reports interactions that were never requested and requests that
// matched nothing.
func (e *Engine) Verify() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for i, in := range e.interactions {
		if e.hits[i] == 0 {
			errs = append(errs, fmt.Errorf("interaction %q was never requested", in.Description))
		}
	}
	for _, summary := range e.unexpected {
		errs = append(errs, fmt.Errorf("unexpected request %s", summary))
	}
	return errors.Join(errs...)
}

// Hits returns how often each interaction was matched, by description.
func (e *Engine) Hits() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	hits := make(map[string]int, len(e.interactions))
	for i, in := range e.interactions {
		hits[in.Description] += e.hits[i]
	}
	return hits
}

var _ model.Generator = (*Engine)(nil)

func statusText(status int) string {
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}
