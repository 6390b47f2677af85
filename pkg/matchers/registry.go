package matchers

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/getmockd/contractmock/pkg/logging"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/model"
)

// Entry maps a content type pattern to a matcher kind. Patterns must match
// the whole content type.
type Entry struct {
	Pattern *regexp.Regexp
	Kind    Kind
}

func entry(pattern string, kind Kind) Entry {
	return Entry{Pattern: regexp.MustCompile(`^(?:` + pattern + `)$`), Kind: kind}
}

// builtin is consulted in order; the first matching entry wins.
var builtin = []Entry{
	entry(`application/vnd\.schemaregistry\.v1\+json`, KindKafkaJSONSchema),
	entry(`application/.*xml`, KindXML),
	entry(`text/xml`, KindXML),
	entry(`.*json.*`, KindJSON),
	entry(`text/plain`, KindText),
	entry(`multipart/.*`, KindMultipart),
	entry(`application/x-www-form-urlencoded`, KindForm),
}

// BuiltinEntries returns a copy of the built-in table in lookup order.
func BuiltinEntries() []Entry {
	return slices.Clone(builtin)
}

// Resolution is the outcome of a registry lookup.
type Resolution struct {
	// Matcher is nil when no matcher applies.
	Matcher Matcher
	// Source is one of the metrics.Source constants.
	Source string
	// Chain lists the content types visited, starting with the requested one.
	Chain []string
}

// Registry resolves content types to body matchers. It is safe for
// concurrent use; all state it reads is owned by its collaborators.
type Registry struct {
	catalogue Catalogue
	overrides Overrides
	log       *slog.Logger
	metrics   *metrics.Metrics

	baseTypeFallback bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCatalogue sets the plugin catalogue consulted first.
func WithCatalogue(c Catalogue) RegistryOption {
	return func(r *Registry) {
		r.catalogue = c
	}
}

// WithOverrides sets the configured content type overrides.
func WithOverrides(o Overrides) RegistryOption {
	return func(r *Registry) {
		r.overrides = o
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics records resolution outcomes.
func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithBaseTypeFallback retries the built-in table with the lower-cased
// content type stripped of its parameters when the full string matches no
// entry. Without it "text/plain; charset=utf-8" resolves to nothing.
func WithBaseTypeFallback() RegistryOption {
	return func(r *Registry) {
		r.baseTypeFallback = true
	}
}

// NewRegistry creates a registry. Unless WithOverrides is given it reads
// DefaultOverrides; without a catalogue no plugin matchers are found.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{overrides: DefaultOverrides, log: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the matcher for contentType, or nil if none applies.
func (r *Registry) Resolve(contentType string) Matcher {
	return r.Lookup(contentType).Matcher
}

// Lookup resolves contentType and reports how the result was found.
func (r *Registry) Lookup(contentType string) Resolution {
	res := r.lookup(contentType, nil)
	r.metrics.IncResolution(res.Source)
	return res
}

func (r *Registry) lookup(contentType string, chain []string) Resolution {
	if strings.TrimSpace(contentType) == "" {
		return Resolution{Source: metrics.SourceNone, Chain: chain}
	}
	if slices.Contains(chain, contentType) {
		r.log.Warn("content type override cycle",
			"chain", strings.Join(append(chain, contentType), " -> "))
		return Resolution{Source: metrics.SourceNone, Chain: chain}
	}
	chain = append(chain, contentType)

	if r.catalogue != nil {
		if e, ok := r.catalogue.FindContentMatcher(contentType); ok && !e.IsCore() {
			r.log.Debug("content matcher from plugin", "contentType", contentType, "plugin", e.PluginName, "key", e.Key)
			return Resolution{
				Matcher: PluginMatcher{Entry: e, ContentType: contentType},
				Source:  metrics.SourcePlugin,
				Chain:   chain,
			}
		}
	}

	if value, ok := r.override(contentType); ok {
		if m, simple := New(Kind(strings.ToLower(value))); simple {
			return Resolution{Matcher: m, Source: metrics.SourceOverride, Chain: chain}
		}
		return r.lookup(value, chain)
	}

	kind, ok := builtinKind(contentType)
	if !ok && r.baseTypeFallback {
		if base := model.BaseContentType(contentType); base != contentType {
			kind, ok = builtinKind(base)
		}
	}
	if ok {
		m, _ := New(kind)
		return Resolution{Matcher: m, Source: metrics.SourceBuiltin, Chain: chain}
	}
	return Resolution{Source: metrics.SourceNone, Chain: chain}
}

func (r *Registry) override(contentType string) (string, bool) {
	if r.overrides == nil {
		return "", false
	}
	if v, ok := r.overrides.Get(contentType); ok && v != "" {
		return v, true
	}
	return "", false
}

// builtinKind returns the kind of the first entry whose pattern matches the
// whole of contentType.
func builtinKind(contentType string) (Kind, bool) {
	for _, e := range builtin {
		if e.Pattern.MatchString(contentType) {
			return e.Kind, true
		}
	}
	return "", false
}
