package matchers

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/getmockd/contractmock/pkg/model"
)

// EntryType classifies catalogue entries.
type EntryType string

// Catalogue entry types.
const (
	EntryContentMatcher   EntryType = "content-matcher"
	EntryContentGenerator EntryType = "content-generator"
)

// ProviderType says who supplies a catalogue entry.
type ProviderType string

// Provider types.
const (
	ProviderCore   ProviderType = "core"
	ProviderPlugin ProviderType = "plugin"
)

// Keys of CatalogueEntry.Values.
const (
	ValueContentTypes   = "content-types"
	ValueImplementation = "implementation"
)

// BodyComparer is implemented by plugins that compare bodies themselves.
type BodyComparer interface {
	CompareBodies(contentType string, expected, actual model.Body) ([]Mismatch, error)
}

// CatalogueEntry describes a capability registered in the plugin catalogue.
type CatalogueEntry struct {
	Type         EntryType
	ProviderType ProviderType
	PluginName   string
	Key          string

	// Values carries entry attributes. ValueContentTypes is a comma
	// separated list of content type patterns.
	Values map[string]string

	// Comparer performs the comparison for plugin content matchers.
	Comparer BodyComparer
}

// IsCore reports whether the entry is provided by core rather than a plugin.
func (e *CatalogueEntry) IsCore() bool {
	return e.ProviderType == ProviderCore
}

// ContentTypes returns the declared content type patterns.
func (e *CatalogueEntry) ContentTypes() []string {
	return lo.FilterMap(strings.Split(e.Values[ValueContentTypes], ","), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
}

func (e *CatalogueEntry) String() string {
	return fmt.Sprintf("%s/%s/%s", e.Type, e.PluginName, e.Key)
}

// Catalogue is the boundary to the plugin catalogue.
type Catalogue interface {
	// FindContentMatcher returns the content matcher entry declared for
	// contentType, if any.
	FindContentMatcher(contentType string) (*CatalogueEntry, bool)
}

// CoreCatalogueEntries lists the content matchers provided by core, for
// registration in a plugin catalogue.
func CoreCatalogueEntries() []*CatalogueEntry {
	core := func(key, contentTypes, implementation string) *CatalogueEntry {
		return &CatalogueEntry{
			Type:         EntryContentMatcher,
			ProviderType: ProviderCore,
			PluginName:   "core",
			Key:          key,
			Values: map[string]string{
				ValueContentTypes:   contentTypes,
				ValueImplementation: implementation,
			},
		}
	}
	return []*CatalogueEntry{
		core("xml", "application/.*xml,text/xml", string(KindXML)),
		core("json", "application/.*json,application/json-rpc,application/jsonrequest", string(KindJSON)),
		core("text", "text/plain", string(KindText)),
		core("multipart-form-data", "multipart/form-data,multipart/mixed", string(KindMultipart)),
		core("form-urlencoded", "application/x-www-form-urlencoded", string(KindForm)),
	}
}

// ContentHandlerCatalogueEntries lists the content generators provided by
// core.
func ContentHandlerCatalogueEntries() []*CatalogueEntry {
	return []*CatalogueEntry{{
		Type:         EntryContentGenerator,
		ProviderType: ProviderCore,
		PluginName:   "core",
		Key:          "json",
		Values: map[string]string{
			ValueContentTypes:   "application/.*json,application/json-rpc,application/jsonrequest",
			ValueImplementation: "json",
		},
	}}
}

type catalogueItem struct {
	entry    *CatalogueEntry
	patterns []*regexp.Regexp
}

// StaticCatalogue is an in-memory Catalogue. Entries are searched in
// registration order and plugin entries take precedence over core ones.
// Patterns that fail to compile are ignored.
type StaticCatalogue struct {
	mu    sync.RWMutex
	items []catalogueItem
}

// NewStaticCatalogue creates a catalogue holding entries.
func NewStaticCatalogue(entries ...*CatalogueEntry) *StaticCatalogue {
	c := &StaticCatalogue{}
	c.Register(entries...)
	return c
}

// Register appends entries to the catalogue.
func (c *StaticCatalogue) Register(entries ...*CatalogueEntry) {
	items := make([]catalogueItem, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		items = append(items, catalogueItem{
			entry: e,
			patterns: lo.FilterMap(e.ContentTypes(), func(p string, _ int) (*regexp.Regexp, bool) {
				re, err := compileFullMatch(p)
				return re, err == nil
			}),
		})
	}
	c.mu.Lock()
	c.items = append(c.items, items...)
	c.mu.Unlock()
}

// Entries returns the registered entries in registration order.
func (c *StaticCatalogue) Entries() []*CatalogueEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.items, func(item catalogueItem, _ int) *CatalogueEntry { return item.entry })
}

func (c *StaticCatalogue) FindContentMatcher(contentType string) (*CatalogueEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var core *CatalogueEntry
	for _, item := range c.items {
		if item.entry.Type != EntryContentMatcher || !matchesAny(item.patterns, contentType) {
			continue
		}
		if !item.entry.IsCore() {
			return item.entry, true
		}
		if core == nil {
			core = item.entry
		}
	}
	return core, core != nil
}

func matchesAny(patterns []*regexp.Regexp, contentType string) bool {
	base := model.BaseContentType(contentType)
	return lo.SomeBy(patterns, func(re *regexp.Regexp) bool {
		return re.MatchString(contentType) || re.MatchString(base)
	})
}

// compileFullMatch anchors pattern so it must match the whole input.
func compileFullMatch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// PluginMatcher delegates comparison to a plugin catalogue entry.
type PluginMatcher struct {
	Entry       *CatalogueEntry
	ContentType string
}

func (PluginMatcher) Kind() Kind { return KindPlugin }

func (m PluginMatcher) Match(expected, actual model.Body) []Mismatch {
	if m.Entry.Comparer == nil {
		return []Mismatch{{Message: fmt.Sprintf("plugin content matcher %s cannot compare bodies", m.Entry)}}
	}
	mismatches, err := m.Entry.Comparer.CompareBodies(m.ContentType, expected, actual)
	if err != nil {
		return []Mismatch{{Message: fmt.Sprintf("plugin content matcher %s failed: %v", m.Entry, err)}}
	}
	return mismatches
}
