// Package config holds the generation policy: the fixed lookup tables and
// naming conventions the class emitter consults. The built-in defaults match
// the upstream generator; a TOML file can override any of them.
package config

import (
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/rebrowser/syncgen/pkg/errors"
)

// InternalPolicy decides what happens to internal members that are not on
// the allow-list.
type InternalPolicy string

const (
	// InternalSkip drops them silently.
	InternalSkip InternalPolicy = "skip"
	// InternalReport drops them and records each one in the generation result.
	InternalReport InternalPolicy = "report"
)

// DefaultRuntimeImport is the runtime package generated façades link against.
const DefaultRuntimeImport = "github.com/rebrowser/syncgen/pkg/runtime"

// Policy is the generation policy.
type Policy struct {
	InternalMarker string `toml:"internal_marker"`
	ImplSuffix     string `toml:"impl_suffix"`

	// Façade base lookup: classes listed here get the context-manager base,
	// bases listed in GenericBases get the generic base, anything else passes
	// its base class through.
	ContextManagerClasses []string `toml:"context_manager_classes"`
	GenericBases          []string `toml:"generic_bases"`

	AssertionClasses    []string          `toml:"assertion_classes"`
	ExcludedMethods     []string          `toml:"excluded_methods"`
	EventHelperPatterns []string          `toml:"event_helper_patterns"`
	AllowWithoutDocs    map[string]string `toml:"allow_without_docs"` // internal name -> façade name
	InternalPolicy      InternalPolicy    `toml:"internal_policy"`
	RequireDocs         bool              `toml:"require_docs"`
	RuntimeImport       string            `toml:"runtime_import"`

	eventPatterns []*regexp.Regexp
}

// Default returns the built-in policy.
func Default() *Policy {
	p := &Policy{
		InternalMarker:        "_",
		ImplSuffix:            "Impl",
		ContextManagerClasses: []string{"Page", "BrowserContext", "Browser"},
		GenericBases:          []string{"ChannelOwner", "object", "AssertionsBase", ""},
		AssertionClasses:      []string{"LocatorAssertions", "PageAssertions", "APIResponseAssertions"},
		ExcludedMethods:       []string{"remove_listener", "RemoveListener"},
		EventHelperPatterns:   []string{`(?i)^expect_?[a-z]`, `(?i)^wait_?for_?event$`},
		AllowWithoutDocs:      map[string]string{"__getitem__": "Nth"},
		InternalPolicy:        InternalSkip,
		RequireDocs:           true,
		RuntimeImport:         DefaultRuntimeImport,
	}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

// Load overlays the TOML file at path on the defaults. Keys the policy does
// not know are an error.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading policy %s", path)
	}
	return Parse(string(data))
}

// Parse overlays TOML text on the defaults.
func Parse(text string) (*Policy, error) {
	p := Default()
	meta, err := toml.Decode(text, p)
	if err != nil {
		return nil, errors.Wrap(err, "decoding policy")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.WithHint(
			errors.Newf("unknown policy key %q", undecoded[0].String()),
			"see config.Policy for the supported keys")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the enumerations and compiles the event helper patterns.
func (p *Policy) Validate() error {
	switch p.InternalPolicy {
	case InternalSkip, InternalReport:
	default:
		return errors.Newf("internal_policy must be %q or %q, got %q", InternalSkip, InternalReport, p.InternalPolicy)
	}
	if p.ImplSuffix == "" {
		return errors.New("impl_suffix must not be empty")
	}
	if p.RuntimeImport == "" {
		return errors.New("runtime_import must not be empty")
	}
	p.eventPatterns = p.eventPatterns[:0]
	for _, expr := range p.EventHelperPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return errors.Wrapf(err, "event_helper_patterns entry %q", expr)
		}
		p.eventPatterns = append(p.eventPatterns, re)
	}
	return nil
}

// EventPatterns returns the compiled event helper patterns.
func (p *Policy) EventPatterns() []*regexp.Regexp {
	return p.eventPatterns
}

// BaseKind is one of the three façade base outcomes.
type BaseKind int

const (
	BaseContextManager BaseKind = iota
	BaseGeneric
	BasePassThrough
)

// FacadeBase resolves the façade base for a class from the lookup table.
func (p *Policy) FacadeBase(className, baseName string) BaseKind {
	if contains(p.ContextManagerClasses, className) {
		return BaseContextManager
	}
	if contains(p.GenericBases, baseName) {
		return BaseGeneric
	}
	return BasePassThrough
}

// IsAssertionClass reports whether method bodies of the class carry the
// traceback-hiding marker.
func (p *Policy) IsAssertionClass(className string) bool {
	return contains(p.AssertionClasses, className)
}

// IsExcluded reports whether a method is never emitted.
func (p *Policy) IsExcluded(name string) bool {
	return contains(p.ExcludedMethods, name)
}

// AllowedInternal returns the façade name for an allow-listed internal member.
func (p *Policy) AllowedInternal(name string) (string, bool) {
	facade, ok := p.AllowWithoutDocs[name]
	return facade, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
