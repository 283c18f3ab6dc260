// Package docs supplies the documentation injected into generated façades.
//
// A Provider answers one question per declaration, "what comment goes
// here?", and afterwards reports what it knew about that the generator never
// asked for. The YAML-backed provider reads a document of the form:
//
//	classes:
//	  Page:
//	    comment: A single tab.
//	    events:
//	      - name: close
//	        type: Page
//	        comment: Emitted when the page closes.
//	    members:
//	      Goto:
//	        comment: Navigates to url.
//	        params:
//	          url: URL to navigate to.
package docs

import (
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rebrowser/syncgen/pkg/ast"
	"github.com/rebrowser/syncgen/pkg/errors"
)

// Provider is the documentation source consulted by the generator.
type Provider interface {
	// Entry returns the comment lines for a member. A member with no entry
	// is a MissingDocumentationError.
	Entry(class, member string, hints Hints, isProperty bool) ([]string, error)
	// Events returns the comment lines for a class, including the events it
	// emits. Unknown classes have none.
	Events(class string) []string
	// Remainder returns one line per documented item that was never asked
	// for. Call it after generation.
	Remainder() []string
}

// Param is one declared parameter of a member, in declaration order.
type Param struct {
	Name string
	Type *ast.TypeRef
}

// Hints are the declared types of a member.
type Hints struct {
	Params []Param
	Return *ast.TypeRef
}

// HintsFor builds the hints of a metadata member.
func HintsFor(m *ast.Member) Hints {
	if m.Kind == ast.KindProperty {
		return Hints{Return: m.Type}
	}
	h := Hints{Return: m.Returns}
	for _, p := range m.Params {
		h.Params = append(h.Params, Param{Name: p.Name, Type: p.Type})
	}
	return h
}

// Document is the decoded documentation file.
type Document struct {
	Classes map[string]*Class `yaml:"classes"`
}

// Class documents one class.
type Class struct {
	Comment string             `yaml:"comment"`
	Events  []Event            `yaml:"events"`
	Members map[string]*Member `yaml:"members"`
}

// Event documents one event a class emits.
type Event struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Comment string `yaml:"comment"`
}

// Member documents one property or method.
type Member struct {
	Comment string            `yaml:"comment"`
	Params  map[string]string `yaml:"params"`
}

// Load reads a YAML documentation file.
func Load(path string) (Provider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening documentation %s", path)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "documentation %s", path)
	}
	return p, nil
}

// Parse decodes a YAML documentation document. Unknown keys are rejected.
func Parse(r io.Reader) (Provider, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decoding documentation")
	}
	return Static(doc.Classes), nil
}

// Static returns a provider over in-memory documentation.
func Static(classes map[string]*Class) Provider {
	if classes == nil {
		classes = map[string]*Class{}
	}
	return &provider{
		classes: classes,
		used:    make(map[string]map[string]bool),
		stale:   make(map[string]bool),
	}
}

type provider struct {
	classes map[string]*Class
	used    map[string]map[string]bool // class -> member -> asked for
	stale   map[string]bool            // documented parameters the member does not declare
}

func (p *provider) markClass(class string) map[string]bool {
	u, ok := p.used[class]
	if !ok {
		u = make(map[string]bool)
		p.used[class] = u
	}
	return u
}

func (p *provider) Entry(class, member string, hints Hints, isProperty bool) ([]string, error) {
	c, ok := p.classes[class]
	if !ok {
		return nil, errors.WithStack(&errors.MissingDocumentationError{Class: class, Member: member})
	}
	key, m := c.lookup(member)
	if m == nil {
		return nil, errors.WithStack(&errors.MissingDocumentationError{Class: class, Member: member})
	}
	p.markClass(class)[key] = true

	lines := splitLines(m.Comment)
	if isProperty {
		return lines, nil
	}

	declared := make(map[string]bool, len(hints.Params))
	var params []string
	for _, hp := range hints.Params {
		declared[hp.Name] = true
		note, ok := m.Params[hp.Name]
		if !ok {
			continue
		}
		noteLines := splitLines(note)
		if len(noteLines) == 0 {
			continue
		}
		params = append(params, "  - "+hp.Name+": "+noteLines[0])
		for _, l := range noteLines[1:] {
			params = append(params, "    "+l)
		}
	}
	for name := range m.Params {
		if !declared[name] {
			p.stale[class+"."+key+"("+name+")"] = true
		}
	}
	if len(params) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "Parameters:")
		lines = append(lines, params...)
	}
	return lines, nil
}

// lookup finds a member entry by exact name, then case-insensitively so
// snake_case documentation keys match exported Go names.
func (c *Class) lookup(member string) (string, *Member) {
	if m, ok := c.Members[member]; ok && m != nil {
		return member, m
	}
	want := normalize(member)
	for _, k := range sortedKeys(c.Members) {
		if normalize(k) == want && c.Members[k] != nil {
			return k, c.Members[k]
		}
	}
	return "", nil
}

func normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

func (p *provider) Events(class string) []string {
	c, ok := p.classes[class]
	if !ok {
		return nil
	}
	p.markClass(class)

	lines := splitLines(c.Comment)
	if len(c.Events) == 0 {
		return lines
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, "Events:")
	for _, ev := range c.Events {
		line := "  - " + ev.Name
		if ev.Type != "" {
			line += " (" + ev.Type + ")"
		}
		if ev.Comment != "" {
			line += ": " + strings.TrimSpace(ev.Comment)
		}
		lines = append(lines, line)
	}
	return lines
}

func (p *provider) Remainder() []string {
	var out []string
	for _, class := range sortedKeys(p.classes) {
		used, ok := p.used[class]
		if !ok {
			out = append(out, "Class not implemented: "+class)
			continue
		}
		c := p.classes[class]
		for _, member := range sortedKeys(c.Members) {
			if !used[member] {
				out = append(out, "Method not implemented: "+class+"."+member)
			}
		}
	}
	for _, param := range sortedKeys(p.stale) {
		out = append(out, "Parameter not implemented: "+param)
	}
	return out
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Permissive wraps p so that undocumented members get an empty comment
// instead of failing generation.
func Permissive(p Provider) Provider {
	return permissive{p}
}

type permissive struct {
	Provider
}

func (p permissive) Entry(class, member string, hints Hints, isProperty bool) ([]string, error) {
	lines, err := p.Provider.Entry(class, member, hints, isProperty)
	if errors.Is(err, errors.ErrMissingDocumentation) {
		return nil, nil
	}
	return lines, err
}
