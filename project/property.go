package project

import (
	"fmt"
	"sort"
	"strings"

	perr "github.com/planfile/planfile/error"
)

type AttributeType int

const (
	AttrDate AttributeType = iota
	AttrText
	AttrReference
	AttrNumber
	AttrDuration
	AttrBool
	AttrList
)

func (t AttributeType) String() string {
	switch t {
	case AttrDate:
		return "date"
	case AttrText:
		return "text"
	case AttrReference:
		return "reference"
	case AttrNumber:
		return "number"
	case AttrDuration:
		return "duration"
	case AttrBool:
		return "bool"
	case AttrList:
		return "list"
	}
	return "unknown"
}

// AttributeDef describes one attribute a property type accepts. Name is the
// declared identifier; its lowercased form is the keyword that appears in
// sources.
type AttributeDef struct {
	Name             string
	Label            string
	Type             AttributeType
	Inheritable      bool
	ScenarioSpecific bool
	UserDefined      bool
}

func (d *AttributeDef) Keyword() string {
	return strings.ToLower(d.Name)
}

// AttributeSchema is the set of attribute definitions of one property type.
// Built-in attributes are registered when the grammar is built; extensions
// add to it at parse time.
type AttributeSchema struct {
	defs map[string]*AttributeDef
}

func NewAttributeSchema() *AttributeSchema {
	return &AttributeSchema{
		defs: map[string]*AttributeDef{},
	}
}

func (s *AttributeSchema) Define(def *AttributeDef) error {
	kw := def.Keyword()
	if _, exists := s.defs[kw]; exists {
		return &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "duplicate_attribute",
			Message: fmt.Sprintf("attribute '%v' is already defined", def.Name),
		}
	}
	s.defs[kw] = def
	return nil
}

func (s *AttributeSchema) Lookup(keyword string) (*AttributeDef, bool) {
	def, ok := s.defs[keyword]
	return def, ok
}

func (s *AttributeSchema) Defs() []*AttributeDef {
	defs := make([]*AttributeDef, 0, len(s.defs))
	for _, def := range s.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Keyword() < defs[j].Keyword()
	})
	return defs
}

// Property is a node of a task or resource tree. Attribute values live in a
// generic table plus one table per scenario; values of inheritable attributes
// are copied from the parent when a child is created.
type Property struct {
	ID         string
	FullID     string
	Name       string
	Parent     *Property
	Children   []*Property
	SourceName string
	Row        int

	set       *PropertySet
	flags     []string
	attrs     map[string]any
	scenAttrs []map[string]any
}

// PropertySet owns all properties of one type and their ID namespace. The
// project backref, when set, lets scenario attribute lookups climb the
// scenario tree.
type PropertySet struct {
	kind    string
	schema  *AttributeSchema
	project *Project
	byID    map[string]*Property
	roots   []*Property
}

func NewPropertySet(kind string, schema *AttributeSchema) *PropertySet {
	return &PropertySet{
		kind:   kind,
		schema: schema,
		byID:   map[string]*Property{},
	}
}

func (ps *PropertySet) Kind() string {
	return ps.kind
}

func (ps *PropertySet) Schema() *AttributeSchema {
	return ps.schema
}

// Add creates a property under parent. A nil parent adds a root. The full ID
// of a child is the parent's full ID with the local ID appended.
func (ps *PropertySet) Add(parent *Property, id, name string) (*Property, error) {
	fullID := id
	if parent != nil {
		fullID = parent.FullID + "." + id
	}
	if _, exists := ps.byID[fullID]; exists {
		return nil, &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "duplicate_property",
			Message: fmt.Sprintf("%v '%v' is already defined", ps.kind, fullID),
		}
	}

	p := &Property{
		ID:     id,
		FullID: fullID,
		Name:   name,
		Parent: parent,
		set:    ps,
		attrs:  map[string]any{},
	}
	ps.byID[fullID] = p
	if parent == nil {
		ps.roots = append(ps.roots, p)
	} else {
		parent.Children = append(parent.Children, p)
		p.inheritFrom(parent)
	}
	return p, nil
}

func (ps *PropertySet) Lookup(fullID string) (*Property, bool) {
	p, ok := ps.byID[fullID]
	return p, ok
}

func (ps *PropertySet) Roots() []*Property {
	return ps.roots
}

func (ps *PropertySet) Len() int {
	return len(ps.byID)
}

// IDs returns every full ID in the set, sorted.
func (ps *PropertySet) IDs() []string {
	ids := make([]string, 0, len(ps.byID))
	for id := range ps.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve maps an ID reference to a property. Dotted IDs are absolute. A
// plain ID is tried as an absolute ID first and then as a leaf ID, which must
// be unique across the set. A reference starting with '!' is relative to
// scope: each '!' climbs one level, the remainder descends from there.
func (ps *PropertySet) Resolve(ref string, scope *Property) (*Property, error) {
	if !strings.HasPrefix(ref, "!") {
		if p, ok := ps.byID[ref]; ok {
			return p, nil
		}
		if !strings.Contains(ref, ".") {
			if p, err := ps.leafMatch(ref); p != nil || err != nil {
				return p, err
			}
		}
		return nil, ps.unknownRef(ref)
	}

	bangs := 0
	for bangs < len(ref) && ref[bangs] == '!' {
		bangs++
	}
	anchor := scope
	for i := 0; i < bangs; i++ {
		if anchor == nil {
			return nil, ps.unknownRef(ref)
		}
		anchor = anchor.Parent
	}
	rest := ref[bangs:]
	fullID := rest
	if anchor != nil {
		fullID = anchor.FullID + "." + rest
	}
	if p, ok := ps.byID[fullID]; ok {
		return p, nil
	}
	return nil, ps.unknownRef(ref)
}

func (ps *PropertySet) leafMatch(id string) (*Property, error) {
	var found *Property
	for _, p := range ps.byID {
		if p.ID != id {
			continue
		}
		if found != nil {
			return nil, &perr.Error{
				Kind:    perr.KindSemantic,
				Code:    "ambiguous_" + ps.kind,
				Message: fmt.Sprintf("%v '%v' names more than one property, use a full ID", ps.kind, id),
			}
		}
		found = p
	}
	return found, nil
}

func (ps *PropertySet) unknownRef(ref string) error {
	return &perr.Error{
		Kind:    perr.KindSemantic,
		Code:    "unknown_" + ps.kind,
		Message: fmt.Sprintf("%v '%v' is not defined", ps.kind, ref),
	}
}

func (p *Property) inheritFrom(parent *Property) {
	for _, def := range p.set.schema.Defs() {
		if !def.Inheritable {
			continue
		}
		kw := def.Keyword()
		if v, ok := parent.attrs[kw]; ok {
			p.attrs[kw] = v
		}
		for idx, tab := range parent.scenAttrs {
			if tab == nil {
				continue
			}
			if v, ok := tab[kw]; ok {
				p.setScenarioAttr(idx, kw, v)
			}
		}
	}
	p.flags = append(p.flags, parent.flags...)
}

func (p *Property) SetAttr(name string, v any) {
	p.attrs[name] = v
}

func (p *Property) Attr(name string) (any, bool) {
	v, ok := p.attrs[name]
	return v, ok
}

func (p *Property) SetScenarioAttr(scenario int, name string, v any) {
	p.setScenarioAttr(scenario, name, v)
}

func (p *Property) setScenarioAttr(scenario int, name string, v any) {
	for len(p.scenAttrs) <= scenario {
		p.scenAttrs = append(p.scenAttrs, nil)
	}
	if p.scenAttrs[scenario] == nil {
		p.scenAttrs[scenario] = map[string]any{}
	}
	p.scenAttrs[scenario][name] = v
}

// ScenarioAttr returns the value of name as seen from the given scenario:
// the scenario's own table first, then its ancestor scenarios, then the
// plain attribute table.
func (p *Property) ScenarioAttr(scenario int, name string) (any, bool) {
	if v, ok := p.ownScenarioAttr(scenario, name); ok {
		return v, true
	}
	if p.set != nil && p.set.project != nil {
		for idx := p.set.project.scenarioParent(scenario); idx >= 0; idx = p.set.project.scenarioParent(idx) {
			if v, ok := p.ownScenarioAttr(idx, name); ok {
				return v, true
			}
		}
	}
	v, ok := p.attrs[name]
	return v, ok
}

func (p *Property) ownScenarioAttr(scenario int, name string) (any, bool) {
	if scenario < len(p.scenAttrs) && p.scenAttrs[scenario] != nil {
		v, ok := p.scenAttrs[scenario][name]
		return v, ok
	}
	return nil, false
}

func (p *Property) AddFlag(flag string) {
	for _, f := range p.flags {
		if f == flag {
			return
		}
	}
	p.flags = append(p.flags, flag)
}

func (p *Property) HasFlag(flag string) bool {
	for _, f := range p.flags {
		if f == flag {
			return true
		}
	}
	return false
}

func (p *Property) Flags() []string {
	return p.flags
}

func (p *Property) IsLeaf() bool {
	return len(p.Children) == 0
}
