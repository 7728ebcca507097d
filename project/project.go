package project

import (
	"fmt"
	"time"

	perr "github.com/planfile/planfile/error"
)

// Scenario is one node of the scenario tree, flattened into an indexed list.
// Index 0 is the first declared scenario; attribute tables are addressed by
// that index.
type Scenario struct {
	ID     string
	Name   string
	Parent *Scenario
	Index  int
}

// Project is the root object a parse fills in. It owns the scenario list,
// the attribute schemas, and the task and resource trees.
type Project struct {
	ID      string
	Name    string
	Version string
	Start   time.Time
	End     time.Time
	Now     time.Time

	Currency          string
	DailyWorkingHours float64
	YearlyWorkingDays float64
	TimingResolution  time.Duration

	Tasks     *PropertySet
	Resources *PropertySet
	Reports   []*Report

	TaskAttributes     *AttributeSchema
	ResourceAttributes *AttributeSchema

	scenarios    []*Scenario
	scenarioByID map[string]*Scenario
	flags        map[string]struct{}
}

func New() *Project {
	p := &Project{
		DailyWorkingHours: 8,
		YearlyWorkingDays: 260.714,
		TimingResolution:  time.Hour,

		TaskAttributes:     NewAttributeSchema(),
		ResourceAttributes: NewAttributeSchema(),

		scenarioByID: map[string]*Scenario{},
		flags:        map[string]struct{}{},
	}
	p.Tasks = NewPropertySet("task", p.TaskAttributes)
	p.Resources = NewPropertySet("resource", p.ResourceAttributes)
	p.Tasks.project = p
	p.Resources.project = p
	p.seedBuiltinAttributes()
	return p
}

func (p *Project) scenarioParent(idx int) int {
	if idx < 0 || idx >= len(p.scenarios) {
		return -1
	}
	if parent := p.scenarios[idx].Parent; parent != nil {
		return parent.Index
	}
	return -1
}

// seedBuiltinAttributes reserves the built-in attribute names so extensions
// cannot shadow them, and marks which ones children inherit.
func (p *Project) seedBuiltinAttributes() {
	for _, def := range []*AttributeDef{
		{Name: "Start", Type: AttrDate, ScenarioSpecific: true},
		{Name: "End", Type: AttrDate, ScenarioSpecific: true},
		{Name: "Duration", Type: AttrDuration, ScenarioSpecific: true},
		{Name: "Length", Type: AttrDuration, ScenarioSpecific: true},
		{Name: "Effort", Type: AttrDuration, ScenarioSpecific: true},
		{Name: "Complete", Type: AttrNumber, ScenarioSpecific: true},
		{Name: "Priority", Type: AttrNumber, Inheritable: true},
		{Name: "Milestone", Type: AttrBool},
		{Name: "Note", Type: AttrText},
		{Name: "Flags", Type: AttrList},
		{Name: "Depends", Type: AttrList},
		{Name: "Precedes", Type: AttrList},
		{Name: "Allocate", Type: AttrList, Inheritable: true},
		{Name: "Responsible", Type: AttrReference, Inheritable: true},
		{Name: "Task", Type: AttrList},
	} {
		p.TaskAttributes.Define(def)
	}
	for _, def := range []*AttributeDef{
		{Name: "Rate", Type: AttrNumber, Inheritable: true},
		{Name: "Efficiency", Type: AttrNumber, Inheritable: true},
		{Name: "Vacation", Type: AttrList},
		{Name: "Booking", Type: AttrList, ScenarioSpecific: true},
		{Name: "Flags", Type: AttrList},
		{Name: "Resource", Type: AttrList},
	} {
		p.ResourceAttributes.Define(def)
	}
}

// AddScenario appends a scenario under parent (nil for a root scenario).
func (p *Project) AddScenario(parent *Scenario, id, name string) (*Scenario, error) {
	if _, exists := p.scenarioByID[id]; exists {
		return nil, &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "duplicate_scenario",
			Message: fmt.Sprintf("scenario '%v' is already defined", id),
		}
	}
	sc := &Scenario{
		ID:     id,
		Name:   name,
		Parent: parent,
		Index:  len(p.scenarios),
	}
	p.scenarios = append(p.scenarios, sc)
	p.scenarioByID[id] = sc
	return sc, nil
}

// EnsureDefaultScenario seeds the conventional 'plan' scenario when the
// project header declared none.
func (p *Project) EnsureDefaultScenario() {
	if len(p.scenarios) == 0 {
		p.AddScenario(nil, "plan", "Plan")
	}
}

func (p *Project) Scenarios() []*Scenario {
	return p.scenarios
}

func (p *Project) ScenarioCount() int {
	return len(p.scenarios)
}

func (p *Project) Scenario(id string) (*Scenario, bool) {
	sc, ok := p.scenarioByID[id]
	return sc, ok
}

// ScenarioIndex resolves a scenario qualifier to its index.
func (p *Project) ScenarioIndex(id string) (int, error) {
	sc, ok := p.scenarioByID[id]
	if !ok {
		return 0, &perr.Error{
			Kind:    perr.KindSemantic,
			Code:    "unknown_scenario",
			Message: fmt.Sprintf("scenario '%v' is not defined", id),
		}
	}
	return sc.Index, nil
}

// DefineFlag declares a flag name. Properties may only set declared flags.
func (p *Project) DefineFlag(name string) {
	p.flags[name] = struct{}{}
}

func (p *Project) FlagDefined(name string) bool {
	_, ok := p.flags[name]
	return ok
}

// Attribute names the parser stores dependency lists under.
const (
	DependsAttr  = "depends"
	PrecedesAttr = "precedes"
)

// ResolveDependencies resolves every depends and precedes reference against
// the task tree, filling in the Target of each entry. Forward references are
// legal in a document, so this runs after the whole parse.
func (p *Project) ResolveDependencies() error {
	var errs perr.List
	for _, id := range p.Tasks.IDs() {
		t, _ := p.Tasks.Lookup(id)
		for _, attr := range []string{DependsAttr, PrecedesAttr} {
			v, ok := t.Attr(attr)
			if !ok {
				continue
			}
			deps, ok := v.([]*TaskDependency)
			if !ok {
				continue
			}
			for _, d := range deps {
				target, err := p.Tasks.Resolve(d.TargetID, t)
				if err != nil {
					if e, ok := err.(*perr.Error); ok {
						e.Property = t.FullID
						e.SourceName = t.SourceName
						e.Row = t.Row
						errs = append(errs, e)
						continue
					}
					return err
				}
				d.Target = target
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
