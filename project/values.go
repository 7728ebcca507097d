package project

import "time"

// Interval is a time span with an inclusive start and exclusive end.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// TaskDependency is one entry of a depends or precedes list. TargetID keeps
// the reference as written; Target is filled when the reference resolves.
type TaskDependency struct {
	TargetID   string
	Target     *Property
	GapSeconds int64
}

// SelectModes are the resource selection policies an allocation may name,
// in declaration order. Index 0 is the default.
var SelectModes = []string{
	"order",
	"maxloaded",
	"minloaded",
	"minallocated",
	"random",
}

// SelectModeIndex validates a selection policy name.
func SelectModeIndex(name string) (int, bool) {
	for i, m := range SelectModes {
		if m == name {
			return i, true
		}
	}
	return 0, false
}

// Allocation assigns candidate resources to a task. Candidates holds the
// primary resource first, then the declared alternatives.
type Allocation struct {
	Candidates []*Property
	SelectMode int
	Persistent bool
	Mandatory  bool
}

// Booking reserves a resource for a task over fixed intervals.
type Booking struct {
	Task      *Property
	Intervals []Interval
	Overtime  int64
	Sloppy    int64
}

// Vacation is a named leave interval of a resource.
type Vacation struct {
	Name     string
	Interval Interval
}

// Reference is the value of a reference attribute: a property ID with an
// optional display label.
type Reference struct {
	Target string
	Label  string
}
