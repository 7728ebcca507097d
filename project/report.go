package project

import "time"

type ReportKind int

const (
	TaskReport ReportKind = iota
	ResourceReport
)

func (k ReportKind) String() string {
	switch k {
	case TaskReport:
		return "taskreport"
	case ResourceReport:
		return "resourcereport"
	}
	return "unknown"
}

// Report describes one output the project requests. Rendering is out of
// scope; the parser only records what was asked for.
type Report struct {
	Kind          ReportKind
	ID            string
	FileName      string
	Columns       []string
	Start         time.Time
	End           time.Time
	HideTask      Expr
	HideResource  Expr
	SortTasks     string
	SortResources string
}
