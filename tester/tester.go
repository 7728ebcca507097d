// Package tester runs file-driven end-to-end cases against the plan parser.
// A case file is a YAML stream; every document is one case carrying a plan
// source and its expectations, so one file holds a whole batch. A failing
// case never stops the batch.
package tester

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	perr "github.com/planfile/planfile/error"
	"github.com/planfile/planfile/project"
	"github.com/planfile/planfile/syntax"
)

// Case is one test case document.
type Case struct {
	Description string `yaml:"description"`
	Source      string `yaml:"source"`
	Expect      Expect `yaml:"expect"`
}

// Expect describes the outcome a case requires. Error names the code the
// parse must fail with; the remaining fields assert on the parsed project
// and imply that the parse must succeed.
type Expect struct {
	Error      string      `yaml:"error"`
	Tasks      []string    `yaml:"tasks"`
	Resources  []string    `yaml:"resources"`
	Attributes []AttrCheck `yaml:"attributes"`
}

// AttrCheck asserts one attribute value. Scenario selects the scenario the
// value is read through; an empty scenario reads the plain attribute table.
// Values are compared in rendered form; dates render as yyyy-mm-dd-hh:mm.
type AttrCheck struct {
	Property string `yaml:"property"`
	Scenario string `yaml:"scenario"`
	Name     string `yaml:"name"`
	Value    any    `yaml:"value"`
}

// CaseWithMetadata pairs a parsed case with its origin. Error is set when
// the case file itself could not be read or decoded.
type CaseWithMetadata struct {
	Case     *Case
	FilePath string
	Error    error
}

// Result is the outcome of one case run.
type Result struct {
	CasePath    string
	Description string
	Error       error
}

func (r *Result) String() string {
	caption := r.CasePath
	if r.Description != "" {
		caption = fmt.Sprintf("%v: %v", r.CasePath, r.Description)
	}
	if r.Error == nil {
		return fmt.Sprintf("Passed %v", caption)
	}
	const indent = "    "
	msgLines := strings.Split(r.Error.Error(), "\n")
	return fmt.Sprintf("Failed %v:\n%v%v", caption, indent, strings.Join(msgLines, "\n"+indent))
}

// ListCases collects the cases under path. A directory is walked
// recursively; only .yaml and .yml files are read. Every document of a file
// becomes one case.
func ListCases(path string) []*CaseWithMetadata {
	fi, err := os.Stat(path)
	if err != nil {
		return []*CaseWithMetadata{
			{
				FilePath: path,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		return parseCaseFile(path)
	}

	es, err := os.ReadDir(path)
	if err != nil {
		return []*CaseWithMetadata{
			{
				FilePath: path,
				Error:    err,
			},
		}
	}
	var cases []*CaseWithMetadata
	for _, e := range es {
		if !e.IsDir() {
			ext := filepath.Ext(e.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
		}
		cases = append(cases, ListCases(filepath.Join(path, e.Name()))...)
	}
	return cases
}

func parseCaseFile(path string) []*CaseWithMetadata {
	f, err := os.Open(path)
	if err != nil {
		return []*CaseWithMetadata{
			{
				FilePath: path,
				Error:    err,
			},
		}
	}
	defer f.Close()

	var cases []*CaseWithMetadata
	dec := yaml.NewDecoder(f)
	for {
		var c Case
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cases = append(cases, &CaseWithMetadata{FilePath: path, Error: err})
			break
		}
		cases = append(cases, &CaseWithMetadata{Case: &c, FilePath: path})
	}
	return cases
}

// Tester runs a batch of cases.
type Tester struct {
	Cases []*CaseWithMetadata
}

func (t *Tester) Run() []*Result {
	var rs []*Result
	for _, c := range t.Cases {
		rs = append(rs, runCase(c))
	}
	return rs
}

func runCase(c *CaseWithMetadata) *Result {
	if c.Error != nil {
		return &Result{
			CasePath: c.FilePath,
			Error:    c.Error,
		}
	}
	r := &Result{
		CasePath:    c.FilePath,
		Description: c.Case.Description,
	}

	// The case path names the source, so include statements resolve
	// relative to the case file.
	proj, err := syntax.Parse(c.FilePath, strings.NewReader(c.Case.Source))
	if want := c.Case.Expect.Error; want != "" {
		r.Error = checkError(want, err)
		return r
	}
	if err != nil {
		r.Error = err
		return r
	}
	r.Error = checkProject(proj, &c.Case.Expect)
	return r
}

func checkError(want string, err error) error {
	if err == nil {
		return fmt.Errorf("expected error '%v', but the source parsed", want)
	}
	if codeListed(want, err) {
		return nil
	}
	return fmt.Errorf("expected error '%v', got: %v", want, err)
}

func codeListed(want string, err error) bool {
	var list perr.List
	if errors.As(err, &list) {
		for _, e := range list {
			if e.Code == want {
				return true
			}
		}
		return false
	}
	return perr.CodeOf(err) == want
}

func checkProject(proj *project.Project, want *Expect) error {
	for _, id := range want.Tasks {
		if _, ok := proj.Tasks.Lookup(id); !ok {
			return fmt.Errorf("task '%v' was not defined; got %v", id, proj.Tasks.IDs())
		}
	}
	for _, id := range want.Resources {
		if _, ok := proj.Resources.Lookup(id); !ok {
			return fmt.Errorf("resource '%v' was not defined; got %v", id, proj.Resources.IDs())
		}
	}
	for _, chk := range want.Attributes {
		if err := checkAttr(proj, &chk); err != nil {
			return err
		}
	}
	return nil
}

func checkAttr(proj *project.Project, chk *AttrCheck) error {
	prop, ok := proj.Tasks.Lookup(chk.Property)
	if !ok {
		prop, ok = proj.Resources.Lookup(chk.Property)
	}
	if !ok {
		return fmt.Errorf("property '%v' was not defined", chk.Property)
	}

	var v any
	if chk.Scenario == "" {
		v, ok = prop.Attr(chk.Name)
	} else {
		idx, err := proj.ScenarioIndex(chk.Scenario)
		if err != nil {
			return err
		}
		v, ok = prop.ScenarioAttr(idx, chk.Name)
	}
	if !ok {
		return fmt.Errorf("attribute '%v' of '%v' is not set", chk.Name, chk.Property)
	}

	got := renderValue(v)
	wanted := renderValue(chk.Value)
	if got != wanted {
		return fmt.Errorf("attribute '%v' of '%v' is %v, want %v", chk.Name, chk.Property, got, wanted)
	}
	return nil
}

// renderValue normalizes a value for comparison across the YAML and project
// model representations.
func renderValue(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.Format("2006-01-02-15:04")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
