package doc

import (
	"fmt"
	"sort"
	"strings"
)

const (
	renderWidth = 79
	labelWidth  = 13
)

// Render formats the entry as fixed-width reference text. Labels occupy the
// left column; body text wraps inside the remaining width without ever
// splitting a word. Attribute keywords whose entries are scenario specific
// carry a [sc:] prefix.
func (ref *Reference) Render(e *Entry) string {
	var sections []string

	head := fmt.Sprintf("%v (scenario specific: %v, inheritable: %v)",
		e.Keyword, yesNo(e.ScenarioSpecific), yesNo(e.Inheritable))
	sections = append(sections,
		section("Keyword:", head),
		section("Purpose:", e.Purpose),
		section("Syntax:", e.Syntax),
		argSection(e.Args),
	)

	context := "Global scope"
	if len(e.Contexts) > 0 {
		context = joinKeywords(e.Contexts, false)
	}
	sections = append(sections, section("Context:", context))

	if len(e.OptionalAttributes) > 0 {
		sections = append(sections, section("Attributes:", joinKeywords(e.OptionalAttributes, true)))
	}
	if len(e.SeeAlso) > 0 {
		sections = append(sections, section("See also:", joinKeywords(e.SeeAlso, false)))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// joinKeywords renders a sorted, comma-separated keyword list. With markers
// enabled, scenario-specific entries are prefixed [sc:].
func joinKeywords(entries []*Entry, markers bool) string {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Keyword < sorted[j].Keyword
	})
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.Keyword
		if markers && e.ScenarioSpecific {
			names[i] = "[sc:]" + e.Keyword
		}
	}
	return strings.Join(names, ", ")
}

// section lays out one labeled block: the label padded to the left column on
// the first line, continuation lines indented under the body.
func section(label, text string) string {
	return block(label, wrap(text, renderWidth-labelWidth))
}

func block(label string, lines []string) string {
	var b strings.Builder
	for i, ln := range lines {
		if i > 0 {
			b.WriteString("\n")
			label = ""
		}
		fmt.Fprintf(&b, "%-*v%v", labelWidth, label, ln)
	}
	return b.String()
}

// argSection lays out the argument blocks. Each argument hangs its
// description under its name; a "see:" argument renders as a pointer to the
// referenced keyword.
func argSection(args []Arg) string {
	if len(args) == 0 {
		return section("Arguments:", "none")
	}
	var blocks []string
	for i, a := range args {
		label := ""
		if i == 0 {
			label = "Arguments:"
		}
		text := a.Text
		if a.Ref != nil {
			text = "see " + a.Ref.Keyword
		}
		name := a.Name + ": "
		lines := wrap(text, renderWidth-labelWidth-len(name))
		indented := make([]string, len(lines))
		for j, ln := range lines {
			if j == 0 {
				indented[j] = name + ln
			} else {
				indented[j] = strings.Repeat(" ", len(name)) + ln
			}
		}
		blocks = append(blocks, block(label, indented))
	}
	return strings.Join(blocks, "\n")
}

// wrap word-wraps text to width. Words never split; a word longer than the
// width keeps its own overlong line. Embedded newlines restart the wrap.
func wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}
