package project

import (
	"fmt"
	"io"
)

// PrintTree writes the property tree rooted at p in a box-drawing layout,
// one property per line as id "name".
func PrintTree(w io.Writer, p *Property) {
	printTree(w, p, "", "")
}

func printTree(w io.Writer, p *Property, ruledLine string, childRuledLinePrefix string) {
	if p == nil {
		return
	}

	fmt.Fprintf(w, "%v%v %#v\n", ruledLine, p.ID, p.Name)

	num := len(p.Children)
	for i, child := range p.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
