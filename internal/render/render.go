// Package render produces human-readable views of rule trees for the CLI and
// for debugging: a plain-text outline and go-pretty tables.
package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/solatis/formulatree/internal/rules"
	"github.com/solatis/formulatree/internal/types"
)

const maxWidthOfDetailColumn = 40

// Outline renders t as an indented outline, one node per line. Comparison
// branches are introduced by "then:" and "else:" lines; LOOKUP parameters are
// listed directly below their node.
func Outline(t *types.Tree, g rules.Generator) string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for _, r := range t.Roots {
		outlineNode(&sb, r, 0, g)
	}
	return sb.String()
}

func outlineNode(sb *strings.Builder, n *types.Node, depth int, g rules.Generator) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(sb, "%s#%d %s", indent, n.ID, Describe(n, g))
	if n.Comment != "" {
		fmt.Fprintf(sb, "  // %s", n.Comment)
	}
	sb.WriteString("\n")

	switch c := n.Condition.(type) {
	case types.Comparison:
		fmt.Fprintf(sb, "%s  then:\n", indent)
		for _, child := range n.TrueChildren {
			outlineNode(sb, child, depth+2, g)
		}
		if c.Else {
			fmt.Fprintf(sb, "%s  else:\n", indent)
			for _, child := range n.FalseChildren {
				outlineNode(sb, child, depth+2, g)
			}
		}
	case types.Lookup:
		for _, child := range n.TrueChildren {
			outlineNode(sb, child, depth+1, g)
		}
	}
}

// Describe summarises a single node without its children.
func Describe(n *types.Node, g rules.Generator) string {
	var prefix string
	if n.Role == types.RoleLookupParam {
		pt := string(n.Param.Type)
		if pt == "" {
			pt = "?"
		}
		if n.Param.Type != types.LookupNested {
			return fmt.Sprintf("<%s> %s", pt, n.Param.Value)
		}
		prefix = "<" + pt + "> "
	}

	switch c := n.Condition.(type) {
	case types.Comparison:
		return fmt.Sprintf("%s%s %s %s %s", prefix, n.Type(),
			rules.FormatOperand(c.Left), c.Comparator, rules.FormatOperand(c.Right))
	case types.Lookup:
		return fmt.Sprintf("%s%s (%d params)", prefix, n.Type(), len(n.TrueChildren))
	default:
		return prefix + g.Node(&types.Node{Condition: n.Computation()})
	}
}

// Table renders t as a go-pretty table with the full formula as caption.
func Table(t *types.Tree, g rules.Generator) string {
	tw := table.NewWriter()
	tw.SetTitle("\nRULE TREE\n")
	tw.AppendHeader(table.Row{"\nRow", "\nRole", "\nDetail", "\nComment"})

	t.Walk(func(n *types.Node, depth int) bool {
		tw.AppendRow(table.Row{
			fmt.Sprintf("%s%d", strings.Repeat("  ", depth), n.ID),
			string(n.Role),
			Describe(n, g),
			n.Comment,
		})
		return true
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1},
		{Number: 2},
		{Number: 3, WidthMax: maxWidthOfDetailColumn},
		{Number: 4},
	})
	tw.SetCaption("formula: %s", g.Tree(t))

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// ErrorsTable lists validation errors in key order.
func ErrorsTable(errs rules.Errors) string {
	tw := table.NewWriter()
	tw.SetTitle("\nVALIDATION ERRORS\n")
	tw.AppendHeader(table.Row{"Field", "Message"})
	for _, k := range errs.Keys() {
		tw.AppendRow(table.Row{k, errs[k]})
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}
