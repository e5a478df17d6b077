// Package diffutil renders unified diffs for previewing an unapplied
// changeset. Adapted from internal/util/util.go's UnifiedDiff, swapped from
// hand-rolled ANSI escapes to github.com/fatih/color for the colored
// variant.
package diffutil

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

// Unified renders a unified diff between orig and mod, labeled with
// filename, with the given line count of surrounding context.
func Unified(orig, mod, filename string, context int) (string, error) {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(orig),
		B:        difflib.SplitLines(mod),
		FromFile: filename,
		ToFile:   filename + " (modified)",
		Context:  context,
	}
	return difflib.GetUnifiedDiffString(d)
}

// Colorize paints a unified diff's +/-/@@ lines the way a terminal diff
// viewer does: green additions, red removals, cyan hunk headers.
func Colorize(unified string) string {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	lines := strings.Split(unified, "\n")
	var sb strings.Builder
	for i, l := range lines {
		if i == len(lines)-1 && l == "" {
			continue
		}
		switch {
		case strings.HasPrefix(l, "+"):
			sb.WriteString(green(l) + "\n")
		case strings.HasPrefix(l, "-"):
			sb.WriteString(red(l) + "\n")
		case strings.HasPrefix(l, "@"):
			sb.WriteString(cyan(l) + "\n")
		default:
			sb.WriteString(l + "\n")
		}
	}
	return sb.String()
}
