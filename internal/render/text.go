package render

import (
	"fmt"
	"strings"

	"github.com/gorewood/ambient/internal/repostatus"
	"github.com/gorewood/ambient/internal/toolprobe"
)

// Tag wraps the plain text block.
const Tag = "workspace_context"

// Text renders the snapshot as a tagged text block, or "" when there are
// no repositories and no tools.
func Text(s Snapshot) string {
	if len(s.Repositories) == 0 && len(s.Tools) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>\n", Tag)

	if len(s.Repositories) > 0 {
		writeRepositories(&b, s.Repositories)
	}
	if len(s.Tools) > 0 {
		if len(s.Repositories) > 0 {
			b.WriteString("\n")
		}
		writeTools(&b, s.Tools)
	}

	fmt.Fprintf(&b, "</%s>", Tag)
	return b.String()
}

func writeRepositories(b *strings.Builder, statuses []repostatus.Status) {
	b.WriteString("## Repositories\n")
	for _, st := range statuses {
		fmt.Fprintf(b, "- %s: on %s (default %s)", st.Path, st.CurrentBranch, st.DefaultBranch)
		switch {
		case st.UncommittedUnknown:
			b.WriteString(", working tree state unknown")
		case st.UncommittedChanges:
			b.WriteString(", uncommitted changes")
		default:
			b.WriteString(", clean")
		}
		b.WriteString(", " + describeBehind(st.CommitsBehind, st.DefaultBranch))
		b.WriteString("\n")
	}
}

func describeBehind(behind repostatus.Behind, branch string) string {
	n, ok := behind.Count()
	switch {
	case !ok:
		return "behind " + branch + " unknown"
	case n == 0:
		return "up to date with " + branch
	case n == 1:
		return "1 commit behind " + branch
	default:
		return fmt.Sprintf("%d commits behind %s", n, branch)
	}
}

func writeTools(b *strings.Builder, tools []toolprobe.Availability) {
	b.WriteString("## Tools\n")
	for i, tool := range tools {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "### %s (`%s`)", tool.DisplayName, tool.CommandName)
		if !tool.Available {
			b.WriteString(" [not installed]")
		}
		b.WriteString("\n")
		if tool.Description != "" {
			b.WriteString(tool.Description + "\n")
		}
		if tool.WhenToUse != "" {
			b.WriteString("When to use: " + tool.WhenToUse + "\n")
		}
		if tool.Instructions != "" {
			b.WriteString(strings.TrimSpace(tool.Instructions) + "\n")
		}
	}
}
