package research

import (
	"fmt"
	"strings"
	"time"
)

// RenderReport renders a plain markdown report from learnings and
// sources. The CLI entry point uses it to print results without going
// through the protocol layer; the dispatcher uses it as the fallback
// body when the engine returns neither content nor a readable report
// file.
func RenderReport(query string, learnings, visitedURLs []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Research Report: %s\n\n", query)
	fmt.Fprintf(&sb, "_Generated %s_\n\n", time.Now().UTC().Format(time.RFC3339))

	sb.WriteString("## Learnings\n\n")
	if len(learnings) == 0 {
		sb.WriteString("No learnings were produced for this query.\n")
	}
	for i, l := range learnings {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l)
	}

	sb.WriteString("\n## Sources\n\n")
	if len(visitedURLs) == 0 {
		sb.WriteString("No sources were visited.\n")
	}
	for _, u := range visitedURLs {
		fmt.Fprintf(&sb, "- %s\n", u)
	}

	return sb.String()
}
