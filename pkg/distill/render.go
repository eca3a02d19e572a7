package distill

import (
	"fmt"
	"strings"
	"time"
)

const consolidatedSchemaVersion = 1

// renderConsolidated formats one cluster's surviving facts into a
// consolidated markdown file with a metadata header (§4.8 WRITE).
func renderConsolidated(topic string, facts []string, sourceAgentID string, now time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "schema_version: %d\n", consolidatedSchemaVersion)
	fmt.Fprintf(&b, "generated_at: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "tags: [%s]\n", topic)
	fmt.Fprintf(&b, "source_agent_id: %s\n", sourceAgentID)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", titleCase(strings.ReplaceAll(topic, "-", " ")))
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
