package session

import (
	"fmt"
	"strings"
)

const maxObservationsPerTopicSection = 5
const maxTimelineEntries = 10

// RenderSummary templates a session's buffered observations into the
// markdown file committed under current/episodic/sessions/ (§4.9, the
// original's _generate_session_content): a frontmatter header, an
// activity-by-topic breakdown, and a recent-timeline tail.
func RenderSummary(s Session) string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "session_id: %q\n", s.ID)
	fmt.Fprintf(&b, "started_at: %q\n", s.StartedAt.UTC().Format(rfc3339))
	fmt.Fprintf(&b, "observation_count: %d\n", len(s.Observations))
	fmt.Fprintf(&b, "topics: [%s]\n", strings.Join(topicKeysInOrder(s.Topics), ", "))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# Session %s\n\n", s.ID)

	if len(s.Topics) > 0 {
		b.WriteString("## Activity by Topic\n\n")
		for _, topic := range topicKeysInOrder(s.Topics) {
			fmt.Fprintf(&b, "### %s\n\n", titleCaseTopic(topic))
			obsByID := make(map[string]Observation, len(s.Observations))
			for _, o := range s.Observations {
				obsByID[o.ID] = o
			}
			ids := s.Topics[Topic(topic)]
			shown := ids
			if len(shown) > maxObservationsPerTopicSection {
				shown = shown[:maxObservationsPerTopicSection]
			}
			for _, id := range shown {
				o, ok := obsByID[id]
				if !ok {
					continue
				}
				fmt.Fprintf(&b, "- [%s] `%s`\n", o.Timestamp.UTC().Format("15:04:05"), o.ToolName)
			}
			if len(ids) > maxObservationsPerTopicSection {
				fmt.Fprintf(&b, "- ... and %d more\n", len(ids)-maxObservationsPerTopicSection)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Timeline\n\n")
	start := 0
	if len(s.Observations) > maxTimelineEntries {
		start = len(s.Observations) - maxTimelineEntries
	}
	for _, o := range s.Observations[start:] {
		fmt.Fprintf(&b, "- [%s] `%s`: %s\n", o.Timestamp.UTC().Format("15:04:05"), o.ToolName, truncateArgs(o.Arguments, 80))
	}

	return b.String()
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

func topicKeysInOrder(topics map[Topic][]string) []string {
	var keys []string
	for _, p := range topicPatterns {
		if _, ok := topics[p.topic]; ok {
			keys = append(keys, string(p.topic))
		}
	}
	if _, ok := topics[TopicGeneral]; ok {
		keys = append(keys, string(TopicGeneral))
	}
	return keys
}

func titleCaseTopic(topic string) string {
	words := strings.Split(topic, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncateArgs(args map[string]string, limit int) string {
	var parts []string
	n := 0
	for k, v := range args {
		if n >= 2 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		n++
	}
	s := strings.Join(parts, ", ")
	if len(s) > limit {
		s = s[:limit]
	}
	return s
}

// GenerateCommitMessage templates the commit message for a session
// flush, grounded on the original's _generate_commit_message.
func GenerateCommitMessage(s Session) string {
	obsCount := len(s.Observations)
	topics := topicKeysInOrder(s.Topics)

	switch {
	case len(topics) == 0:
		return fmt.Sprintf("session: %d observations", obsCount)
	case len(topics) == 1:
		return fmt.Sprintf("session: %d observations (%s)", obsCount, topics[0])
	case len(topics) <= 3:
		return fmt.Sprintf("session: %d observations (%s)", obsCount, strings.Join(topics, ", "))
	default:
		return fmt.Sprintf("session: %d observations across %d topics", obsCount, len(topics))
	}
}
