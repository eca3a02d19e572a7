package distill

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/kraklabs/memvcs/pkg/llm"
)

const (
	minFactLen = 20
	maxFactLen = 300
)

// Extractor turns a cluster's source documents into candidate factual
// strings (§4.8 EXTRACT).
type Extractor interface {
	Extract(ctx context.Context, cluster Cluster, docs map[string][]byte) ([]string, error)
}

var sentenceSplitter = regexp.MustCompile(`(?:\r?\n\s*[-*]\s*)|(?:[.!?]\s+)|\r?\n+`)

func splitCandidates(content string) []string {
	parts := sentenceSplitter.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HeuristicExtractor chunks each document by sentence, keeps
// candidates whose length falls in [20, 300] chars, and
// content-hash-deduplicates across the whole cluster. It requires no
// external collaborator and is the zero-configuration default.
type HeuristicExtractor struct{}

// Extract implements Extractor.
func (HeuristicExtractor) Extract(_ context.Context, cluster Cluster, docs map[string][]byte) ([]string, error) {
	seen := make(map[string]bool)
	var facts []string

	for _, path := range cluster.Paths {
		content, ok := docs[path]
		if !ok {
			continue
		}
		for _, candidate := range splitCandidates(string(content)) {
			if len(candidate) < minFactLen || len(candidate) > maxFactLen {
				continue
			}
			sum := sha256.Sum256([]byte(candidate))
			key := hex.EncodeToString(sum[:])
			if seen[key] {
				continue
			}
			seen[key] = true
			facts = append(facts, candidate)
		}
	}
	return facts, nil
}

// LLMExtractor runs the heuristic pass first to produce candidate
// facts, then asks an llm.Provider to summarize them into a tighter
// fact list. If no Provider is set, or the heuristic pass found
// nothing, it behaves exactly like HeuristicExtractor.
type LLMExtractor struct {
	Provider  llm.Provider
	Model     string
	MaxTokens int
}

// Extract implements Extractor.
func (e LLMExtractor) Extract(ctx context.Context, cluster Cluster, docs map[string][]byte) ([]string, error) {
	candidates, err := (HeuristicExtractor{}).Extract(ctx, cluster, docs)
	if err != nil {
		return nil, err
	}
	if e.Provider == nil || len(candidates) == 0 {
		return candidates, nil
	}

	messages := []llm.Message{
		{Role: "system", Content: "Summarize the following observations into a concise bulleted list of distinct factual statements, one per line."},
		{Role: "user", Content: strings.Join(candidates, "\n")},
	}
	summary, err := e.Provider.Complete(ctx, messages, llm.CompletionOptions{Model: e.Model, MaxTokens: e.MaxTokens})
	if err != nil {
		return nil, err
	}

	lines := splitCandidates(summary)
	if len(lines) == 0 {
		return candidates, nil
	}
	return lines, nil
}
