package distill

import (
	"sort"
	"strings"
)

// Document is one (path, content) pair loaded from the source
// directory during LOAD.
type Document struct {
	Path    string
	Content []byte
}

// Cluster groups documents under a single topic, produced by CLUSTER.
type Cluster struct {
	Topic string
	Paths []string
}

// DefaultKeywords is the curated keyword set CLUSTER buckets against
// when no caller-supplied list is given. It deliberately mirrors the
// kind of subject matter an agent's episodic memory tends to record.
var DefaultKeywords = []string{
	"authentication", "database", "deployment", "testing",
	"architecture", "performance", "security", "api",
	"configuration", "error", "refactoring", "migration",
}

// ClusterKeywordBucket assigns each document to at most one topic by
// greedily picking, at each step, the keyword whose still-unassigned
// matching documents form the largest bucket (larger clusters win
// ties, per §4.8), stopping once no keyword's remaining bucket meets
// cMin or cMax clusters have been produced.
func ClusterKeywordBucket(docs []Document, keywords []string, cMin, cMax int) []Cluster {
	lowered := make([]string, len(docs))
	for i, d := range docs {
		lowered[i] = strings.ToLower(string(d.Content)) + " " + strings.ToLower(d.Path)
	}

	remaining := make(map[int]bool, len(docs))
	for i := range docs {
		remaining[i] = true
	}

	var clusters []Cluster
	usedKeyword := make(map[string]bool, len(keywords))

	for len(clusters) < cMax {
		bestKeyword := ""
		var bestMatches []int

		for _, kw := range keywords {
			if usedKeyword[kw] {
				continue
			}
			var matches []int
			for i := range remaining {
				if strings.Contains(lowered[i], kw) {
					matches = append(matches, i)
				}
			}
			if len(matches) > len(bestMatches) {
				bestKeyword = kw
				bestMatches = matches
			}
		}

		if bestKeyword == "" || len(bestMatches) < cMin {
			break
		}

		var paths []string
		for _, i := range bestMatches {
			paths = append(paths, docs[i].Path)
			delete(remaining, i)
		}
		sort.Strings(paths)
		clusters = append(clusters, Cluster{Topic: bestKeyword, Paths: paths})
		usedKeyword[bestKeyword] = true
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Topic < clusters[j].Topic })
	return clusters
}
