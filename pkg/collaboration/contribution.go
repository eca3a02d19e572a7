package collaboration

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const contributionsPath = ".mem/contributions.json"

// Contribution attributes one commit to the agent that produced it.
type Contribution struct {
	AgentID      string    `json:"agent_id"`
	CommitHash   string    `json:"commit_hash"`
	Timestamp    time.Time `json:"timestamp"`
	FilesChanged int       `json:"files_changed"`
	Message      string    `json:"message,omitempty"`
}

// ContributionTracker persists attribution at .mem/contributions.json.
type ContributionTracker struct {
	adapter storageadapter.Adapter
}

// NewContributionTracker creates a ContributionTracker over adapter.
func NewContributionTracker(adapter storageadapter.Adapter) *ContributionTracker {
	return &ContributionTracker{adapter: adapter}
}

type contributionsFile struct {
	Contributions []Contribution `json:"contributions"`
}

func (c *ContributionTracker) load() (contributionsFile, error) {
	var f contributionsFile
	if !c.adapter.Exists(contributionsPath) {
		return f, nil
	}
	data, err := c.adapter.Read(contributionsPath)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return contributionsFile{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode contributions", err)
	}
	return f, nil
}

func (c *ContributionTracker) save(f contributionsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode contributions", err)
	}
	return c.adapter.Write(contributionsPath, data)
}

// Record appends one attributed commit.
func (c *ContributionTracker) Record(contrib Contribution) error {
	f, err := c.load()
	if err != nil {
		return err
	}
	f.Contributions = append(f.Contributions, contrib)
	return c.save(f)
}

// ForAgent returns every contribution recorded for agentID, oldest
// first.
func (c *ContributionTracker) ForAgent(agentID string) ([]Contribution, error) {
	f, err := c.load()
	if err != nil {
		return nil, err
	}
	var out []Contribution
	for _, ct := range f.Contributions {
		if ct.AgentID == agentID {
			out = append(out, ct)
		}
	}
	return out, nil
}

// LeaderboardEntry is one agent's aggregate contribution count, used
// by Leaderboard.
type LeaderboardEntry struct {
	AgentID string
	Commits int
}

// Leaderboard ranks agents by contribution count, descending, capped
// at limit (0 means unbounded).
func (c *ContributionTracker) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	f, err := c.load()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, ct := range f.Contributions {
		counts[ct.AgentID]++
	}
	out := make([]LeaderboardEntry, 0, len(counts))
	for id, n := range counts {
		out = append(out, LeaderboardEntry{AgentID: id, Commits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		return out[i].AgentID < out[j].AgentID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
