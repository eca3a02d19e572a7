package distill

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path"
	"strconv"
	"time"

	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/metrics"
	"github.com/kraklabs/memvcs/pkg/privacy"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

// State names one step of the distillation state machine (§4.8):
// IDLE -> LOAD -> CLUSTER -> [BRANCH?] -> EXTRACT -> SAMPLE -> WRITE
// -> ARCHIVE -> COMMIT -> DONE, with ABORT on privacy denial or an
// unrecoverable IO failure.
type State string

const (
	StateIdle    State = "idle"
	StateLoad    State = "load"
	StateCluster State = "cluster"
	StateBranch  State = "branch"
	StateExtract State = "extract"
	StateSample  State = "sample"
	StateWrite   State = "write"
	StateArchive State = "archive"
	StateCommit  State = "commit"
	StateDone    State = "done"
	StateAborted State = "aborted"
)

// Options configures one distillation run.
type Options struct {
	SourceDir        string
	TargetDir        string
	Keywords         []string
	ClusterMin       int
	ClusterMax       int
	SafetyBranchMode bool
	DPEnabled        bool
	Epsilon          float64
	Delta            float64
	SourceAgentID    string
}

// withDefaults fills in the same defaults §4.8 names.
func (o Options) withDefaults() Options {
	if o.SourceDir == "" {
		o.SourceDir = "episodic"
	}
	if o.TargetDir == "" {
		o.TargetDir = "semantic/consolidated"
	}
	if len(o.Keywords) == 0 {
		o.Keywords = DefaultKeywords
	}
	if o.ClusterMin <= 0 {
		o.ClusterMin = 3
	}
	if o.ClusterMax <= 0 {
		o.ClusterMax = 20
	}
	if o.Delta <= 0 {
		o.Delta = 1e-5
	}
	if o.Epsilon <= 0 {
		o.Epsilon = 0.1
	}
	return o
}

// RunResult summarizes one completed or aborted run.
type RunResult struct {
	State             State
	ClustersProcessed int
	FactsWritten      int
	WrittenFiles      []string
	CommitHash        string
}

// Engine runs the distillation pipeline against a Repository.
type Engine struct {
	adapter    storageadapter.Adapter
	repository *repo.Repository
	accountant *privacy.Accountant
	extractor  Extractor
	now        func() time.Time
}

// New creates an Engine. accountant may be nil if DP sampling will
// never be enabled for any run through this Engine.
func New(adapter storageadapter.Adapter, repository *repo.Repository, accountant *privacy.Accountant, extractor Extractor) *Engine {
	if extractor == nil {
		extractor = HeuristicExtractor{}
	}
	return &Engine{adapter: adapter, repository: repository, accountant: accountant, extractor: extractor, now: func() time.Time { return time.Now().UTC() }}
}

// Run executes one full pipeline pass. A privacy-budget denial aborts
// the entire run before any WRITE; an IO failure scoped to a single
// cluster during EXTRACT or WRITE is logged and that cluster is
// skipped, mirroring the reconciliation loop's per-item failure
// tolerance.
func (e *Engine) Run(ctx context.Context, opts Options) (*RunResult, error) {
	opts = opts.withDefaults()
	timer := metrics.NewTimer()
	logger := log.WithComponent("distill")

	docs, err := e.load(opts.SourceDir)
	if err != nil {
		return e.abort(err)
	}
	if len(docs) == 0 {
		metrics.DistillRunsTotal.WithLabelValues("done").Inc()
		return &RunResult{State: StateDone}, nil
	}

	clusters := ClusterKeywordBucket(docs, opts.Keywords, opts.ClusterMin, opts.ClusterMax)
	if len(clusters) == 0 {
		metrics.DistillRunsTotal.WithLabelValues("done").Inc()
		return &RunResult{State: StateDone}, nil
	}

	if opts.SafetyBranchMode {
		branchName := "auto-distill/" + e.now().Format("2006-01-02")
		if err := e.createSafetyBranch(branchName); err != nil {
			return e.abort(err)
		}
	}

	docByPath := make(map[string][]byte, len(docs))
	for _, d := range docs {
		docByPath[d.Path] = d.Content
	}

	factsByTopic := make(map[string][]string)
	var processed []Cluster
	for _, c := range clusters {
		clusterDocs := make(map[string][]byte, len(c.Paths))
		for _, p := range c.Paths {
			clusterDocs[p] = docByPath[p]
		}
		facts, err := e.extractor.Extract(ctx, c, clusterDocs)
		if err != nil {
			logger.Error().Err(err).Str("topic", c.Topic).Msg("extract failed for cluster, skipping")
			continue
		}
		if len(facts) == 0 {
			continue
		}
		factsByTopic[c.Topic] = facts
		processed = append(processed, c)
	}

	if opts.DPEnabled {
		if err := e.sample(factsByTopic, opts); err != nil {
			return e.abort(err)
		}
	}

	var written []string
	factsTotal := 0
	for _, c := range processed {
		facts := factsByTopic[c.Topic]
		if len(facts) == 0 {
			continue
		}
		filename := fmt.Sprintf("consolidated-%s-%s.md", sanitizeTopic(c.Topic), e.now().Format("20060102"))
		targetRel := path.Join(opts.TargetDir, filename)
		content := renderConsolidated(c.Topic, facts, opts.SourceAgentID, e.now())
		if err := e.adapter.Write(path.Join("current", targetRel), []byte(content)); err != nil {
			logger.Error().Err(err).Str("topic", c.Topic).Msg("write failed for cluster, skipping")
			continue
		}
		written = append(written, targetRel)
		factsTotal += len(facts)
	}

	archiveDir := newArchiveDir(e.now())
	for _, d := range docs {
		if err := archiveFile(e.adapter, d.Path, archiveDir); err != nil {
			logger.Error().Err(err).Str("path", d.Path).Msg("archive failed for source file")
		}
	}

	for _, w := range written {
		if err := e.repository.Add(w); err != nil {
			return e.abort(err)
		}
	}

	message := fmt.Sprintf("distiller: consolidated %d facts from %d episodes", factsTotal, len(docs))
	metadata := map[string]string{"distiller": "true", "clusters": strconv.Itoa(len(written))}
	commitHash, err := e.repository.Commit(message, metadata)
	if err != nil {
		return e.abort(err)
	}

	metrics.DistillRunsTotal.WithLabelValues("done").Inc()
	metrics.DistillClustersTotal.Observe(float64(len(written)))
	metrics.DistillFactsExtractedTotal.Add(float64(factsTotal))
	timer.ObserveDuration(metrics.DistillRunDuration)

	return &RunResult{
		State:             StateDone,
		ClustersProcessed: len(written),
		FactsWritten:      factsTotal,
		WrittenFiles:      written,
		CommitHash:        commitHash,
	}, nil
}

func (e *Engine) abort(err error) (*RunResult, error) {
	metrics.DistillRunsTotal.WithLabelValues("aborted").Inc()
	return &RunResult{State: StateAborted}, err
}

func (e *Engine) load(sourceDir string) ([]Document, error) {
	root := path.Join("current", sourceDir)
	if !e.adapter.IsDir(root) {
		return nil, nil
	}
	paths, err := e.listFiles(root)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		content, err := e.adapter.Read(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: p, Content: content})
	}
	return docs, nil
}

func (e *Engine) listFiles(dir string) ([]string, error) {
	entries, err := e.adapter.List(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir {
			nested, err := e.listFiles(entry.Path)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, entry.Path)
	}
	return out, nil
}

func (e *Engine) createSafetyBranch(name string) error {
	headHash, err := e.repository.Refs().Resolve("HEAD")
	if err != nil {
		if errors.Is(err, memerrs.ErrNotFound) {
			// Nothing committed yet: the upcoming commit will be the
			// branch's first, so there is nothing to isolate from.
			return nil
		}
		return err
	}
	if !e.repository.Refs().BranchExists(name) {
		if err := e.repository.CreateBranch(name, headHash, "distiller"); err != nil {
			return err
		}
	}
	return e.repository.Checkout(name, false)
}

// sample applies the (ε,δ)-DP mechanism to each cluster's fact count
// (§4.8 SAMPLE): a privacy denial for any cluster aborts the whole
// run, since no WRITE has happened yet.
func (e *Engine) sample(factsByTopic map[string][]string, opts Options) error {
	if e.accountant == nil {
		return memerrs.Wrap(memerrs.ErrConfig, "DP sampling requested but no privacy accountant is configured", nil)
	}

	for topic, facts := range factsByTopic {
		if len(facts) == 0 {
			continue
		}
		ok, err := e.accountant.Spend(opts.Epsilon)
		if err != nil {
			return err
		}
		if !ok {
			metrics.PrivacySpendDeniedTotal.Inc()
			return memerrs.Wrap(memerrs.ErrPrivacyBudgetExceeded, "distillation privacy budget exceeded", nil)
		}

		noisy := privacy.Noise(float64(len(facts)), 1, opts.Epsilon, opts.Delta)
		k := int(math.Round(noisy))
		if k < 1 {
			k = 1
		}
		if k > len(facts) {
			k = len(facts)
		}
		factsByTopic[topic] = sampleWithoutReplacement(facts, k)
	}
	return nil
}

// sampleWithoutReplacement uniformly shuffles facts and keeps the
// first k, without a deterministic seed (§4.8 forbids one).
func sampleWithoutReplacement(facts []string, k int) []string {
	shuffled := make([]string, len(facts))
	copy(shuffled, facts)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:k]
}
