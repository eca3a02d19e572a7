package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kraklabs/memvcs/pkg/collaboration"
	"github.com/kraklabs/memvcs/pkg/compliance"
	"github.com/kraklabs/memvcs/pkg/config"
	"github.com/kraklabs/memvcs/pkg/confidence"
	"github.com/kraklabs/memvcs/pkg/crypto"
	"github.com/kraklabs/memvcs/pkg/distill"
	"github.com/kraklabs/memvcs/pkg/health"
	"github.com/kraklabs/memvcs/pkg/llm"
	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/merkle"
	"github.com/kraklabs/memvcs/pkg/metrics"
	"github.com/kraklabs/memvcs/pkg/objectstore"
	"github.com/kraklabs/memvcs/pkg/privacy"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/session"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Exit codes per §6: 0 success, 1 generic failure, 2 privacy-budget
// exceeded.
const (
	exitOK               = 0
	exitGenericFailure   = 1
	exitPrivacyExceeded  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, memerrs.ErrPrivacyBudgetExceeded) {
			os.Exit(exitPrivacyExceeded)
		}
		os.Exit(exitGenericFailure)
	}
}

var rootCmd = &cobra.Command{
	Use:     "memvcs",
	Short:   "memvcs - version control for agent memory",
	Long:    `memvcs is a content-addressed, git-shaped store for an agent's working memory: episodic observations, distilled semantic facts, and procedural notes, with differential-privacy-bounded consolidation.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"memvcs version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("repo", ".", "Repository root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(distillCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(fsckCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func repoRoot(cmd *cobra.Command) string {
	root, _ := cmd.Flags().GetString("repo")
	return root
}

func currentAuthor() objectstore.Author {
	name := os.Getenv("MEMVCS_AUTHOR_NAME")
	if name == "" {
		name = "memvcs"
	}
	email := os.Getenv("MEMVCS_AUTHOR_EMAIL")
	if email == "" {
		email = "memvcs@localhost"
	}
	return objectstore.Author{Name: name, Email: email}
}

// openRepository wires an adapter, an optionally-sealing object
// store, and a Repository over repoRoot's .mem directory, deriving
// the encryption key from MEMVCS_ENCRYPTION_PASSPHRASE only when the
// repository config has encryption enabled (§4.4).
func openRepository(root string) (storageadapter.Adapter, *repo.Repository, error) {
	adapter, err := storageadapter.NewLocal(root)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(adapter)
	if err != nil {
		return nil, nil, err
	}

	var sealer objectstore.Sealer
	if cfg.EncryptionEnabled {
		encCfg, ok, err := crypto.LoadConfig(adapter)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, memerrs.Wrap(memerrs.ErrConfig, "encryption enabled but no encryption.json found", nil)
		}
		secrets := config.LoadSecrets()
		if secrets.EncryptionPassphrase == "" {
			return nil, nil, memerrs.Wrap(memerrs.ErrConfig, "encryption enabled but MEMVCS_ENCRYPTION_PASSPHRASE is unset", nil)
		}
		key, err := encCfg.DeriveKey(secrets.EncryptionPassphrase)
		if err != nil {
			return nil, nil, err
		}
		sealer = objectstore.NewKeySealer(key)
	}

	store := objectstore.New(adapter, sealer)
	r := repo.Open(adapter, store, currentAuthor())
	return adapter, r, nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new memvcs repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := repoRoot(cmd)
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		adapter, err := storageadapter.NewLocal(root)
		if err != nil {
			return err
		}

		cfg := config.Default()
		cfg.EncryptionEnabled = encrypt
		if err := config.Save(adapter, cfg); err != nil {
			return err
		}

		if encrypt {
			encCfg, err := crypto.NewConfig()
			if err != nil {
				return err
			}
			if err := crypto.SaveConfig(adapter, encCfg); err != nil {
				return err
			}
		}

		accountant := privacy.New(adapter)
		if err := accountant.Init(cfg.PrivacyEpsilonMax, cfg.PrivacyDelta); err != nil {
			return err
		}

		_, r, err := openRepository(root)
		if err != nil {
			return err
		}
		if err := r.Init(); err != nil {
			return err
		}

		fmt.Printf("Initialized empty memvcs repository in %s/.mem\n", root)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("encrypt", false, "Enable at-rest encryption for object payloads")
}

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Stage a file or directory under current/",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		return r.Add(args[0])
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the staging index",
	RunE: func(cmd *cobra.Command, args []string) error {
		message, _ := cmd.Flags().GetString("message")
		if message == "" {
			return memerrs.Wrap(memerrs.ErrValidation, "commit message is required (-m)", nil)
		}
		adapter, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		hash, err := r.Commit(message, nil)
		if err != nil {
			return err
		}
		if hash == "" {
			fmt.Println("nothing to commit, staging index is empty")
			return nil
		}
		if agentID := os.Getenv("MEMVCS_AGENT_ID"); agentID != "" {
			contrib := collaboration.Contribution{AgentID: agentID, CommitHash: hash, Timestamp: time.Now().UTC(), Message: message}
			if err := collaboration.NewContributionTracker(adapter).Record(contrib); err != nil {
				return err
			}
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringP("message", "m", "", "Commit message")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staged, modified, and untracked paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		entries, err := r.Status()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("nothing to commit, working tree clean")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-20s %s\n", e.State, e.Path)
		}
		return nil
	},
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history by first-parent",
	RunE: func(cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt("max")
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		entries, err := r.Log(max, time.Time{})
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("commit %s\nAuthor: %s <%s>\nDate:   %s\n\n    %s\n\n",
				e.Hash, e.Commit.Author.Name, e.Commit.Author.Email,
				e.Commit.Timestamp.Format(time.RFC3339), e.Commit.Message)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().Int("max", 0, "Maximum number of commits to show (0 = unbounded)")
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <revision>",
	Short: "Switch the working tree and HEAD to revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		return r.Checkout(args[0], force)
	},
}

func init() {
	checkoutCmd.Flags().Bool("force", false, "Overwrite dirty working-tree paths without conflict")
}

var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Diff two revisions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		entries, err := r.Diff(args[0], args[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%-10s %s\n", e.Kind, e.Path)
		}
		return nil
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch [name]",
	Short: "List, create, or delete branches",
	RunE: func(cmd *cobra.Command, args []string) error {
		del, _ := cmd.Flags().GetString("delete")
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}

		if del != "" {
			return r.DeleteBranch(del)
		}

		if len(args) == 0 {
			names, err := r.Refs().ListBranches()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		}

		head, err := r.Refs().Resolve("HEAD")
		if err != nil {
			return err
		}
		return r.CreateBranch(args[0], head, currentAuthor().Name)
	},
}

func init() {
	branchCmd.Flags().String("delete", "", "Delete the named branch")
}

var tagCmd = &cobra.Command{
	Use:   "tag [name]",
	Short: "List or create tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}

		if len(args) == 0 {
			names, err := r.Refs().ListTags()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		}

		head, err := r.Refs().Resolve("HEAD")
		if err != nil {
			return err
		}
		return r.CreateTag(args[0], head, currentAuthor().Name)
	},
}

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Verify the working tree against the recorded Merkle snapshot (object-store links are not checked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}

		stored, ok, err := merkle.Load(adapter)
		if err != nil {
			return err
		}
		if !ok {
			lock, err := adapter.AcquireLock(repo.LockName, repo.LockTimeout)
			if err != nil {
				return err
			}
			defer lock.Release()

			snap, err := merkle.Build(adapter, "current")
			if err != nil {
				return err
			}
			if err := merkle.Save(adapter, snap); err != nil {
				return err
			}
			fmt.Printf("no snapshot found; recorded a fresh one (%s, %d files)\n", snap.Root, snap.FileCount)
			return nil
		}

		result, err := merkle.Verify(adapter, "current", stored)
		if err != nil {
			return err
		}
		if len(result.Added)+len(result.Modified)+len(result.Deleted) == 0 {
			fmt.Println("working tree matches the recorded Merkle snapshot")
			return nil
		}
		for _, p := range result.Added {
			fmt.Printf("added    %s\n", p)
		}
		for _, p := range result.Modified {
			fmt.Printf("modified %s\n", p)
		}
		for _, p := range result.Deleted {
			fmt.Printf("deleted  %s\n", p)
		}
		metrics.MerkleVerifyMismatchesTotal.WithLabelValues("added").Add(float64(len(result.Added)))
		metrics.MerkleVerifyMismatchesTotal.WithLabelValues("modified").Add(float64(len(result.Modified)))
		metrics.MerkleVerifyMismatchesTotal.WithLabelValues("deleted").Add(float64(len(result.Deleted)))
		return nil
	},
}

var distillCmd = &cobra.Command{
	Use:   "distill",
	Short: "Run the distillation pipeline over current/episodic",
}

var distillRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Cluster, extract, sample, and consolidate episodic memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := repoRoot(cmd)
		dpEnabled, _ := cmd.Flags().GetBool("dp")
		agentID, _ := cmd.Flags().GetString("source-agent-id")

		adapter, r, err := openRepository(root)
		if err != nil {
			return err
		}
		cfg, err := config.Load(adapter)
		if err != nil {
			return err
		}
		secrets := config.LoadSecrets()

		var extractor distill.Extractor
		provider := cfg.EffectiveLLMProvider(secrets)
		if provider == "openai" && secrets.OpenAIAPIKey != "" {
			extractor = distill.LLMExtractor{
				Provider: llm.NewOpenAIProvider(secrets.OpenAIAPIKey, cfg.LLMModel),
				Model:    cfg.LLMModel,
			}
		}

		accountant := privacy.New(adapter)
		engine := distill.New(adapter, r, accountant, extractor)

		result, err := engine.Run(context.Background(), distill.Options{
			ClusterMin:       cfg.DistillCMin,
			ClusterMax:       cfg.DistillCMax,
			SafetyBranchMode: cfg.SafetyBranchMode,
			DPEnabled:        dpEnabled,
			Epsilon:          cfg.PrivacyEpsilonMax,
			Delta:            cfg.PrivacyDelta,
			SourceAgentID:    agentID,
		})
		if err != nil {
			return err
		}

		fmt.Printf("distillation %s: %d clusters, %d facts, commit %s\n",
			result.State, result.ClustersProcessed, result.FactsWritten, result.CommitHash)
		return nil
	},
}

func init() {
	distillRunCmd.Flags().Bool("dp", false, "Apply the (epsilon,delta)-DP sampling mechanism before writing")
	distillRunCmd.Flags().String("source-agent-id", "", "Agent id recorded in each consolidated file's frontmatter")
	distillCmd.AddCommand(distillRunCmd)
}

// gardenCmd is the Hindsight-style alternate entry point: instead of
// distilling unconditionally, it only runs once episodic/ has
// accumulated at least the configured threshold of files.
var gardenCmd = &cobra.Command{
	Use:   "garden",
	Short: "Distill episodic memory only once it has grown past a threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := repoRoot(cmd)
		threshold, _ := cmd.Flags().GetInt("threshold")

		adapter, r, err := openRepository(root)
		if err != nil {
			return err
		}
		cfg, err := config.Load(adapter)
		if err != nil {
			return err
		}

		accountant := privacy.New(adapter)
		engine := distill.New(adapter, r, accountant, nil)

		due, count, err := engine.ShouldGarden(distill.GardenConfig{Threshold: threshold}, distill.Options{})
		if err != nil {
			return err
		}
		if !due {
			fmt.Printf("not due: %d episodic files, threshold %d\n", count, threshold)
			return nil
		}

		result, err := engine.Run(context.Background(), distill.Options{
			ClusterMin:       cfg.DistillCMin,
			ClusterMax:       cfg.DistillCMax,
			SafetyBranchMode: cfg.SafetyBranchMode,
		})
		if err != nil {
			return err
		}
		fmt.Printf("gardened %d episodic files: %s, %d clusters, %d facts, commit %s\n",
			count, result.State, result.ClustersProcessed, result.FactsWritten, result.CommitHash)
		return nil
	},
}

func init() {
	gardenCmd.Flags().Int("threshold", 50, "Episodic file count that triggers a run")
	rootCmd.AddCommand(gardenCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the observation-buffering auto-commit session",
}

func openRecorder(root string) (*session.Recorder, error) {
	adapter, r, err := openRepository(root)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(adapter)
	if err != nil {
		return nil, err
	}
	return session.NewRecorder(adapter, r, session.Config{
		MaxObservationsPerCommit: cfg.SessionMaxObservations,
		CommitIntervalSeconds:    cfg.SessionCommitIntervalSec,
		MinObservationsForCommit: cfg.SessionMinObservations,
	}), nil
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := openRecorder(repoRoot(cmd))
		if err != nil {
			return err
		}
		s, err := rec.Start()
		if err != nil {
			return err
		}
		fmt.Printf("session %s (%s)\n", s.ID, s.Status)
		return nil
	},
}

var sessionObserveCmd = &cobra.Command{
	Use:   "observe <tool-name> [key=value ...]",
	Short: "Buffer one observation, committing if a trigger fires",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := openRecorder(repoRoot(cmd))
		if err != nil {
			return err
		}
		result, _ := cmd.Flags().GetString("result")

		arguments := map[string]string{}
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if ok {
				arguments[k] = v
			}
		}

		obsID, commitHash, err := rec.AddObservation(args[0], arguments, result)
		if err != nil {
			return err
		}
		fmt.Printf("observation %s buffered\n", obsID)
		if commitHash != "" {
			fmt.Printf("session auto-committed: %s\n", commitHash)
		}
		return nil
	},
}

func init() {
	sessionObserveCmd.Flags().String("result", "", "Free-form result text attached to the observation")
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active session, committing buffered observations",
	RunE: func(cmd *cobra.Command, args []string) error {
		noCommit, _ := cmd.Flags().GetBool("no-commit")
		rec, err := openRecorder(repoRoot(cmd))
		if err != nil {
			return err
		}
		hash, err := rec.End(!noCommit)
		if err != nil {
			return err
		}
		if hash != "" {
			fmt.Println(hash)
		}
		return nil
	},
}

func init() {
	sessionEndCmd.Flags().Bool("no-commit", false, "End the session without committing buffered observations")
}

var sessionDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Discard the active session buffer without committing",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := openRecorder(repoRoot(cmd))
		if err != nil {
			return err
		}
		return rec.Discard()
	},
}

func init() {
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionObserveCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionDiscardCmd)
}

var confidenceCmd = &cobra.Command{
	Use:   "confidence",
	Short: "Inspect per-path confidence scores",
}

var confidenceStaleCmd = &cobra.Command{
	Use:   "stale",
	Short: "List memory paths whose confidence score has decayed below a threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		store := confidence.NewStore(adapter)
		records, err := store.BelowThreshold(threshold)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no paths below threshold")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%.3f  %s\n", r.ComputedScore, r.Path)
		}
		return nil
	},
}

func init() {
	confidenceStaleCmd.Flags().Float64("threshold", 0.5, "Confidence score cutoff")
	confidenceCmd.AddCommand(confidenceStaleCmd)
	rootCmd.AddCommand(confidenceCmd)
}

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Report privacy budget, encryption, and Merkle integrity status",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, r, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		rep, err := compliance.Generate(adapter, r, privacy.New(adapter), time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("generated_at:        %s\n", rep.GeneratedAt.Format(time.RFC3339))
		if rep.PrivacyInitialized {
			fmt.Printf("privacy budget:      %.4f / %.4f spent (delta=%g), within budget: %v\n",
				rep.EpsilonSpent, rep.EpsilonMax, rep.Delta, rep.WithinBudget())
		} else {
			fmt.Println("privacy budget:      not initialized")
		}
		fmt.Printf("encryption enabled:  %v\n", rep.EncryptionEnabled)
		if rep.MerkleRecorded {
			fmt.Printf("merkle snapshot:     %s, drift %d (added %d, modified %d, deleted %d)\n",
				rep.MerkleRoot, rep.MerkleDrift, rep.MerkleDriftKind["added"], rep.MerkleDriftKind["modified"], rep.MerkleDriftKind["deleted"])
		} else {
			fmt.Println("merkle snapshot:     none recorded")
		}
		fmt.Printf("audit trail:         %d commits", rep.CommitCount)
		if rep.CommitCount > 0 {
			fmt.Printf(", last %s at %s", rep.LastCommit, rep.LastCommitAt.Format(time.RFC3339))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(complianceCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage growth, semantic redundancy, and stale memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("stale-threshold-days")
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		rep, err := health.Check(adapter, time.Now().UTC(), threshold)
		if err != nil {
			return err
		}

		fmt.Printf("storage:    %d objects, %d bytes\n", rep.Storage.ObjectCount, rep.Storage.TotalSizeBytes)
		fmt.Printf("redundancy: %d files, %.1f%% redundant", rep.Redundancy.TotalFiles, rep.Redundancy.RedundancyPercentage)
		if rep.Redundancy.Warning != "" {
			fmt.Printf(" (%s)", rep.Redundancy.Warning)
		}
		fmt.Println()
		fmt.Printf("staleness:  %d/%d files past %.0f days", len(rep.Stale.StaleFiles), rep.Stale.TotalFiles, threshold)
		if rep.Stale.Warning != "" {
			fmt.Printf(" (%s)", rep.Stale.Warning)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	healthCmd.Flags().Float64("stale-threshold-days", 90, "Age in days past which a memory file counts as stale")
	rootCmd.AddCommand(healthCmd)
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage agent identities, trust, and contribution attribution",
}

var agentRegisterCmd = &cobra.Command{
	Use:   "register <agent-id> <name>",
	Short: "Register an agent identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		_, err = collaboration.NewRegistry(adapter).Register(args[0], args[1], "", time.Now().UTC())
		return err
	},
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		agents, err := collaboration.NewRegistry(adapter).List()
		if err != nil {
			return err
		}
		for _, a := range agents {
			fmt.Printf("%s\t%s\n", a.ID, a.Name)
		}
		return nil
	},
}

var agentTrustCmd = &cobra.Command{
	Use:   "trust <from-agent> <to-agent> <full|partial|read-only|none>",
	Short: "Grant a trust level from one agent to another",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		adapter, _, err := openRepository(repoRoot(cmd))
		if err != nil {
			return err
		}
		level := collaboration.TrustLevel(args[2])
		return collaboration.NewTrustManager(adapter).Grant(args[0], args[1], level, reason, time.Now().UTC())
	},
}

func init() {
	agentTrustCmd.Flags().String("reason", "", "Why this trust level was granted")
	agentCmd.AddCommand(agentRegisterCmd, agentListCmd, agentTrustCmd)
	rootCmd.AddCommand(agentCmd)
}
