package session

import (
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/metrics"
	"github.com/kraklabs/memvcs/pkg/repo"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const sessionSummaryDir = "episodic/sessions"

// Trigger names why a Recorder flushed its buffer, matching the
// memvcs_session_commits_total{trigger=...} metric label.
type Trigger string

const (
	TriggerMaxObservations Trigger = "max_observations"
	TriggerIntervalElapsed Trigger = "interval_elapsed"
	TriggerSessionEnd      Trigger = "session_end"
)

// Config tunes the three commit triggers §4.9 names.
type Config struct {
	MaxObservationsPerCommit int
	CommitIntervalSeconds    int
	MinObservationsForCommit int
}

// Recorder buffers observations into a disk-backed Session and
// flushes it into a committed session-summary file once a trigger
// fires. It is safe for concurrent use by multiple goroutines within
// one process; cross-process ordering is left to the repository lock
// taken inside repo.Repository.Commit's storage adapter.
type Recorder struct {
	adapter    storageadapter.Adapter
	repository *repo.Repository
	config     Config
	now        func() time.Time

	mu      sync.Mutex
	session *Session
}

// NewRecorder creates a Recorder over an already-open repository.
func NewRecorder(adapter storageadapter.Adapter, repository *repo.Repository, cfg Config) *Recorder {
	return &Recorder{
		adapter:    adapter,
		repository: repository,
		config:     cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start begins or resumes the active session, loading it from disk if
// one was left behind by a crashed process.
func (r *Recorder) Start() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked()
}

func (r *Recorder) startLocked() (*Session, error) {
	existing, err := loadSession(r.adapter)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == StatusActive {
		r.session = existing
		return r.session, nil
	}

	id := uuid.New().String()[:8]
	r.session = newSession(id, r.now())
	if err := saveSession(r.adapter, r.session); err != nil {
		return nil, err
	}
	return r.session, nil
}

// AddObservation classifies and buffers one observation, persists the
// buffer, then checks the size/time triggers. commitHash is non-empty
// only if a commit was triggered by this call.
func (r *Recorder) AddObservation(toolName string, arguments map[string]string, result string) (obsID string, commitHash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || r.session.Status != StatusActive {
		if _, err := r.startLocked(); err != nil {
			return "", "", err
		}
	}

	now := r.now()
	topic := ClassifyTopic(toolName, arguments)
	obs := Observation{
		ID:         uuid.New().String()[:12],
		Timestamp:  now,
		ToolName:   toolName,
		Arguments:  arguments,
		Result:     result,
		Topic:      topic,
		MemoryType: inferMemoryType(toolName),
	}

	r.session.Observations = append(r.session.Observations, obs)
	r.session.Topics[topic] = append(r.session.Topics[topic], obs.ID)
	trigger, due := r.dueTrigger()
	r.session.LastActivity = now
	metrics.ObservationsBufferedTotal.Inc()

	if err := saveSession(r.adapter, r.session); err != nil {
		return obs.ID, "", err
	}

	if due {
		hash, err := r.flushLocked(trigger)
		if err != nil {
			return obs.ID, "", err
		}
		return obs.ID, hash, nil
	}

	return obs.ID, "", nil
}

// CheckElapsed is the interval-based trigger a background timer
// calls periodically; it commits only if the elapsed-time condition
// is satisfied right now, independent of any new observation arriving.
func (r *Recorder) CheckElapsed() (commitHash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || r.session.Status != StatusActive {
		return "", nil
	}
	if trigger, ok := r.dueTrigger(); ok {
		return r.flushLocked(trigger)
	}
	return "", nil
}

// End closes the session, optionally flushing any buffered
// observations as a final commit.
func (r *Recorder) End(commit bool) (commitHash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return "", nil
	}

	if commit && len(r.session.Observations) > 0 {
		commitHash, err = r.flushLocked(TriggerSessionEnd)
		if err != nil {
			return "", err
		}
	}

	now := r.now()
	r.session.EndedAt = &now
	r.session.Status = StatusEnded
	if err := saveSession(r.adapter, r.session); err != nil {
		return commitHash, err
	}
	return commitHash, nil
}

// Discard removes the current session buffer without committing.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return discardSession(r.adapter)
}

func (r *Recorder) dueTrigger() (Trigger, bool) {
	count := len(r.session.Observations)
	if count == 0 {
		return "", false
	}
	if count >= r.config.MaxObservationsPerCommit {
		return TriggerMaxObservations, true
	}
	if count >= r.config.MinObservationsForCommit {
		elapsed := r.now().Sub(r.session.LastActivity)
		if elapsed >= time.Duration(r.config.CommitIntervalSeconds)*time.Second {
			return TriggerIntervalElapsed, true
		}
	}
	return "", false
}

// flushLocked writes the session summary, stages and commits it, then
// clears the buffer. Callers must hold r.mu.
func (r *Recorder) flushLocked(trigger Trigger) (string, error) {
	if len(r.session.Observations) == 0 {
		return "", nil
	}

	snapshot := *r.session
	content := RenderSummary(snapshot)
	relPath := path.Join(sessionSummaryDir, "session-"+r.session.ID+".md")

	if err := r.adapter.Write(path.Join("current", relPath), []byte(content)); err != nil {
		return "", err
	}
	if err := r.repository.Add(relPath); err != nil {
		return "", err
	}

	message := GenerateCommitMessage(snapshot)
	metadata := map[string]string{
		"session_id":        snapshot.ID,
		"observation_count": strconv.Itoa(len(snapshot.Observations)),
		"trigger":           string(trigger),
	}
	commitHash, err := r.repository.Commit(message, metadata)
	if err != nil {
		return "", err
	}

	metrics.SessionCommitsTotal.WithLabelValues(string(trigger)).Inc()
	log.WithComponent("session").Info().Str("session_id", snapshot.ID).Str("trigger", string(trigger)).Msg("session committed")

	r.session.CommitCount++
	r.session.Observations = nil
	r.session.Topics = map[Topic][]string{}
	if err := saveSession(r.adapter, r.session); err != nil {
		return commitHash, err
	}

	return commitHash, nil
}

