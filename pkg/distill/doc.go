// Package distill implements the distillation pipeline (§4.8): a
// restartable state machine that clusters episodic memories, extracts
// candidate facts (heuristically or via an llm.Provider), optionally
// applies differential-privacy sampling, writes consolidated semantic
// files, archives the consumed sources, and commits the result.
package distill
