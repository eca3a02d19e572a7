// Package confidence implements L5's confidence and decay model
// (§4.7): a per-memory-path record tracking source reliability,
// corroboration/contradiction counts, and age, scored and decayed
// into a single number used to prioritize or retire stale memories.
package confidence
