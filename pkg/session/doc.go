// Package session implements observation buffering with topic
// classification and time/size-triggered auto-commits (§4.9). A
// Recorder accumulates Observations in a disk-backed Session so a
// crashed process can resume the same buffer, classifies each one
// into a closed set of topics, and flushes the buffer into a
// committed session-summary file under current/episodic/sessions/
// once a commit trigger fires.
package session
