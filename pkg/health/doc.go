// Package health implements periodic repository health checks:
// storage growth, semantic redundancy (duplicate content), and stale
// memory detection. It reads state other packages already maintain
// (the working tree and object files via storageadapter) rather than
// introducing a new store of its own.
package health
