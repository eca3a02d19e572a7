// Package log provides the structured logging used across memvcs:
// a package-level zerolog.Logger initialized once via Init, and
// component loggers (WithComponent, WithHash, WithRef) that every
// other package uses instead of fmt.Println so operations are
// queryable by component, hash, or ref in aggregation.
package log
