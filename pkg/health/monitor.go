package health

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const defaultStaleThresholdDays = 90.0

// StorageMetrics summarizes how much space the object store occupies.
type StorageMetrics struct {
	TotalSizeBytes int64
	ObjectCount    int
}

// Storage walks .mem/objects and totals size and count.
func Storage(adapter storageadapter.Adapter) (StorageMetrics, error) {
	entries, err := walkFiles(adapter, ".mem/objects")
	if err != nil {
		return StorageMetrics{}, err
	}
	var m StorageMetrics
	for _, e := range entries {
		m.TotalSizeBytes += e.Size
		m.ObjectCount++
	}
	return m, nil
}

// RedundancyReport summarizes duplicate content under current/semantic.
type RedundancyReport struct {
	TotalFiles           int
	TotalSizeBytes       int64
	DuplicateHashes      map[string][]string // content hash -> paths sharing it
	RedundancyPercentage float64
	Warning              string
}

// Redundancy hashes every .md file under current/semantic and reports
// which ones share identical content, the wasted-space percentage
// that represents, and a warning once it exceeds 20%.
func Redundancy(adapter storageadapter.Adapter) (RedundancyReport, error) {
	root := "current/semantic"
	if !adapter.IsDir(root) {
		return RedundancyReport{DuplicateHashes: map[string][]string{}}, nil
	}
	entries, err := walkFiles(adapter, root)
	if err != nil {
		return RedundancyReport{}, err
	}

	byHash := map[string][]string{}
	sizes := map[string]int64{}
	var totalSize int64
	for _, e := range entries {
		if !strings.HasSuffix(e.Path, ".md") {
			continue
		}
		content, err := adapter.Read(e.Path)
		if err != nil {
			return RedundancyReport{}, err
		}
		sum := sha256.Sum256(content)
		h := hex.EncodeToString(sum[:])
		byHash[h] = append(byHash[h], e.Path)
		sizes[e.Path] = e.Size
		totalSize += e.Size
	}

	duplicates := map[string][]string{}
	var wasted int64
	for h, paths := range byHash {
		if len(paths) > 1 {
			sort.Strings(paths)
			duplicates[h] = paths
			for _, p := range paths[1:] {
				wasted += sizes[p]
			}
		}
	}

	var pct float64
	if totalSize > 0 {
		pct = float64(wasted) / float64(totalSize) * 100
	}

	rep := RedundancyReport{
		TotalFiles:           len(sizes),
		TotalSizeBytes:       totalSize,
		DuplicateHashes:      duplicates,
		RedundancyPercentage: pct,
	}
	if pct > 20 {
		rep.Warning = fmt.Sprintf("high semantic redundancy (%.1f%%): consolidate memories", pct)
	}
	return rep, nil
}

// StaleEntry is one file whose last write predates the staleness
// threshold.
type StaleEntry struct {
	Path      string
	AgeDays   float64
	SizeBytes int64
}

// StaleReport summarizes how much of current/ has gone untouched past
// the staleness threshold.
type StaleReport struct {
	TotalFiles      int
	StaleFiles      []StaleEntry
	StalePercentage float64
	Warning         string
}

// Stale reports every .md file under current/ whose modification time is
// older than thresholdDays, relative to now, sorted oldest first.
func Stale(adapter storageadapter.Adapter, now time.Time, thresholdDays float64) (StaleReport, error) {
	if thresholdDays <= 0 {
		thresholdDays = defaultStaleThresholdDays
	}
	entries, err := walkFiles(adapter, "current")
	if err != nil {
		return StaleReport{}, err
	}

	var md []storageadapter.Entry
	for _, e := range entries {
		if strings.HasSuffix(e.Path, ".md") {
			md = append(md, e)
		}
	}
	if len(md) == 0 {
		return StaleReport{}, nil
	}

	var stale []StaleEntry
	for _, e := range md {
		ageDays := now.Sub(e.Mtime).Hours() / 24
		if ageDays > thresholdDays {
			stale = append(stale, StaleEntry{Path: e.Path, AgeDays: ageDays, SizeBytes: e.Size})
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].AgeDays > stale[j].AgeDays })

	pct := float64(len(stale)) / float64(len(md)) * 100
	rep := StaleReport{TotalFiles: len(md), StaleFiles: stale, StalePercentage: pct}
	if pct > 30 {
		rep.Warning = fmt.Sprintf("high stale-memory percentage (%.1f%%): consider archival", pct)
	}
	return rep, nil
}

// Report aggregates every check into one point-in-time result.
type Report struct {
	GeneratedAt time.Time
	Storage     StorageMetrics
	Redundancy  RedundancyReport
	Stale       StaleReport
}

// Check runs every health check and aggregates the results.
func Check(adapter storageadapter.Adapter, now time.Time, staleThresholdDays float64) (Report, error) {
	storage, err := Storage(adapter)
	if err != nil {
		return Report{}, err
	}
	redundancy, err := Redundancy(adapter)
	if err != nil {
		return Report{}, err
	}
	stale, err := Stale(adapter, now, staleThresholdDays)
	if err != nil {
		return Report{}, err
	}
	return Report{GeneratedAt: now, Storage: storage, Redundancy: redundancy, Stale: stale}, nil
}

func walkFiles(adapter storageadapter.Adapter, dir string) ([]storageadapter.Entry, error) {
	if !adapter.IsDir(dir) {
		return nil, nil
	}
	entries, err := adapter.List(dir)
	if err != nil {
		return nil, err
	}
	var out []storageadapter.Entry
	for _, e := range entries {
		if e.IsDir {
			nested, err := walkFiles(adapter, e.Path)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
