package distill

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const archiveRoot = ".mem/archive"

var sanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeTopic turns a cluster topic into a safe filename fragment.
func sanitizeTopic(topic string) string {
	s := sanitizeRe.ReplaceAllString(strings.ToLower(topic), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "general"
	}
	return s
}

// newArchiveDir returns a fresh .mem/archive/<YYYYMMDD-HHMMSS>/ path.
func newArchiveDir(now time.Time) string {
	return path.Join(archiveRoot, now.UTC().Format("20060102-150405"))
}

// archiveFile moves a consumed source file into archiveDir, preserving
// its relative path under current/. It rejects any destination that
// would escape archiveDir.
func archiveFile(adapter storageadapter.Adapter, sourcePath, archiveDir string) error {
	rel := strings.TrimPrefix(sourcePath, "current/")
	dest := path.Join(archiveDir, rel)

	cleanDest := path.Clean(dest)
	cleanRoot := path.Clean(archiveDir)
	if cleanDest != cleanRoot && !strings.HasPrefix(cleanDest, cleanRoot+"/") {
		return memerrs.Wrap(memerrs.ErrValidation, fmt.Sprintf("archive destination escapes archive root: %s", dest), nil)
	}

	content, err := adapter.Read(sourcePath)
	if err != nil {
		return err
	}
	if err := adapter.Write(cleanDest, content); err != nil {
		return err
	}
	if _, err := adapter.Delete(sourcePath); err != nil {
		return err
	}
	return nil
}
