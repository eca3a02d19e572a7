package refs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
)

// appendReflog writes one JSON-lines record to .mem/logs/<ref>,
// preserving whatever was already there (§3 reflog).
func (m *Manager) appendReflog(ref, oldHash, newHash, who, reason string) error {
	entry := ReflogEntry{
		OldHash: oldHash,
		NewHash: newHash,
		Who:     who,
		When:    time.Now().UTC(),
		Reason:  reason,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode reflog entry", err)
	}

	path := logsDir + ref
	existing := []byte{}
	if m.adapter.Exists(path) {
		existing, err = m.adapter.Read(path)
		if err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	buf.Write(existing)
	buf.Write(line)
	buf.WriteByte('\n')
	return m.adapter.Write(path, buf.Bytes())
}

// Reflog returns every entry logged for ref, oldest first.
func (m *Manager) Reflog(ref string) ([]ReflogEntry, error) {
	path := logsDir + ref
	if !m.adapter.Exists(path) {
		return nil, nil
	}
	data, err := m.adapter.Read(path)
	if err != nil {
		return nil, err
	}

	var entries []ReflogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e ReflogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, memerrs.Wrap(memerrs.ErrIntegrity, "decode reflog entry", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, memerrs.Wrap(memerrs.ErrStorage, "scan reflog", err)
	}
	return entries, nil
}
