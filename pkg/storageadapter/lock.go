package storageadapter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/memvcs/pkg/log"
	"github.com/kraklabs/memvcs/pkg/memerrs"
	bolt "go.etcd.io/bbolt"
)

var bucketLeases = []byte("leases")

// staleLockTimeout bounds how long a lease is honored after its
// holder's last renewal before a new acquirer is allowed to steal it.
// This mirrors the remote conditional-write/lease design in §4.1 even
// for the local adapter, so the two backends share failure semantics.
const staleLockTimeout = 5 * time.Minute

// lease is the persisted record for one named lock.
type lease struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// lockTable is a small transactional lease table backing AcquireLock,
// adapted from the teacher's BoltStore: one bbolt database holding a
// single bucket of lease records, keyed by lock name. BoltDB's own
// file lock makes cross-process mutual exclusion on the lease table
// itself correct without any extra synchronization.
type lockTable struct {
	db *bolt.DB
}

func newLockTable(dbPath string) (*lockTable, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, pathError("makedirs", filepath.Dir(dbPath), err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, memerrs.Wrap(memerrs.ErrStorage, "open lock table "+dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLeases)
		return err
	})
	if err != nil {
		db.Close()
		return nil, memerrs.Wrap(memerrs.ErrStorage, "init lock table", err)
	}

	return &lockTable{db: db}, nil
}

func (t *lockTable) close() error {
	return t.db.Close()
}

// tryAcquire attempts a single conditional-write: it succeeds if no
// lease exists for name, or the existing lease has expired.
func (t *lockTable) tryAcquire(name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	acquired := false

	err := t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLeases)
		existing := b.Get([]byte(name))

		if existing != nil {
			var cur lease
			if err := json.Unmarshal(existing, &cur); err == nil {
				if now.Before(cur.ExpiresAt) {
					return nil // still held, not by us
				}
			}
		}

		l := lease{Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(ttl)}
		data, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(name), data); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, memerrs.Wrap(memerrs.ErrStorage, "acquire lease "+name, err)
	}
	return acquired, nil
}

func (t *lockTable) release(name, owner string) error {
	return t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLeases)
		existing := b.Get([]byte(name))
		if existing == nil {
			return nil // idempotent
		}
		var cur lease
		if err := json.Unmarshal(existing, &cur); err == nil && cur.Owner != owner {
			// Someone else's lease (ours expired and was stolen); leave it.
			return nil
		}
		return b.Delete([]byte(name))
	})
}

// fileLock implements Lock for a lease held in a lockTable.
type fileLock struct {
	table *lockTable
	name  string
	owner string
}

func (l *fileLock) Release() error {
	return l.table.release(l.name, l.owner)
}

// acquireLease polls tryAcquire with backoff until timeout elapses.
func acquireLease(table *lockTable, name string, timeout time.Duration) (Lock, error) {
	owner := fmt.Sprintf("pid-%d-%d", os.Getpid(), time.Now().UnixNano())
	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond
	logger := log.WithComponent("storageadapter")

	for {
		ok, err := table.tryAcquire(name, owner, staleLockTimeout)
		if err != nil {
			return nil, err
		}
		if ok {
			return &fileLock{table: table, name: name, owner: owner}, nil
		}
		if time.Now().After(deadline) {
			logger.Warn().Str("lock", name).Dur("timeout", timeout).Msg("lock acquisition timed out")
			return nil, memerrs.Wrap(memerrs.ErrLockTimeout, "acquire lock "+name, nil)
		}
		time.Sleep(backoff)
		if backoff < 250*time.Millisecond {
			backoff *= 2
		}
	}
}
