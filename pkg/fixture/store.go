package fixture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrLeaseNotFound is returned by GetLease when owner has no
// persisted record.
var ErrLeaseNotFound = errors.New("fixture: lease not found")

// LeaseRecord is the persisted shape of one sandbox lease, written by a
// soak harness so a long-running cycle count survives a process
// restart instead of starting back at zero.
type LeaseRecord struct {
	Owner  string `json:"owner"`
	ConnID string `json:"conn_id"`
	Depth  int    `json:"depth"`
	Cycle  int    `json:"cycle"`
}

// LeaseStore is a disk-backed (or in-memory) key/value store for
// LeaseRecords, used by the sandbox soak test harness to persist
// per-owner cycle counts across restarts. Grounded on the teacher's
// pkg/storage BadgerEngine (NewBadgerEngineInMemory/NewBadgerEngine,
// Create/Get/Delete verb naming) but keyed on sandbox owner strings
// holding a small JSON record instead of graph nodes/edges.
type LeaseStore struct {
	db *badger.DB
}

// OpenInMemory opens a LeaseStore backed by an in-memory badger
// instance, for tests that don't need the record to outlive the
// process.
func OpenInMemory() (*LeaseStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("fixture: opening in-memory lease store: %w", err)
	}
	return &LeaseStore{db: db}, nil
}

// Open opens a LeaseStore backed by a badger database rooted at dir,
// so a soak run's cycle count survives a restart.
func Open(dir string) (*LeaseStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("fixture: opening lease store at %s: %w", dir, err)
	}
	return &LeaseStore{db: db}, nil
}

// Close releases the underlying badger database.
func (s *LeaseStore) Close() error {
	return s.db.Close()
}

// PutLease persists (or overwrites) the lease record for owner.
func (s *LeaseStore) PutLease(rec LeaseRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("fixture: encoding lease record: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(leaseKey(rec.Owner)), buf)
	})
}

// GetLease returns the persisted lease record for owner, or
// ErrLeaseNotFound if nothing has been persisted for it yet.
func (s *LeaseStore) GetLease(owner string) (LeaseRecord, error) {
	var rec LeaseRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(leaseKey(owner)))
		if err == badger.ErrKeyNotFound {
			return ErrLeaseNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// DeleteLease removes the persisted record for owner, if any.
func (s *LeaseStore) DeleteLease(owner string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(leaseKey(owner)))
	})
}

// IncrementCycle loads owner's record (creating one at cycle 0 if
// absent), bumps Cycle by one, and persists it back, so a soak test
// can resume from the last completed cycle after a restart.
func (s *LeaseStore) IncrementCycle(owner, connID string) (LeaseRecord, error) {
	rec, err := s.GetLease(owner)
	if err != nil && err != ErrLeaseNotFound {
		return LeaseRecord{}, err
	}
	rec.Owner = owner
	rec.ConnID = connID
	rec.Cycle++
	if err := s.PutLease(rec); err != nil {
		return LeaseRecord{}, err
	}
	return rec, nil
}

func leaseKey(owner string) string {
	return "lease/" + owner
}
