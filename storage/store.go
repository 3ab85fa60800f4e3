package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/btree"
	"go.etcd.io/bbolt"

	"github.com/cpauliat/my-oci-scripts/types"
)

// Bucket names in bbolt.
var (
	bucketObservations = []byte("observations")
	bucketCheckpoints  = []byte("checkpoints")
	bucketMeta         = []byte("meta")
)

var keyCurrentRevision = []byte("current_revision")

// Store keeps revisioned scan observations and workflow checkpoints on disk.
// Observations support the "re-enumerating an unchanged scope yields the same
// set" check; checkpoints make multi-step workflow retries idempotent.
type Store struct {
	mu sync.RWMutex

	// In-memory index of the latest state per resource
	index *btree.BTreeG[*ResourceState]

	db         *bbolt.DB
	currentRev int64
	dir        string
}

// ResourceState tracks a resource's latest observation in the index.
type ResourceState struct {
	ResourceID  string
	Kind        types.ResourceKind
	State       types.LifecycleState
	LastSeenRev int64
}

// Open creates or opens a store in the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, "ocisched.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketObservations, bucketCheckpoints, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		index: btree.NewG[*ResourceState](32, func(a, b *ResourceState) bool {
			return a.ResourceID < b.ResourceID
		}),
		db:  db,
		dir: dir,
	}

	if err := s.loadRevision(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.rebuildIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordObservation records a single resource observation at a new revision.
func (s *Store) RecordObservation(resource types.Resource) (int64, error) {
	return s.RecordObservationBatch([]types.Resource{resource})
}

// RecordObservationBatch records multiple observations atomically under one
// revision.
func (s *Store) RecordObservationBatch(resources []types.Resource) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentRev++
	rev := s.currentRev

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketObservations)
		for i := range resources {
			value, err := json.Marshal(&resources[i])
			if err != nil {
				return err
			}
			if err := bucket.Put(makeObservationKey(rev, resources[i].ID), value); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketMeta).Put(keyCurrentRevision, int64ToBytes(rev))
	})
	if err != nil {
		s.currentRev--
		return 0, err
	}

	for i := range resources {
		s.updateIndex(&resources[i], rev)
	}

	return rev, nil
}

// LatestStates returns the latest known state of every observed resource,
// ordered by resource ID.
func (s *Store) LatestStates() []ResourceState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]ResourceState, 0, s.index.Len())
	s.index.Ascend(func(item *ResourceState) bool {
		states = append(states, *item)
		return true
	})
	return states
}

// CurrentRevision returns the store's current revision number.
func (s *Store) CurrentRevision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRev
}

// SaveCheckpoint persists an opaque checkpoint value under the given key.
func (s *Store) SaveCheckpoint(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCheckpoints).Put([]byte(key), data)
	})
}

// LoadCheckpoint loads a checkpoint into v. Returns false when no checkpoint
// exists under the key.
func (s *Store) LoadCheckpoint(key string, v interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(bucketCheckpoints).Get([]byte(key)); raw != nil {
			data = append(data, raw...)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return true, nil
}

// DeleteCheckpoint removes a checkpoint once its workflow completes.
func (s *Store) DeleteCheckpoint(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCheckpoints).Delete([]byte(key))
	})
}

func (s *Store) updateIndex(resource *types.Resource, rev int64) {
	s.index.ReplaceOrInsert(&ResourceState{
		ResourceID:  resource.ID,
		Kind:        resource.Kind,
		State:       resource.State,
		LastSeenRev: rev,
	})
}

func (s *Store) loadRevision() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if raw := tx.Bucket(bucketMeta).Get(keyCurrentRevision); raw != nil {
			s.currentRev = bytesToInt64(raw)
		}
		return nil
	})
}

// rebuildIndex replays the observations bucket; keys sort by revision, so the
// last write per resource wins.
func (s *Store) rebuildIndex() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketObservations).ForEach(func(k, v []byte) error {
			var resource types.Resource
			if err := json.Unmarshal(v, &resource); err != nil {
				return err
			}
			s.updateIndex(&resource, bytesToInt64(k[:8]))
			return nil
		})
	})
}

// makeObservationKey builds a key ordered by revision then resource ID.
func makeObservationKey(rev int64, resourceID string) []byte {
	key := make([]byte, 8+len(resourceID))
	binary.BigEndian.PutUint64(key[:8], uint64(rev))
	copy(key[8:], resourceID)
	return key
}

func int64ToBytes(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
