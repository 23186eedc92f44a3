package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	exclusionsBucket = []byte("exclusions")
	projectsBucket   = []byte("projects")
)

var (
	servedIDsKey   = []byte("served_ids")
	lastProjectKey = []byte("last")
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens the database, waiting at most timeout for the file lock.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{exclusionsBucket, projectsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadExclusions returns the persisted served-image ids, oldest first.
// A missing key yields an empty list.
func (s *Store) LoadExclusions() ([]string, error) {
	var state ExclusionState
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(exclusionsBucket).Get(servedIDsKey)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &state)
	})
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}
	return state.IDs, nil
}

// SaveExclusions replaces the persisted served-image ids.
func (s *Store) SaveExclusions(ids []string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(ExclusionState{IDs: ids, UpdatedAt: time.Now()})
		if err != nil {
			return err
		}
		return tx.Bucket(exclusionsBucket).Put(servedIDsKey, data)
	})
}

func (s *Store) ClearExclusions() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(exclusionsBucket).Delete(servedIDsKey)
	})
}

func (s *Store) SaveLastProject(project *Project) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		p := *project
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now()
		}
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}
		return tx.Bucket(projectsBucket).Put(lastProjectKey, data)
	})
}

func (s *Store) GetLastProject() (*Project, error) {
	var project Project
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(projectsBucket).Get(lastProjectKey)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}
