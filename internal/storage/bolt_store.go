package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"scenarioq/internal/runner"
	"scenarioq/internal/stats"
)

const (
	BucketRuns = "runs"
)

var ErrRunNotFound = errors.New("run not found")

// HistoryItem is one saved run.
type HistoryItem struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	ScenarioPath string        `json:"scenario_path"`
	Config       runner.Config `json:"config"`
	Report       *stats.Report `json:"report"`
}

// Store keeps run history in a bbolt file. Keys sort by run time.
type Store struct {
	db       *bbolt.DB
	filePath string
}

// DefaultPath is $HOME/.scenarioq/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scenarioq", "history.db"), nil
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		filePath: path,
	}, nil
}

func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a run id that sorts by time.
func NewID(ts time.Time) string {
	return ts.UTC().Format("20060102-150405.000") + "-" + uuid.NewString()[:8]
}

// Save stores item, assigning an ID and timestamp when missing.
func (s *Store) Save(item *HistoryItem) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}
	if item.ID == "" {
		item.ID = NewID(item.Timestamp)
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketRuns)).Put([]byte(item.ID), data)
	})
}

// List returns saved runs, newest first.
func (s *Store) List() ([]HistoryItem, error) {
	var items []HistoryItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("corrupt history entry %s: %w", k, err)
			}
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var item HistoryItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(BucketRuns)).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return json.Unmarshal(v, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return b.Delete([]byte(id))
	})
}
