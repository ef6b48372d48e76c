package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/entity"
)

const jobsBucket = "jobs"

// JobStore keeps job status in a local bbolt file.
type JobStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func OpenJobStore(path string) (*JobStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create jobs dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(jobsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &JobStore{db: db, now: time.Now}, nil
}

// Create stores a new job, stamping both timestamps.
func (s *JobStore) Create(_ context.Context, job *entity.Job) error {
	now := s.now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	return s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket([]byte(jobsBucket)), job)
	})
}

// Update applies fn to the stored job inside a single write transaction.
func (s *JobStore) Update(_ context.Context, id string, fn func(*entity.Job) error) (*entity.Job, error) {
	var job entity.Job
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(jobsBucket))
		data := b.Get([]byte(id))
		if data == nil {
			return common.NewNotFoundError("job " + id + " not found")
		}
		if err := json.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("unmarshaling job: %w", err)
		}
		if err := fn(&job); err != nil {
			return err
		}
		job.UpdatedAt = s.now().UTC()
		return put(b, &job)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) Get(_ context.Context, id string) (*entity.Job, error) {
	var job *entity.Job
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(jobsBucket)).Get([]byte(id))
		if data == nil {
			return common.NewNotFoundError("job " + id + " not found")
		}
		return json.Unmarshal(data, &job)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// List returns jobs newest first.
func (s *JobStore) List(_ context.Context) ([]*entity.Job, error) {
	jobs := make([]*entity.Job, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(jobsBucket)).ForEach(func(_, v []byte) error {
			var job entity.Job
			if err := json.Unmarshal(v, &job); err != nil {
				return fmt.Errorf("unmarshaling job: %w", err)
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

func (s *JobStore) Close() error {
	return s.db.Close()
}

func put(b *bbolt.Bucket, job *entity.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshaling job: %w", err)
	}
	return b.Put([]byte(job.ID), data)
}
