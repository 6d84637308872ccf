package jobcache

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

/*
keys:
	Job:$id   one cached job, JSON
	Jobs      legacy single-blob store, migrated away on startup
*/

const (
	keyPrefix    = "Job:"
	keyPattern   = "Job:*"
	legacyKey    = "Jobs"
	lockLifespan = 10 * time.Second
)

// Store is the device-local mirror of the job board. Reads are served from
// here; writes land here first and are reconciled with the authoritative
// store by the workflows.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func NewRedisStore() *Store {
	return NewStore(NewRedisKV())
}

func jobKey(id string) string {
	return keyPrefix + id
}

// Get returns the cached job, or nil when the id is not cached. A missing
// entry is not an error.
func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	raw, ok, err := s.kv.Get(ctx, jobKey(id))
	if err != nil || !ok {
		return nil, err
	}
	var job models.Job
	if err := utils.UnmarshalFromJSON(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Put stores one job, serialized against concurrent writers of the same id.
// Inline attachment payloads are recompressed before storage.
func (s *Store) Put(ctx context.Context, job *models.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job id is required")
	}

	compressJobAttachments(job)

	release, err := s.obtainLock(ctx, job.ID)
	if err != nil {
		return err
	}
	defer release()

	raw, err := utils.MarshalToJSON(job)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, jobKey(job.ID), []byte(raw))
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, jobKey(id))
}

// Load returns every cached job, newest first.
func (s *Store) Load(ctx context.Context) ([]*models.Job, error) {
	keys, err := s.kv.Keys(ctx, keyPattern)
	if err != nil {
		return nil, err
	}

	var jobs []*models.Job
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			// expired between scan and read
			continue
		}
		var job models.Job
		if err := utils.UnmarshalFromJSON(raw, &job); err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// ReplaceAll throws the whole cache away and repopulates it from the given
// authoritative snapshot. Used on startup and to roll back after a failed
// remote write.
func (s *Store) ReplaceAll(ctx context.Context, jobs []*models.Job) error {
	keys, err := s.kv.Keys(ctx, keyPattern)
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := s.Put(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

// obtainLock serializes writers of one job id across instances. When the lock
// client is absent (tests, single-instance deployments without Redis), writes
// proceed unserialized.
func (s *Store) obtainLock(ctx context.Context, id string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, "JobCacheLock:"+id, lockLifespan, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 10),
	})
	if err == redislock.ErrNotObtained {
		return nil, errors.New("could not obtain cache lock for job " + id)
	} else if err != nil {
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
