package jobcache

import (
	"context"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
)

// MigrateLegacyStore splits the old single-blob store (a JSON array under one
// key) into per-job entries. Runs once: the legacy key is deleted after a
// successful split, so a second call is a no-op. Returns the number of jobs
// migrated.
func (s *Store) MigrateLegacyStore(ctx context.Context) (int, error) {
	logger := config.GetLogger()

	raw, ok, err := s.kv.Get(ctx, legacyKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var jobs []*models.Job
	if err := utils.UnmarshalFromJSON(raw, &jobs); err != nil {
		config.LogError(logger, "jobcache", "MigrateLegacyStore", "legacy store is corrupt", legacyKey, err)
		return 0, err
	}

	for _, job := range jobs {
		if err := s.Put(ctx, job); err != nil {
			return 0, err
		}
	}

	if err := s.kv.Delete(ctx, legacyKey); err != nil {
		return 0, err
	}

	logger.WithField("count", len(jobs)).Info("migrated legacy job cache")
	return len(jobs), nil
}
