// cache-rebuild repopulates the Redis board cache from the database. Run it
// after restoring a backup or flushing Redis.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/jobcache"
	"github.com/montazreklam/jobs_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if config.GetDB() == nil || config.GetRedisDB() == nil {
		fmt.Fprintln(os.Stderr, "database or redis not initialized. Set DB_* and REDIS_* env vars.")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := jobcache.NewRedisStore()
	if migrated, err := store.MigrateLegacyStore(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "legacy cache migration failed: %v\n", err)
		os.Exit(1)
	} else if migrated > 0 {
		fmt.Printf("Migrated %d jobs from the legacy cache layout\n", migrated)
	}

	jobs, _, err := models.PaginateJobs(ctx, models.JobFilter{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load jobs: %v\n", err)
		os.Exit(1)
	}
	if err := store.ReplaceAll(ctx, jobs); err != nil {
		fmt.Fprintf(os.Stderr, "failed to rebuild cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rebuilt cache with %d jobs\n", len(jobs))
}
