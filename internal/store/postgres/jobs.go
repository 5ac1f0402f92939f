package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"qms/shift-service/internal/store"
)

const jobColumns = `job_id, kind, payload, attempts, last_error, created_at`

func (s *Store) EnqueueJob(ctx context.Context, kind string, payload json.RawMessage) (store.Job, error) {
	var job store.Job
	err := s.pool.QueryRow(ctx, `
		INSERT INTO jobs (job_id, kind, payload) VALUES ($1, $2, $3)
		RETURNING `+jobColumns,
		uuid.NewString(), kind, payload).
		Scan(&job.JobID, &job.Kind, &job.Payload, &job.Attempts, &job.LastError, &job.CreatedAt)
	if err != nil {
		return store.Job{}, err
	}
	return job, nil
}

// ClaimJobs pushes the claimed rows' availability past the lease so a second
// worker skips them, and a crashed worker's jobs come back after it.
func (s *Store) ClaimJobs(ctx context.Context, limit int, lease time.Duration) ([]store.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		UPDATE jobs
		SET attempts = attempts + 1,
		    available_at = NOW() + make_interval(secs => $2)
		WHERE job_id IN (
			SELECT job_id FROM jobs
			WHERE NOT dead AND available_at <= NOW()
			ORDER BY available_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []store.Job
	for rows.Next() {
		var job store.Job
		if err := rows.Scan(&job.JobID, &job.Kind, &job.Payload, &job.Attempts, &job.LastError, &job.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) CompleteJob(ctx context.Context, jobID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM jobs WHERE job_id = $1`, jobID)
	return err
}

func (s *Store) FailJob(ctx context.Context, jobID, reason string, retryAt time.Time, dead bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE jobs SET last_error = $2, available_at = $3, dead = $4 WHERE job_id = $1
	`, jobID, reason, retryAt, dead)
	return err
}
