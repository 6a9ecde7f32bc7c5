package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepo appends immutable before/after snapshots of mutations.
type AuditRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AuditRepo) With(db DB) *AuditRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AuditRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *AuditRepo) Append(ctx context.Context, actorID int64, action string, oldData, newData any) error {
	const op = "postgres.AuditRepo.Append"

	oldDoc, err := json.Marshal(oldData)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	newDoc, err := json.Marshal(newData)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	_, err = r.handle().Exec(ctx,
		`INSERT INTO audit_log(actor_id, action, old_data, new_data)
		 VALUES ($1, $2, $3, $4)`,
		actorID, action, oldDoc, newDoc,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
