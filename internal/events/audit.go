package events

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"mergington-activities/internal/models"
)

const AuditSinkName = "postgres-audit"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// AuditSink appends every roster event to a Postgres table:
//
//	CREATE TABLE roster_audit (
//	    id          UUID PRIMARY KEY,
//	    event_type  TEXT NOT NULL,
//	    activity    TEXT NOT NULL,
//	    email       TEXT NOT NULL,
//	    occurred_at TIMESTAMPTZ NOT NULL
//	);
type AuditSink struct {
	db     *sql.DB
	insert string
}

func NewAuditSink(db *sql.DB, table string) (*AuditSink, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid audit table name %q", table)
	}
	return &AuditSink{
		db: db,
		insert: fmt.Sprintf(
			`INSERT INTO %s (id, event_type, activity, email, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
			table,
		),
	}, nil
}

func (s *AuditSink) Name() string { return AuditSinkName }

func (s *AuditSink) Publish(ctx context.Context, event models.RosterEvent) error {
	_, err := s.db.ExecContext(ctx, s.insert,
		event.ID,
		string(event.Type),
		event.Activity,
		event.Email,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("audit insert failed: %w", err)
	}
	return nil
}
