package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/payment-intents/internal/domain"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// nullText creates a pgtype.Text with nil handling
func nullText(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// textPtr converts a nullable column back to *string
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// classify maps driver errors onto the store sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &constraintError{constraint: pgErr.ConstraintName, err: err}
	}
	return err
}

// constraintError reports which unique index rejected a write
type constraintError struct {
	err        error
	constraint string
}

func (e *constraintError) Error() string {
	return "unique constraint " + e.constraint + ": " + e.err.Error()
}

func (e *constraintError) Is(target error) bool {
	return target == domain.ErrUniqueViolation
}

func (e *constraintError) Unwrap() error {
	return e.err
}
