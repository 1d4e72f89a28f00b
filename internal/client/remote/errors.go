package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUnavailable means the remote store could not be reached or is
	// temporarily refusing work. Retrying later may succeed.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrRejected means the request reached the store and was refused
	// (constraint, permission, unknown field).
	ErrRejected = errors.New("remote store rejected request")

	// ErrNotFound means the target row does not exist for this owner.
	ErrNotFound = errors.New("remote record not found")

	// ErrParseFailed accompanies a partial Select result when some rows
	// could not be decoded and were skipped.
	ErrParseFailed = errors.New("remote record could not be decoded")
)

// mapError classifies driver errors once at the boundary.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "22P02":
			// malformed id, e.g. a temporary id sent to a uuid column
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.Message)
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == "08" || pgErr.Code[:2] == "53" || pgErr.Code[:2] == "57"):
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
