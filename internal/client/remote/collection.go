// Package remote is the client's view of the hosted relational store. Every
// query is scoped to the owner id taken from the session token.
package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Collection is one owner-scoped remote table.
type Collection[T any] interface {
	// Select returns every record of owner, newest first. A non-nil error
	// wrapping ErrParseFailed may accompany a usable partial result.
	Select(ctx context.Context, owner string) ([]T, error)

	// Insert stores item and returns the server-assigned id. clientID is an
	// idempotency key: inserting the same clientID twice returns the id of
	// the first insert.
	Insert(ctx context.Context, owner, clientID string, item T) (string, error)

	// Update sets the given columns of one record.
	Update(ctx context.Context, owner, id string, fields map[string]any) error

	// Delete removes one record. A missing record yields ErrNotFound.
	Delete(ctx context.Context, owner, id string) error
}

// buildUpdate renders "UPDATE table SET a = $2, b = $3 WHERE user_id = $1 AND id = $4".
// Only columns present in allowed may be set.
func buildUpdate(table string, allowed map[string]string, owner, id string, fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("%w: no fields to update", ErrRejected)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := []any{owner}
	for _, k := range keys {
		col, ok := allowed[k]
		if !ok {
			return "", nil, fmt.Errorf("%w: field %q cannot be updated", ErrRejected, k)
		}
		args = append(args, fields[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE user_id = $1 AND id = $%d",
		table, strings.Join(sets, ", "), len(args))
	return query, args, nil
}
