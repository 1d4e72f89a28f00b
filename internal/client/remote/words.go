package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

var wordColumns = map[string]string{
	"meaning":    "meaning",
	"example":    "example",
	"example_cn": "example_cn",
	"category":   "category",
	"etymology":  "etymology",
}

// WordsRepository implements Collection[models.Word] over the words table.
type WordsRepository struct {
	db dbx.DBTX
}

func NewWordsRepository(db dbx.DBTX) *WordsRepository {
	return &WordsRepository{db: db}
}

func (r *WordsRepository) Select(ctx context.Context, owner string) ([]models.Word, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, word, meaning, language, example, example_cn, category, etymology, date, created_at
		FROM words WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to select words: %w", err))
	}
	defer rows.Close()

	result := make([]models.Word, 0)
	var skipped []error
	for rows.Next() {
		var w models.Word
		if err := rows.Scan(&w.ID, &w.Word, &w.Meaning, &w.Language, &w.Example,
			&w.ExampleCn, &w.Category, &w.Etymology, &w.Date, &w.CreatedAt); err != nil {
			skipped = append(skipped, err)
			continue
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("failed to iterate words: %w", err))
	}
	if len(skipped) > 0 {
		return result, fmt.Errorf("%w: %d word rows skipped: %w", ErrParseFailed, len(skipped), errors.Join(skipped...))
	}
	return result, nil
}

func (r *WordsRepository) Insert(ctx context.Context, owner, clientID string, w models.Word) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO words (user_id, client_id, word, meaning, language, example, example_cn, category, etymology, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, client_id) DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING id::text`,
		owner, clientID, w.Word, w.Meaning, w.Language, w.Example, w.ExampleCn,
		w.Category, w.Etymology, w.Date, w.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", mapError(fmt.Errorf("failed to insert word: %w", err))
	}
	return id, nil
}

func (r *WordsRepository) Update(ctx context.Context, owner, id string, fields map[string]any) error {
	query, args, err := buildUpdate("words", wordColumns, owner, id, fields)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(fmt.Errorf("failed to update word %s: %w", id, err))
	}
	return expectRow(res, id)
}

func (r *WordsRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM words WHERE user_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return mapError(fmt.Errorf("failed to delete word %s: %w", id, err))
	}
	return expectRow(res, id)
}

// BulkUpsertWords writes words in one transaction, merging on
// (user_id, word, language). It returns the number of rows written.
func (r *WordsRepository) BulkUpsertWords(ctx context.Context, owner string, words []models.Word) (int, error) {
	n := 0
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, w := range words {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO words (user_id, word, meaning, language, example, example_cn, category, etymology, date, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (user_id, word, language) DO UPDATE SET
					meaning = EXCLUDED.meaning,
					example = EXCLUDED.example,
					example_cn = EXCLUDED.example_cn,
					category = EXCLUDED.category,
					etymology = EXCLUDED.etymology`,
				owner, w.Word, w.Meaning, w.Language, w.Example, w.ExampleCn,
				w.Category, w.Etymology, w.Date, w.CreatedAt)
			if err != nil {
				return mapError(fmt.Errorf("failed to upsert word %q: %w", w.Word, err))
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(fmt.Errorf("rows affected error: %w", err))
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
