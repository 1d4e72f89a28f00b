package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/dbx"
)

var sentenceColumns = map[string]string{
	"sentence_cn": "sentence_cn",
	"scene":       "scene",
}

// SentencesRepository implements Collection[models.Sentence] over saved_sentences.
type SentencesRepository struct {
	db dbx.DBTX
}

func NewSentencesRepository(db dbx.DBTX) *SentencesRepository {
	return &SentencesRepository{db: db}
}

func (r *SentencesRepository) Select(ctx context.Context, owner string) ([]models.Sentence, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, sentence, sentence_cn, language, scene, source_type, source_words, created_at
		FROM saved_sentences WHERE user_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to select sentences: %w", err))
	}
	defer rows.Close()

	result := make([]models.Sentence, 0)
	var skipped []error
	for rows.Next() {
		var (
			s   models.Sentence
			raw []byte
		)
		if err := rows.Scan(&s.ID, &s.Sentence, &s.SentenceCn, &s.Language, &s.Scene,
			&s.SourceType, &raw, &s.CreatedAt); err != nil {
			skipped = append(skipped, err)
			continue
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &s.SourceWords); err != nil {
				skipped = append(skipped, fmt.Errorf("sentence %s source_words: %w", s.ID, err))
				continue
			}
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(fmt.Errorf("failed to iterate sentences: %w", err))
	}
	if len(skipped) > 0 {
		return result, fmt.Errorf("%w: %d sentence rows skipped: %w", ErrParseFailed, len(skipped), errors.Join(skipped...))
	}
	return result, nil
}

func (r *SentencesRepository) Insert(ctx context.Context, owner, clientID string, s models.Sentence) (string, error) {
	words := s.SourceWords
	if words == nil {
		words = []string{}
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return "", err
	}

	var id string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO saved_sentences (user_id, client_id, sentence, sentence_cn, language, scene, source_type, source_words, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, client_id) DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING id::text`,
		owner, clientID, s.Sentence, s.SentenceCn, s.Language, s.Scene, s.SourceType, string(raw), s.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", mapError(fmt.Errorf("failed to insert sentence: %w", err))
	}
	return id, nil
}

func (r *SentencesRepository) Update(ctx context.Context, owner, id string, fields map[string]any) error {
	query, args, err := buildUpdate("saved_sentences", sentenceColumns, owner, id, fields)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(fmt.Errorf("failed to update sentence %s: %w", id, err))
	}
	return expectRow(res, id)
}

func (r *SentencesRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_sentences WHERE user_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return mapError(fmt.Errorf("failed to delete sentence %s: %w", id, err))
	}
	return expectRow(res, id)
}
