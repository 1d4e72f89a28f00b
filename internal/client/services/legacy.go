package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/repositories/metadata"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
)

// BulkWordWriter is the remote capability the legacy import needs.
type BulkWordWriter interface {
	BulkUpsertWords(ctx context.Context, owner string, words []models.Word) (int, error)
}

// legacyWord is the shape written by the old single-device client.
type legacyWord struct {
	Word      string `json:"word"`
	Meaning   string `json:"meaning"`
	Language  string `json:"language"`
	Example   string `json:"example"`
	ExampleCn string `json:"exampleCn"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	Timestamp int64  `json:"timestamp"`
}

// LegacyImporter moves words stored by the old client into the remote store
// once, then erases the local copy.
type LegacyImporter struct {
	db     *sql.DB
	remote BulkWordWriter
	logger logging.Logger
}

func NewLegacyImporter(db *sql.DB, remote BulkWordWriter, logger logging.Logger) *LegacyImporter {
	return &LegacyImporter{db: db, remote: remote, logger: logger.With("component", "legacy_import")}
}

// Run imports pending legacy words for owner and returns how many were
// written. Nothing is erased unless the remote write succeeded.
func (l *LegacyImporter) Run(ctx context.Context, owner string) (int, error) {
	repo := metadata.NewSQLiteRepository(l.db)

	var legacy []legacyWord
	found, err := metadata.GetJSON(ctx, repo, KeyLegacyWords, &legacy)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	words := make([]models.Word, 0, len(legacy))
	for _, lw := range legacy {
		if strings.TrimSpace(lw.Word) == "" {
			continue
		}
		created := time.Now()
		if lw.Timestamp > 0 {
			created = time.UnixMilli(lw.Timestamp)
		}
		w := models.Word{
			Word:      strings.TrimSpace(lw.Word),
			Meaning:   lw.Meaning,
			Language:  lw.Language,
			Example:   lw.Example,
			ExampleCn: lw.ExampleCn,
			Category:  lw.Category,
			Date:      lw.Date,
		}.WithCreatedAt(created)
		words = append(words, w)
	}

	n := 0
	if len(words) > 0 {
		if n, err = l.remote.BulkUpsertWords(ctx, owner, words); err != nil {
			return 0, fmt.Errorf("legacy import: %w", err)
		}
	}
	if err := repo.Delete(ctx, KeyLegacyWords); err != nil {
		return n, err
	}
	l.logger.Info(ctx, "legacy words imported", "count", n)
	return n, nil
}
