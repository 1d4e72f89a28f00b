package services

import (
	"database/sql"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/localstore"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/remote"
	"github.com/aaajiao/vocab-tracker-sub000/internal/logging"
)

type (
	WordService     = EntityService[models.Word]
	SentenceService = EntityService[models.Sentence]
)

func NewWordService(db *sql.DB, rem remote.Collection[models.Word], net Connectivity, evictor AudioEvictor, logger logging.Logger) (*WordService, error) {
	local, err := localstore.New[models.Word](db, models.KindWords, logger)
	if err != nil {
		return nil, err
	}
	return NewEntityService(local, rem, net, evictor, logger), nil
}

func NewSentenceService(db *sql.DB, rem remote.Collection[models.Sentence], net Connectivity, evictor AudioEvictor, logger logging.Logger) (*SentenceService, error) {
	local, err := localstore.New[models.Sentence](db, models.KindSentences, logger)
	if err != nil {
		return nil, err
	}
	return NewEntityService(local, rem, net, evictor, logger), nil
}
