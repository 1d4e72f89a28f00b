package models

import "time"

// Sentence is a saved example sentence, optionally built from saved words.
type Sentence struct {
	ID          string    `json:"id"`
	Sentence    string    `json:"sentence"`
	SentenceCn  string    `json:"sentence_cn"`
	Language    string    `json:"language"`
	Scene       string    `json:"scene,omitempty"`
	SourceType  string    `json:"source_type,omitempty"`
	SourceWords []string  `json:"source_words,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s Sentence) GetID() string { return s.ID }

func (s Sentence) WithID(id string) Sentence {
	s.ID = id
	return s
}

func (s Sentence) GetCreatedAt() time.Time { return s.CreatedAt }

func (s Sentence) WithCreatedAt(t time.Time) Sentence {
	s.CreatedAt = t
	return s
}

func (s Sentence) AudioText() (string, string) { return s.Language, s.Sentence }
