package models

import "time"

// Word is a saved vocabulary entry.
type Word struct {
	ID        string    `json:"id"`
	Word      string    `json:"word"`
	Meaning   string    `json:"meaning"`
	Language  string    `json:"language"`
	Example   string    `json:"example,omitempty"`
	ExampleCn string    `json:"example_cn,omitempty"`
	Category  string    `json:"category,omitempty"`
	Etymology string    `json:"etymology,omitempty"`
	// Date is the local calendar day the word was saved, YYYY-MM-DD.
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (w Word) GetID() string { return w.ID }

func (w Word) WithID(id string) Word {
	w.ID = id
	return w
}

func (w Word) GetCreatedAt() time.Time { return w.CreatedAt }

func (w Word) WithCreatedAt(t time.Time) Word {
	w.CreatedAt = t
	if w.Date == "" {
		w.Date = t.Local().Format(DateLayout)
	}
	return w
}

func (w Word) AudioText() (string, string) { return w.Language, w.Word }

// DateLayout is the format of Word.Date.
const DateLayout = "2006-01-02"
