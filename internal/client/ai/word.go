package ai

import (
	"strings"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
)

// ToWord builds a word record from generated content.
func (c WordContent) ToWord(word, language string) models.Word {
	return models.Word{
		Word:      strings.TrimSpace(word),
		Meaning:   c.Translation,
		Language:  language,
		Example:   c.Example,
		ExampleCn: c.ExampleCn,
		Category:  c.Category,
		Etymology: c.Etymology,
	}
}
