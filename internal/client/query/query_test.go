package query

import (
	"testing"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 8, 10, 12, 0, 0, 0, time.Local)

func daysAgo(n int) time.Time { return now.AddDate(0, 0, -n) }

func sampleWords() []models.Word {
	return []models.Word{
		{ID: "1", Word: "gato", Meaning: "猫", Language: "es", Category: "noun", Date: dayOf(now), CreatedAt: now},
		{ID: "2", Word: "correr", Meaning: "跑", Language: "es", Category: "verb", Example: "Me gusta correr.", Date: dayOf(daysAgo(2)), CreatedAt: daysAgo(2)},
		{ID: "3", Word: "chat", Meaning: "猫", Language: "fr", Category: "noun", Date: dayOf(daysAgo(2)), CreatedAt: daysAgo(2).Add(-time.Hour)},
		{ID: "4", Word: "old", Meaning: "旧", Language: "en", Category: "adjective", CreatedAt: daysAgo(30)},
	}
}

func ids(ws []models.Word) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabToday, ParseTab(" Today "))
	assert.Equal(t, TabWeek, ParseTab("week"))
	assert.Equal(t, TabAll, ParseTab(""))
	assert.Equal(t, TabAll, ParseTab("month"))
}

func TestWords_Filters(t *testing.T) {
	words := sampleWords()

	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Words(words, Filter{Now: now})))
	assert.Equal(t, []string{"1"}, ids(Words(words, Filter{Tab: TabToday, Now: now})))
	assert.Equal(t, []string{"1", "2", "3"}, ids(Words(words, Filter{Tab: TabWeek, Now: now})))
	assert.Equal(t, []string{"1", "3"}, ids(Words(words, Filter{Category: "NOUN", Now: now})))
	assert.Equal(t, []string{"1", "3"}, ids(Words(words, Filter{Search: "猫", Now: now})))
	assert.Equal(t, []string{"2"}, ids(Words(words, Filter{Search: "GUSTA", Now: now})))
	assert.Equal(t, []string{"2", "3"}, ids(Words(words, Filter{Date: dayOf(daysAgo(2)), Now: now})))
	assert.Equal(t, []string{"3"}, ids(Words(words, Filter{Tab: TabWeek, Category: "noun", Search: "cha", Now: now})))
	assert.Empty(t, Words(nil, Filter{}))
}

func TestSentences_Filters(t *testing.T) {
	sentences := []models.Sentence{
		{ID: "a", Sentence: "El gato corre.", SentenceCn: "猫在跑。", Language: "es", Scene: "daily", SourceWords: []string{"gato", "correr"}, CreatedAt: now},
		{ID: "b", Sentence: "Bonjour.", Language: "fr", Scene: "travel", CreatedAt: daysAgo(10)},
	}

	got := Sentences(sentences, Filter{Search: "correr", Now: now})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got = Sentences(sentences, Filter{Category: "travel", Now: now})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	assert.Len(t, Sentences(sentences, Filter{Tab: TabWeek, Now: now}), 1)
}

func TestGroupWordsByDay(t *testing.T) {
	words := sampleWords()
	// out of order input still yields newest day first
	groups := GroupWordsByDay([]models.Word{words[3], words[1], words[0], words[2]})

	require.Len(t, groups, 3)
	assert.Equal(t, dayOf(now), groups[0].Date)
	assert.Equal(t, dayOf(daysAgo(2)), groups[1].Date)
	assert.Equal(t, []string{"2", "3"}, ids(groups[1].Items))
	assert.Equal(t, dayOf(daysAgo(30)), groups[2].Date)
}

func TestGroupSentencesByDay(t *testing.T) {
	groups := GroupSentencesByDay([]models.Sentence{
		{ID: "a", CreatedAt: now},
		{ID: "b", CreatedAt: now.Add(-time.Minute)},
	})
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Items, 2)
}

func TestCountWords(t *testing.T) {
	c := CountWords(sampleWords(), now)
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 1, c.Today)
	assert.Equal(t, map[string]int{"noun": 2, "verb": 1, "adjective": 1}, c.ByCategory)
	assert.Equal(t, map[string]int{"es": 2, "fr": 1, "en": 1}, c.ByLanguage)
}

func TestCountSentences(t *testing.T) {
	c := CountSentences([]models.Sentence{
		{Language: "es", Scene: "daily", CreatedAt: now},
		{Language: "es", CreatedAt: daysAgo(1)},
	}, now)
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, 1, c.Today)
	assert.Equal(t, map[string]int{"daily": 1}, c.ByCategory)
	assert.Equal(t, map[string]int{"es": 2}, c.ByLanguage)
}
