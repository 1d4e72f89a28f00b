// Package query filters, groups and counts the in-memory views of words and
// sentences. Nothing here does I/O.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
)

type Tab string

const (
	TabAll   Tab = "all"
	TabToday Tab = "today"
	TabWeek  Tab = "week"
)

// ParseTab maps user input to a tab, defaulting to TabAll.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabToday:
		return TabToday
	case TabWeek:
		return TabWeek
	default:
		return TabAll
	}
}

// Filter narrows a view. Zero fields match everything. Category matches a
// word's category or a sentence's scene. Date is a YYYY-MM-DD day.
type Filter struct {
	Tab      Tab
	Category string
	Search   string
	Date     string
	Now      time.Time
}

// Group is the items saved on one day.
type Group[T any] struct {
	Date  string
	Items []T
}

// Counts aggregates a view.
type Counts struct {
	Total      int
	Today      int
	ByCategory map[string]int
	ByLanguage map[string]int
}

// WordDay is the calendar day a word belongs to.
func WordDay(w models.Word) string {
	if w.Date != "" {
		return w.Date
	}
	return dayOf(w.CreatedAt)
}

// SentenceDay is the calendar day a sentence belongs to.
func SentenceDay(s models.Sentence) string { return dayOf(s.CreatedAt) }

func Words(items []models.Word, f Filter) []models.Word {
	return filter(items, f, accessor[models.Word]{
		day:      WordDay,
		category: func(w models.Word) string { return w.Category },
		text: func(w models.Word) []string {
			return []string{w.Word, w.Meaning, w.Example, w.ExampleCn}
		},
	})
}

func Sentences(items []models.Sentence, f Filter) []models.Sentence {
	return filter(items, f, accessor[models.Sentence]{
		day:      SentenceDay,
		category: func(s models.Sentence) string { return s.Scene },
		text: func(s models.Sentence) []string {
			return append([]string{s.Sentence, s.SentenceCn, s.Scene}, s.SourceWords...)
		},
	})
}

func GroupWordsByDay(items []models.Word) []Group[models.Word] {
	return groupByDay(items, WordDay)
}

func GroupSentencesByDay(items []models.Sentence) []Group[models.Sentence] {
	return groupByDay(items, SentenceDay)
}

func CountWords(items []models.Word, now time.Time) Counts {
	return count(items, now, WordDay,
		func(w models.Word) string { return w.Category },
		func(w models.Word) string { return w.Language })
}

func CountSentences(items []models.Sentence, now time.Time) Counts {
	return count(items, now, SentenceDay,
		func(s models.Sentence) string { return s.Scene },
		func(s models.Sentence) string { return s.Language })
}

type accessor[T any] struct {
	day      func(T) string
	category func(T) string
	text     func(T) []string
}

func filter[T any](items []T, f Filter, a accessor[T]) []T {
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := dayOf(now)
	weekStart := dayOf(now.AddDate(0, 0, -6))
	needle := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]T, 0, len(items))
	for _, it := range items {
		day := a.day(it)
		switch f.Tab {
		case TabToday:
			if day != today {
				continue
			}
		case TabWeek:
			if day < weekStart || day > today {
				continue
			}
		}
		if f.Date != "" && day != f.Date {
			continue
		}
		if f.Category != "" && !strings.EqualFold(a.category(it), f.Category) {
			continue
		}
		if needle != "" && !containsAny(a.text(it), needle) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func containsAny(fields []string, needle string) bool {
	for _, s := range fields {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// groupByDay keeps item order within a day; days are newest first.
func groupByDay[T any](items []T, day func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, it := range items {
		d := day(it)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, Group[T]{Date: d})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}

func count[T any](items []T, now time.Time, day, category, language func(T) string) Counts {
	c := Counts{
		Total:      len(items),
		ByCategory: make(map[string]int),
		ByLanguage: make(map[string]int),
	}
	today := dayOf(now)
	for _, it := range items {
		if day(it) == today {
			c.Today++
		}
		if cat := category(it); cat != "" {
			c.ByCategory[cat]++
		}
		if lang := language(it); lang != "" {
			c.ByLanguage[lang]++
		}
	}
	return c
}

func dayOf(t time.Time) string {
	return t.Local().Format(models.DateLayout)
}
