package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/query"
)

func formatSentence(s models.Sentence) string {
	out := fmt.Sprintf("%-14s %s [%s] %s", shortID(s.ID), s.Sentence, s.Language, s.SentenceCn)
	if s.Scene != "" {
		out += " (" + s.Scene + ")"
	}
	return out + pendingMark(s.ID)
}

func formatCounts(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s: %d", k, m[k])
	}
	return out
}

func (a *App) AddSentence(ctx context.Context) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	text, err := GetSimpleText(a.reader, "Sentence", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("sentence is required")
	}
	translation, err := GetSimpleText(a.reader, "Translation", a.out)
	if err != nil {
		return err
	}
	lang, err := GetSimpleText(a.reader, "Language code", a.out)
	if err != nil {
		return err
	}
	if lang == "" {
		return errors.New("language is required")
	}
	scene, err := GetSimpleText(a.reader, "Scene (optional)", a.out)
	if err != nil {
		return err
	}
	sources, err := GetSimpleText(a.reader, "Source words, comma separated (optional)", a.out)
	if err != nil {
		return err
	}

	s := models.Sentence{
		Sentence:   text,
		SentenceCn: translation,
		Language:   strings.ToLower(lang),
		Scene:      scene,
		SourceType: "manual",
	}
	for _, w := range strings.Split(sources, ",") {
		if w = strings.TrimSpace(w); w != "" {
			s.SourceWords = append(s.SourceWords, w)
		}
	}

	added, err := a.sentences.Add(ctx, a.owner, s)
	if err != nil {
		return err
	}
	a.printf("Added %s", formatSentence(added))
	return nil
}

// ListSentences prints sentences grouped by day: sentences [all|today|week] [scene].
func (a *App) ListSentences(_ context.Context, args []string) error {
	f := query.Filter{Tab: query.ParseTab(firstArg(args)), Now: a.now()}
	if len(args) > 1 {
		f.Category = args[1]
	}
	items := query.Sentences(a.sentences.Items(), f)
	if len(items) == 0 {
		a.printf("No sentences.")
		return nil
	}
	for _, g := range query.GroupSentencesByDay(items) {
		a.printf("== %s (%d) ==", g.Date, len(g.Items))
		for _, s := range g.Items {
			a.printf("  %s", formatSentence(s))
		}
	}
	return nil
}

func (a *App) DeleteSentence(ctx context.Context, args []string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	s, err := resolve(a.sentences.Items(), firstArg(args))
	if err != nil {
		return err
	}
	tr, err := a.sentences.Delete(ctx, a.owner, s.ID)
	if err != nil {
		return fmt.Errorf("delete sentence %s: %w", tr.Phase, err)
	}
	a.undo = func(ctx context.Context) (string, error) {
		restored, err := a.sentences.Restore(ctx, a.owner, tr.Entity)
		return restored.Sentence, err
	}
	a.printf("Deleted sentence. Type 'undo' to restore it.")
	return nil
}
