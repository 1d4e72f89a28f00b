package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aaajiao/vocab-tracker-sub000/internal/client/models"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/query"
	"github.com/aaajiao/vocab-tracker-sub000/internal/client/speech"
	"github.com/aaajiao/vocab-tracker-sub000/internal/common"
)

const shortIDLen = 8

// shortID trims an id for display; temporary ids keep their prefix.
func shortID(id string) string {
	prefix := ""
	if models.IsTemporaryID(id) {
		prefix = models.TempIDPrefix
		id = strings.TrimPrefix(id, prefix)
	}
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	return prefix + id
}

func pendingMark(id string) string {
	if models.IsTemporaryID(id) {
		return " (not synced)"
	}
	return ""
}

func formatWord(w models.Word) string {
	s := fmt.Sprintf("%-14s %s [%s] %s", shortID(w.ID), w.Word, w.Language, w.Meaning)
	if w.Category != "" {
		s += " (" + w.Category + ")"
	}
	return s + pendingMark(w.ID)
}

// resolve finds the record whose id equals ref or starts with it.
func resolve[T models.Entity[T]](items []T, ref string) (T, error) {
	var zero T
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return zero, errors.New("id is required")
	}

	var match []T
	for _, it := range items {
		if it.GetID() == ref {
			return it, nil
		}
		if strings.HasPrefix(it.GetID(), ref) {
			match = append(match, it)
		}
	}
	switch len(match) {
	case 0:
		return zero, fmt.Errorf("%s: %w", ref, common.ErrNotFound)
	case 1:
		return match[0], nil
	default:
		return zero, fmt.Errorf("%s matches %d records, use a longer id", ref, len(match))
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (a *App) AddWord(ctx context.Context, args []string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}

	word := strings.TrimSpace(strings.Join(args, " "))
	var err error
	if word == "" {
		if word, err = GetSimpleText(a.reader, "Word", a.out); err != nil {
			return err
		}
	}
	if word == "" {
		return errors.New("word is required")
	}

	lang, err := GetSimpleText(a.reader, "Language code (empty to detect)", a.out)
	if err != nil {
		return err
	}

	w, err := a.generate(ctx, word, strings.ToLower(lang))
	if err != nil {
		a.printf("AI unavailable (%v), enter the details yourself.", err)
		if w, err = a.manualWord(word, lang); err != nil {
			return err
		}
	}

	added, err := a.words.Add(ctx, a.owner, w)
	if err != nil {
		return err
	}
	a.printf("Added %s", formatWord(added))
	if added.Example != "" {
		a.printf("  %s / %s", added.Example, added.ExampleCn)
	}
	return nil
}

func (a *App) generate(ctx context.Context, word, lang string) (models.Word, error) {
	if a.ai == nil {
		return models.Word{}, errors.New("AI is not configured")
	}
	if lang == "" {
		d, err := a.ai.DetectAndGenerate(ctx, word)
		if err != nil {
			return models.Word{}, err
		}
		return d.ToWord(word, d.Language), nil
	}
	c, err := a.ai.GenerateWord(ctx, word, lang)
	if err != nil {
		return models.Word{}, err
	}
	return c.ToWord(word, lang), nil
}

func (a *App) manualWord(word, lang string) (models.Word, error) {
	var err error
	for lang == "" {
		if lang, err = GetSimpleText(a.reader, "Language code", a.out); err != nil {
			return models.Word{}, err
		}
	}
	meaning, err := GetSimpleText(a.reader, "Meaning", a.out)
	if err != nil {
		return models.Word{}, err
	}
	if meaning == "" {
		return models.Word{}, errors.New("meaning is required")
	}
	example, err := GetSimpleText(a.reader, "Example (optional)", a.out)
	if err != nil {
		return models.Word{}, err
	}
	category, err := GetSimpleText(a.reader, "Category (optional)", a.out)
	if err != nil {
		return models.Word{}, err
	}
	return models.Word{
		Word:     word,
		Meaning:  meaning,
		Language: strings.ToLower(lang),
		Example:  example,
		Category: category,
	}, nil
}

// ListWords prints words grouped by day: list [all|today|week] [category].
func (a *App) ListWords(_ context.Context, args []string) error {
	f := query.Filter{Tab: query.ParseTab(firstArg(args)), Now: a.now()}
	if len(args) > 1 {
		f.Category = args[1]
	}
	words := query.Words(a.words.Items(), f)
	if len(words) == 0 {
		a.printf("No words.")
		return nil
	}
	for _, g := range query.GroupWordsByDay(words) {
		a.printf("== %s (%d) ==", g.Date, len(g.Items))
		for _, w := range g.Items {
			a.printf("  %s", formatWord(w))
		}
	}
	return nil
}

func (a *App) Search(_ context.Context, args []string) error {
	needle := strings.Join(args, " ")
	if strings.TrimSpace(needle) == "" {
		return errors.New("usage: search <text>")
	}
	f := query.Filter{Search: needle, Now: a.now()}
	words := query.Words(a.words.Items(), f)
	sentences := query.Sentences(a.sentences.Items(), f)
	for _, w := range words {
		a.printf("  %s", formatWord(w))
	}
	for _, s := range sentences {
		a.printf("  %s", formatSentence(s))
	}
	a.printf("%d words, %d sentences", len(words), len(sentences))
	return nil
}

func (a *App) Stats(_ context.Context) error {
	now := a.now()
	wc := query.CountWords(a.words.Items(), now)
	sc := query.CountSentences(a.sentences.Items(), now)
	a.printf("Words: %d (today %d)", wc.Total, wc.Today)
	for _, line := range formatCounts(wc.ByLanguage) {
		a.printf("  %s", line)
	}
	for _, line := range formatCounts(wc.ByCategory) {
		a.printf("  %s", line)
	}
	a.printf("Sentences: %d (today %d)", sc.Total, sc.Today)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	w, err := resolve(a.words.Items(), firstArg(args))
	if err != nil {
		return err
	}
	tr, err := a.words.Delete(ctx, a.owner, w.ID)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", w.Word, tr.Phase, err)
	}
	a.undo = func(ctx context.Context) (string, error) {
		restored, err := a.words.Restore(ctx, a.owner, tr.Entity)
		return restored.Word, err
	}
	a.printf("Deleted %s. Type 'undo' to restore it.", w.Word)
	return nil
}

func (a *App) Undo(ctx context.Context) error {
	if a.undo == nil {
		a.printf("Nothing to undo.")
		return nil
	}
	what, err := a.undo(ctx)
	if err != nil {
		return err
	}
	a.undo = nil
	a.printf("Restored %s.", what)
	return nil
}

// Regen asks the AI for a new example and patches it into the word.
func (a *App) Regen(ctx context.Context, args []string) error {
	if err := a.requireOwner(); err != nil {
		return err
	}
	if a.ai == nil {
		return errors.New("AI is not configured")
	}
	w, err := resolve(a.words.Items(), firstArg(args))
	if err != nil {
		return err
	}
	ex, err := a.ai.RegenerateExample(ctx, w.Word, w.Language)
	if err != nil {
		return err
	}
	patched, err := a.words.Patch(ctx, a.owner, w.ID, map[string]any{
		"example":    ex.Example,
		"example_cn": ex.ExampleCn,
	})
	if err != nil {
		return err
	}
	a.printf("%s: %s / %s", patched.Word, patched.Example, patched.ExampleCn)
	return nil
}

// Speak pronounces a word or sentence by id.
func (a *App) Speak(ctx context.Context, args []string) error {
	if a.speech == nil {
		return errors.New("speech is not configured")
	}
	ref := firstArg(args)

	var lang, text string
	if w, err := resolve(a.words.Items(), ref); err == nil {
		lang, text = w.AudioText()
	} else if s, serr := resolve(a.sentences.Items(), ref); serr == nil {
		lang, text = s.AudioText()
	} else {
		return err
	}

	src, err := a.speech.Speak(ctx, text, lang)
	if err != nil {
		return err
	}
	if src == speech.SourceFallback {
		a.printf("(spoken by the local fallback)")
	}
	return nil
}
