// Package dictionary looks up glosses and sentence translations from the
// external reference databases named in spec section 6 as out-of-scope
// collaborators: a JMdict-shaped gloss database (lemma, part of speech,
// language -> gloss text) grounded on original_source/jmdict_data.py's
// entry/gloss tables, and a Tatoeba-shaped translation database
// (sentence id, language -> translated text) grounded on
// original_source/spoon.py's recommend_sentence join.
package dictionary

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/dekarrin/yomimemo/internal/yerr"
)

// Gloss looks up dictionary entries by lemma, joining JMdict's entry and
// gloss tables the way jmdict_data.py populates them.
type Gloss struct {
	db *sql.DB
}

// OpenGloss opens a read-only connection to a JMdict-shaped database
// built by a jmdict_data.py-style converter.
func OpenGloss(path string) (*Gloss, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	return &Gloss{db: db}, nil
}

func (g *Gloss) Close() error { return g.db.Close() }

// Lookup returns every gloss recorded for lemma in the given language,
// across all (ent_seq, variant) entries whose lemma text matches,
// ordered by part of speech for determinism.
func (g *Gloss) Lookup(ctx context.Context, lemma, lang string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT gloss.gloss
		FROM entry
		JOIN gloss ON gloss.ent_seq = entry.ent_seq AND gloss.variant = entry.variant
		WHERE entry.lemma = ? AND gloss.lang = ?
		ORDER BY entry.pos, entry.variant`, lemma, lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var glosses []string
	for rows.Next() {
		var gloss string
		if err := rows.Scan(&gloss); err != nil {
			return nil, err
		}
		glosses = append(glosses, gloss)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(glosses) == 0 {
		return nil, yerr.New("no gloss found", yerr.ErrNotFound)
	}
	return glosses, nil
}

// Translations looks up a parallel-corpus translation of a sentence,
// keyed by the sentence's source_id in an attached Tatoeba-shaped
// database, grounded on original_source/spoon.py's join of
// sentences_detailed and links.
type Translations struct {
	db *sql.DB
}

func OpenTranslations(path string) (*Translations, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	return &Translations{db: db}, nil
}

func (t *Translations) Close() error { return t.db.Close() }

// Translation returns the translated text of the Tatoeba sentence
// identified by sourceID, in the given language, preferring the first
// ordered preference available across languages.
func (t *Translations) Translation(ctx context.Context, sourceID string, languages []string) (string, error) {
	for _, lang := range languages {
		row := t.db.QueryRowContext(ctx, `
			SELECT sentences_detailed.text
			FROM sentences_detailed, links
			WHERE sentences_detailed.lang = ?
			AND sentences_detailed.id = links.translation_id
			AND links.sentence_id = ?`, lang, sourceID)
		var text string
		err := row.Scan(&text)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
	}
	return "", yerr.New("no translation found", yerr.ErrNotFound)
}
