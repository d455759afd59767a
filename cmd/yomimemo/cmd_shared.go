package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dekarrin/yomimemo/internal/config"
	"github.com/dekarrin/yomimemo/internal/dictionary"
	"github.com/dekarrin/yomimemo/internal/present"
	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store"
)

var (
	glossDBPath       string
	translationDBPath string
)

func init() {
	for _, c := range []*cobra.Command{recommendSentenceCmd, reviewCmd} {
		c.Flags().StringVar(&glossDBPath, "gloss-db", "", "path to a JMdict-shaped gloss database (optional)")
		c.Flags().StringVar(&translationDBPath, "translation-db", "", "path to a Tatoeba-shaped translation database (optional)")
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Defaults(), nil
	}
	return config.LoadTOML(configPath)
}

func newPresenter() (*present.CLIPresenter, error) {
	return present.NewCLI()
}

// lookupTranslation best-effort resolves a translation for sentence using
// the optional translation database; it returns "" rather than an error
// if none is configured or none is found, since a translation is a
// convenience, not a requirement for review.
func lookupTranslation(ctx context.Context, cfg config.Config, sentence store.Sentence) string {
	if translationDBPath == "" || sentence.Source.ID == "" {
		return ""
	}
	tr, err := dictionary.OpenTranslations(translationDBPath)
	if err != nil {
		return ""
	}
	defer tr.Close()

	text, err := tr.Translation(ctx, sentence.Source.ID, cfg.TranslationLanguages)
	if err != nil {
		return ""
	}
	return text
}

// annotateWithGlosses appends a best-effort gloss for every lemma atom in
// breakdown to translation, using the optional gloss database. It never
// fails the caller: a missing database or a lemma with no recorded gloss
// just contributes nothing.
func annotateWithGlosses(ctx context.Context, cfg config.Config, translation string, breakdown []scheduler.AtomBreakdown) string {
	if glossDBPath == "" {
		return translation
	}
	gloss, err := dictionary.OpenGloss(glossDBPath)
	if err != nil {
		return translation
	}
	defer gloss.Close()

	lang := "eng"
	if len(cfg.TranslationLanguages) > 0 {
		lang = cfg.TranslationLanguages[0]
	}

	var parts []string
	for _, ab := range breakdown {
		if ab.Atom.Kind != store.KindLemma {
			continue
		}
		glosses, err := gloss.Lookup(ctx, ab.Atom.Key.Text, lang)
		if err != nil || len(glosses) == 0 {
			continue
		}
		parts = append(parts, ab.Atom.Key.Text+"="+glosses[0])
	}
	if len(parts) == 0 {
		return translation
	}
	if translation == "" {
		return strings.Join(parts, "; ")
	}
	return translation + "\n" + strings.Join(parts, "; ")
}
