// Package present is the minimal built-in stand-in for the interactive
// presentation layer spec section 1 names as an out-of-scope external
// collaborator (dialogs, audio playback). It reads judgments from a
// terminal using a Go readline implementation and renders output
// word-wrapped, grounded on the teacher's internal/input (readline
// reader) and its rosed-based wrapped console output.
package present

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/rosed"

	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/util"
)

const outputWidth = 72

// Presenter is the boundary between the engine and whatever shows
// sentences and takes judgments from a learner. CLIPresenter is the
// only implementation; it exists so internal/learning and
// internal/scheduler never import os/exec or readline directly.
type Presenter interface {
	ShowSentence(sentence store.Sentence, translation string, atoms []scheduler.AtomBreakdown)
	AskAccept(prompt string) (bool, error)
	AskRemembered(unit store.Unit) (bool, error)
	Close() error
}

// CLIPresenter drives a single interactive terminal session.
type CLIPresenter struct {
	rl *readline.Instance
}

func NewCLI() (*CLIPresenter, error) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "> "})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &CLIPresenter{rl: rl}, nil
}

func (c *CLIPresenter) Close() error {
	return c.rl.Close()
}

// ShowSentence prints the sentence, its translation if available, and
// its atom breakdown, wrapped to outputWidth.
func (c *CLIPresenter) ShowSentence(sentence store.Sentence, translation string, atoms []scheduler.AtomBreakdown) {
	var b strings.Builder
	fmt.Fprintln(&b, sentence.Text)
	if len(sentence.Pronunciation) > 0 {
		fmt.Fprintln(&b, strings.Join(sentence.Pronunciation, " "))
	}
	if translation != "" {
		fmt.Fprintln(&b, translation)
	}
	if lemmas := lemmaTexts(atoms); len(lemmas) > 0 {
		fmt.Fprintf(&b, "vocabulary: %s\n", util.MakeTextList(lemmas))
	}
	for _, ab := range atoms {
		fmt.Fprintf(&b, "  %s: %s\n", ab.Atom.Kind, ab.Atom.Key.Text)
	}
	fmt.Println(rosed.Edit(b.String()).Wrap(outputWidth).String())
}

// lemmaTexts pulls out the lemma atoms from a breakdown, in the order
// given, for use in the short vocabulary summary line.
func lemmaTexts(atoms []scheduler.AtomBreakdown) []string {
	var out []string
	for _, ab := range atoms {
		if ab.Atom.Kind == store.KindLemma {
			out = append(out, ab.Atom.Key.Text)
		}
	}
	return out
}

// AskAccept asks a yes/no question, looping until it gets a parseable
// answer.
func (c *CLIPresenter) AskAccept(prompt string) (bool, error) {
	c.rl.SetPrompt(prompt + " [y/n] > ")
	for {
		line, err := c.rl.Readline()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// AskRemembered asks whether the learner recalled the given review unit
// correctly.
func (c *CLIPresenter) AskRemembered(unit store.Unit) (bool, error) {
	return c.AskAccept(fmt.Sprintf("remembered %s (%s)?", unit.Kind, unit.Direction))
}
