// Package tokenizer talks to the external morphological analyzer named
// in spec section 1 as an out-of-scope collaborator: it supplies the
// tuple (surface, reading, base, POS chain, conjugation, form) per
// token. The protocol here is grounded on
// original_source/japanese_data.py's read_sentences: one subprocess
// invocation per sentence, a tab-delimited analysis line per token, and
// an "EOS" sentinel line marking the end of the sentence's analysis.
package tokenizer

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dekarrin/yomimemo/internal/yerr"
)

// Token is one analyzed morpheme.
type Token struct {
	Surface       string // the word as it appears in the sentence
	Base          string // dictionary/lemma form
	Disambiguator string // part-of-speech chain distinguishing same-text lemmas
	Grammar       string // conjugation + form, joined
	Pronunciation string // reading, in kana
}

// furiganaPattern matches bracketed furigana annotations of the form
// "[base|reading]" some corpora embed pre-tokenization; stripped down to
// the base text before analysis per spec design note 9's "open
// questions" on furigana handling. Inputs without the annotation are
// unaffected.
var furiganaPattern = regexp.MustCompile(`\[([^|\]]*)\|[^\]]*\]`)

// StripFurigana removes "[base|reading]" annotations, keeping only the
// base text.
func StripFurigana(text string) string {
	return furiganaPattern.ReplaceAllString(text, "$1")
}

// Tokenizer runs an external analyzer binary, one subprocess per
// sentence, communicating over its stdin/stdout.
type Tokenizer struct {
	binary string
	args   []string
}

// New configures a Tokenizer to invoke the given binary (mecab-
// compatible: tab-separated surface, then comma-separated
// category,subcategory,conjugation,form,base,pronunciation,details,
// terminated by an "EOS" line).
func New(binary string, args ...string) *Tokenizer {
	return &Tokenizer{binary: binary, args: args}
}

// Tokenize runs the analyzer on text (after furigana stripping) and
// parses its output into Tokens. It verifies that the concatenation of
// every token's Surface reconstructs the (furigana-stripped) input,
// returning yerr.ErrIngestMalformed if not, per the reconciliation
// requirement implied by ErrIngestMalformed's definition.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]Token, error) {
	stripped := StripFurigana(text)

	cmd := exec.CommandContext(ctx, t.binary, t.args...)
	cmd.Stdin = strings.NewReader(stripped)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, yerr.New("run tokenizer subprocess", err, yerr.ErrMissingDependency)
	}

	tokens, err := parseAnalysis(&stdout)
	if err != nil {
		return nil, err
	}

	var reconstructed strings.Builder
	for _, tok := range tokens {
		reconstructed.WriteString(tok.Surface)
	}
	if reconstructed.String() != stripped {
		return nil, yerr.New("tokenizer surface reconstruction did not match input sentence", yerr.ErrIngestMalformed)
	}

	return tokens, nil
}

func parseAnalysis(r *bytes.Buffer) ([]Token, error) {
	var tokens []Token
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line == "EOS" {
			continue
		}
		surface, analysis, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, yerr.New("malformed tokenizer line (missing surface/analysis separator)", yerr.ErrIngestMalformed)
		}
		fields := strings.Split(analysis, ",")
		if len(fields) < 6 {
			return nil, yerr.New("malformed tokenizer analysis (too few fields)", yerr.ErrIngestMalformed)
		}
		category, subcategory, conjugation, form, base, pronunciation := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]
		tokens = append(tokens, Token{
			Surface:       surface,
			Base:          base,
			Disambiguator: category + "," + subcategory,
			Grammar:       conjugation + "," + form,
			Pronunciation: pronunciation,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, yerr.New("read tokenizer output", err, yerr.ErrIngestMalformed)
	}
	return tokens, nil
}
