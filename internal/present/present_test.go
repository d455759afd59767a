package present

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/yomimemo/internal/scheduler"
	"github.com/dekarrin/yomimemo/internal/store"
)

func Test_lemmaTexts_pullsOnlyLemmaKindAtomsInOrder(t *testing.T) {
	atoms := []scheduler.AtomBreakdown{
		{Atom: store.Atom{Kind: store.KindGrammar, Key: store.AtomKey{Text: "基本形"}}},
		{Atom: store.Atom{Kind: store.KindLemma, Key: store.AtomKey{Text: "食べる"}}},
		{Atom: store.Atom{Kind: store.KindGrapheme, Key: store.AtomKey{Text: "食"}}},
		{Atom: store.Atom{Kind: store.KindLemma, Key: store.AtomKey{Text: "ます"}}},
	}

	assert.Equal(t, []string{"食べる", "ます"}, lemmaTexts(atoms))
}
