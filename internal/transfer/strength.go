package transfer

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/dekarrin/yomimemo/internal/store"
	"github.com/dekarrin/yomimemo/internal/yerr"
)

const (
	strengthMaxIter = 500
	strengthTol     = 1e-8
)

// StrengthTransfer migrates a legacy store that recorded a single scalar
// memory_strength per atom instead of the (last_refresh, last_relearn)
// pair, per design note 9's compatibility note. A legacy atom's strength
// is taken to be the forgetting-curve relative strength s this engine
// would otherwise persist directly (last_refresh - last_relearn): the
// scalar the old engine's r(t,s) curve was keyed on. Strength is
// aggregated up to each sentence by a row-normalized link matrix (every
// linked atom contributes equally to its sentence's aggregate), matched
// across the rebuild by sentence text, then disaggregated onto the new
// decomposition's atoms by solving the resulting least-squares problem
// with a Jacobi-preconditioned conjugate-gradient iteration on the
// normal equations, since gonum's mat package has no dedicated
// sparse/LSMR solver. now is the days-since-epoch instant the migrated
// atoms are stamped as last refreshed at.
func StrengthTransfer(ctx context.Context, oldStore, newStore store.Store, now float64) error {
	oldSentences, err := oldStore.AllSentences(ctx)
	if err != nil {
		return err
	}
	newSentences, err := newStore.AllSentences(ctx)
	if err != nil {
		return err
	}

	oldCols := map[store.AtomID]int{}
	var oldStrength []float64
	var oldRows [][]weightedCol // one row per old sentence, over oldCols
	var oldText []string

	for _, sentence := range oldSentences {
		atoms, err := oldStore.AtomsForSentence(ctx, sentence.ID)
		if err != nil {
			return err
		}
		var row []weightedCol
		for _, atom := range atoms {
			state := atom.Forward
			if state.LastRefresh == nil || state.LastRelearn == nil {
				continue
			}
			col, ok := oldCols[atom.ID]
			if !ok {
				col = len(oldStrength)
				oldCols[atom.ID] = col
				oldStrength = append(oldStrength, *state.LastRefresh-*state.LastRelearn)
			}
			row = append(row, weightedCol{col: col})
		}
		if len(row) == 0 {
			continue
		}
		oldRows = append(oldRows, row)
		oldText = append(oldText, sentence.Text)
	}
	if len(oldStrength) == 0 {
		return nil
	}

	sentenceMemory := make([]float64, len(oldRows))
	for i, row := range oldRows {
		var sum float64
		for _, wc := range row {
			sum += oldStrength[wc.col]
		}
		sentenceMemory[i] = sum / float64(len(row))
	}
	textMemory := map[string]float64{}
	for i, text := range oldText {
		textMemory[text] = sentenceMemory[i]
	}

	newCols := map[store.AtomID]int{}
	var newAtomIDs []store.AtomID
	var newRows [][]weightedCol
	var b []float64

	for _, sentence := range newSentences {
		memory, ok := textMemory[sentence.Text]
		if !ok {
			continue
		}
		atoms, err := newStore.AtomsForSentence(ctx, sentence.ID)
		if err != nil {
			return err
		}
		var row []weightedCol
		for _, atom := range atoms {
			if atom.Forward.LastRefresh != nil {
				continue // already has progress in the new store; never overwritten
			}
			col, ok := newCols[atom.ID]
			if !ok {
				col = len(newAtomIDs)
				newCols[atom.ID] = col
				newAtomIDs = append(newAtomIDs, atom.ID)
			}
			row = append(row, weightedCol{col: col})
		}
		if len(row) == 0 {
			continue
		}
		newRows = append(newRows, row)
		b = append(b, memory)
	}
	if len(newAtomIDs) == 0 {
		return nil
	}

	a := mat.NewDense(len(newRows), len(newAtomIDs), nil)
	for i, row := range newRows {
		weight := 1 / float64(len(row))
		for _, wc := range row {
			a.Set(i, wc.col, weight)
		}
	}
	bVec := mat.NewVecDense(len(b), b)

	x, err := solveNormalEquationsCG(a, bVec)
	if err != nil {
		return yerr.New("solve memory_strength transfer least squares", err)
	}

	for col, atomID := range newAtomIDs {
		strength := x.AtVec(col)
		if strength < 0 {
			continue
		}
		if err := newStore.Touch(ctx, atomID, store.Forward, now-strength, store.Relearn); err != nil {
			return err
		}
		if err := newStore.Touch(ctx, atomID, store.Forward, now, store.Refresh); err != nil {
			return err
		}
	}

	return nil
}

type weightedCol struct {
	col int
}

// solveNormalEquationsCG solves the least-squares problem minimize
// ||a*x - b|| by conjugate gradient on the normal equations a^T*a*x =
// a^T*b, with a Jacobi (diagonal) preconditioner. Returns
// yerr.ErrTransferFailed if it fails to converge within strengthMaxIter
// iterations.
func solveNormalEquationsCG(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	_, n := a.Dims()

	var at mat.Dense
	at.CloneFrom(a.T())

	var ata mat.Dense
	ata.Mul(&at, a)

	var atb mat.VecDense
	atb.MulVec(&at, b)

	jacobi := make([]float64, n)
	for i := 0; i < n; i++ {
		d := ata.At(i, i)
		if d == 0 {
			d = 1
		}
		jacobi[i] = 1 / d
	}

	x := mat.NewVecDense(n, nil)
	r := mat.NewVecDense(n, nil)
	r.CopyVec(&atb)

	z := mat.NewVecDense(n, nil)
	applyJacobi(z, jacobi, r)
	p := mat.NewVecDense(n, nil)
	p.CopyVec(z)

	rz := mat.Dot(r, z)
	if rz == 0 {
		return x, nil
	}

	ap := mat.NewVecDense(n, nil)
	for iter := 0; iter < strengthMaxIter; iter++ {
		ap.MulVec(&ata, p)
		denom := mat.Dot(p, ap)
		if denom == 0 {
			break
		}
		alpha := rz / denom

		x.AddScaledVec(x, alpha, p)
		r.AddScaledVec(r, -alpha, ap)

		if mat.Norm(r, 2) < strengthTol {
			return x, nil
		}

		applyJacobi(z, jacobi, r)
		rzNew := mat.Dot(r, z)
		beta := rzNew / rz
		p.AddScaledVec(z, beta, p)
		rz = rzNew
	}

	if mat.Norm(r, 2) < strengthTol*100 {
		return x, nil
	}
	return nil, yerr.ErrTransferFailed
}

func applyJacobi(dst *mat.VecDense, jacobi []float64, src *mat.VecDense) {
	for i, w := range jacobi {
		dst.SetVec(i, src.AtVec(i)*w)
	}
}
