package memory_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/yomimemo/internal/config"
	"github.com/dekarrin/yomimemo/internal/memory"
)

func testParams() memory.Params {
	return memory.FromConfig(config.Defaults())
}

func Test_Retention_decaysTowardZero(t *testing.T) {
	p := testParams()
	r0 := memory.Retention(0, 0, p.BaselineStrength)
	assert.InDelta(t, 1.0, r0, 1e-9)

	rLater := memory.Retention(1000, 0, p.BaselineStrength)
	assert.Less(t, rLater, 0.01)
}

func Test_Retention_strongerWithLargerS(t *testing.T) {
	p := testParams()
	weak := memory.Retention(30, 0, p.BaselineStrength)
	strong := memory.Retention(30, 50, p.BaselineStrength)
	assert.Greater(t, strong, weak)
}

func Test_NextRefresh_isAfterLastRefresh(t *testing.T) {
	p := testParams()
	nr := memory.NextRefresh(100, 0, p)
	assert.Greater(t, nr, 100.0)
}

func Test_Eligible_respectsGracePeriod(t *testing.T) {
	cfg := config.Defaults()
	cfg.RelearnGrace = 2 * 24 * time.Hour
	p := memory.FromConfig(cfg)

	assert.False(t, memory.Eligible(10, 11, p))
	assert.True(t, memory.Eligible(10, 12, p))
}

func Test_Value_peaksAtHalfOfTotal(t *testing.T) {
	total := 100.0
	vLow := memory.Value(10, total)
	vMid := memory.Value(50, total)
	vHigh := memory.Value(90, total)

	assert.Greater(t, vMid, vLow)
	assert.Greater(t, vMid, vHigh)
}

func Test_Value_zeroAtZeroFrequency(t *testing.T) {
	assert.Equal(t, 0.0, memory.Value(0, 100))
}

func Test_Utility_isFiniteForFreshlyKnownAtom(t *testing.T) {
	p := testParams()
	u := memory.Utility(5, 0, 0, 30, 1000, p)
	assert.False(t, math.IsNaN(u))
	assert.False(t, math.IsInf(u, 0))
}

func Test_Utility_growsAsRetentionFalls(t *testing.T) {
	p := testParams()
	// Same s, frequency, totals; only t (via now) grows.
	uSoon := memory.Utility(5, 0, 0, 5, 1000, p)
	uLate := memory.Utility(5, 0, 0, 60, 1000, p)
	assert.Greater(t, uLate, uSoon)
}
