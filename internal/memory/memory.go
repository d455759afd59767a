// Package memory holds the pure, side-effect-free functions of the
// forgetting model: retention, next-review scheduling, and the review
// and learning utilities the scheduler ranks candidates by. Nothing in
// this package touches a Store; it only operates on the
// (frequency, last_refresh, last_relearn) triple a caller already has in
// hand.
package memory

import (
	"math"

	"github.com/dekarrin/yomimemo/internal/config"
)

// Params is the subset of config.Config the formulas below need, with
// RelearnGrace already converted to days and DesiredRetention already
// logged, so every call site isn't repeating the same conversions.
type Params struct {
	LogRetention     float64 // ln(desired_retention), negative
	BaselineStrength float64
	TestDelay        float64
	RelearnGraceDays float64
}

// FromConfig derives Params from a loaded Config.
func FromConfig(cfg config.Config) Params {
	return Params{
		LogRetention:     cfg.LogRetention(),
		BaselineStrength: cfg.BaselineStrength,
		TestDelay:        cfg.TestDelay,
		RelearnGraceDays: cfg.RelearnGrace.Hours() / 24,
	}
}

// Retention is the per-atom forgetting curve r(t, s) = exp(-t/(baseline+s)).
// t is days since last_refresh, s is last_refresh - last_relearn, both in
// days.
func Retention(t, s, baselineStrength float64) float64 {
	return math.Exp(-t / (baselineStrength + s))
}

// NextRefresh is the day on which retention is predicted to fall to
// DesiredRetention: last_refresh - (baseline+s)*log_retention. Since
// LogRetention is negative this is always after last_refresh.
func NextRefresh(lastRefresh, s float64, p Params) float64 {
	return lastRefresh - (p.BaselineStrength+s)*p.LogRetention
}

// Eligible reports whether an atom with the given last_refresh is past
// its relearn grace period as of now, both in days since epoch.
func Eligible(lastRefresh, now float64, p Params) bool {
	return now-lastRefresh >= p.RelearnGraceDays
}

// delta is the Δ(s, now) term of the review utility: the normalized gap
// between the retention this atom would have today at its *current*
// relearn timestamp, and the retention it would have had at the
// timescale implied by s, both projected across TestDelay days.
func delta(s, nowMinusLastRelearn float64, p Params) float64 {
	num := math.Exp(-p.TestDelay/(p.BaselineStrength+nowMinusLastRelearn)) -
		math.Exp(-p.TestDelay/(p.BaselineStrength+s))
	den := math.Exp(-p.TestDelay / p.BaselineStrength)
	return num / den
}

// Utility computes U(atom) for an atom with frequency f, currently
// eligible for review (both last_refresh and last_relearn non-null and
// past the relearn grace period). totalSentences must be > 0. Callers
// should check Eligible before calling; Utility does not itself
// re-derive eligibility from the nullability of the timestamps since it
// takes only their values.
func Utility(f, lastRefresh, lastRelearn, now, totalSentences float64, p Params) float64 {
	t := now - lastRefresh
	s := lastRefresh - lastRelearn
	r := Retention(t, s, p.BaselineStrength)
	d := delta(s, now-lastRelearn, p)
	return f * (1 - f/totalSentences) * (r*(d-1) + 1)
}

// Value computes V(atom), the payoff of introducing a currently-unknown
// atom: the probability-weighted information gain of making it known.
func Value(f, totalSentences float64) float64 {
	return f * (1 - f/totalSentences)
}
