// Package analytics holds the pure computations behind Monev's reports:
// recurring-charge detection, monthly aggregation and insight text.
// Nothing in this package performs I/O.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// DetectOptions tunes recurring-charge detection.
type DetectOptions struct {
	// AmountTolerance is the relative band around a group's modal amount
	// inside which charges count as "the same price" (0.05 = ±5%).
	AmountTolerance float64
	// Location decides which calendar day a charge falls on.
	Location *time.Location
}

// DefaultDetectOptions returns a ±5% band evaluated in UTC.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{AmountTolerance: 0.05, Location: time.UTC}
}

type cadenceBand struct {
	cadence  domain.Cadence
	min, max int // inclusive gap bounds in days
	nominal  float64
}

// A gap sequence is periodic when every gap fits the same band.
var cadenceBands = []cadenceBand{
	{domain.CadenceWeekly, 6, 8, 7},
	{domain.CadenceMonthly, 20, 40, 30},
	{domain.CadenceYearly, 350, 380, 365},
}

// Classification is the verdict for one merchant/amount group.
// Charge is set only when Verdict is VerdictRecurring.
type Classification struct {
	MerchantKey string
	Merchant    string
	Amount      int64
	Occurrences int
	Verdict     domain.Verdict
	Charge      *domain.RecurringCharge
}

// DetectRecurring returns the recurring charges found in txns, ordered by
// descending monthly cost. An empty input yields an empty, non-nil slice.
func DetectRecurring(txns []domain.Transaction, opts DetectOptions) []domain.RecurringCharge {
	charges := []domain.RecurringCharge{}
	for _, c := range Classify(txns, opts) {
		if c.Verdict == domain.VerdictRecurring {
			charges = append(charges, *c.Charge)
		}
	}

	sort.SliceStable(charges, func(i, j int) bool {
		if charges[i].MonthlyCost != charges[j].MonthlyCost {
			return charges[i].MonthlyCost > charges[j].MonthlyCost
		}
		if charges[i].Merchant != charges[j].Merchant {
			return charges[i].Merchant < charges[j].Merchant
		}
		return charges[i].Amount > charges[j].Amount
	})
	return charges
}

// Classify groups expense transactions by merchant and amount band and
// returns a verdict for every group, in merchant-key order.
func Classify(txns []domain.Transaction, opts DetectOptions) []Classification {
	if opts.AmountTolerance <= 0 {
		opts.AmountTolerance = DefaultDetectOptions().AmountTolerance
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	groups := groupByMerchant(txns)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Classification
	for _, key := range keys {
		for _, cluster := range clusterByAmount(groups[key], opts.AmountTolerance) {
			out = append(out, classifyCluster(key, cluster, opts.Location))
		}
	}
	return out
}

// MerchantKey is the comparison key for a merchant name.
func MerchantKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func groupByMerchant(txns []domain.Transaction) map[string][]domain.Transaction {
	groups := make(map[string][]domain.Transaction)
	for _, t := range txns {
		if t.Type != domain.TxExpense {
			continue
		}
		key := MerchantKey(t.MerchantName)
		if key == "" || t.Amount == 0 {
			continue
		}
		groups[key] = append(groups[key], t)
	}
	return groups
}

type amountCluster struct {
	mode int64
	txns []domain.Transaction
}

// clusterByAmount repeatedly takes the anchor amount of what is left and
// pulls every charge within tol of it into one cluster.
func clusterByAmount(txns []domain.Transaction, tol float64) []amountCluster {
	remaining := txns
	var clusters []amountCluster
	for len(remaining) > 0 {
		mode := modalAmount(remaining, tol)
		band := int64(math.Round(float64(mode) * tol))

		var in, out []domain.Transaction
		for _, t := range remaining {
			diff := t.AbsAmount() - mode
			if diff < 0 {
				diff = -diff
			}
			if diff <= band {
				in = append(in, t)
			} else {
				out = append(out, t)
			}
		}
		clusters = append(clusters, amountCluster{mode: mode, txns: in})
		remaining = out
	}
	return clusters
}

// modalAmount is the most frequent absolute amount. When several amounts
// are equally frequent, as with metered bills that never repeat exactly,
// the one whose band covers the most charges wins so the band sits in the
// middle of the series; remaining ties go to the smaller amount.
func modalAmount(txns []domain.Transaction, tol float64) int64 {
	counts := make(map[int64]int)
	for _, t := range txns {
		counts[t.AbsAmount()]++
	}
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}

	var mode int64
	bestCover := -1
	for amount, n := range counts {
		if n != best {
			continue
		}
		cover := bandCoverage(counts, amount, tol)
		if cover > bestCover || (cover == bestCover && amount < mode) {
			mode, bestCover = amount, cover
		}
	}
	return mode
}

// bandCoverage counts the charges within tol of anchor.
func bandCoverage(counts map[int64]int, anchor int64, tol float64) int {
	band := int64(math.Round(float64(anchor) * tol))
	covered := 0
	for amount, n := range counts {
		diff := amount - anchor
		if diff < 0 {
			diff = -diff
		}
		if diff <= band {
			covered += n
		}
	}
	return covered
}

func classifyCluster(key string, c amountCluster, loc *time.Location) Classification {
	txns := append([]domain.Transaction(nil), c.txns...)
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].OccurredAt.Before(txns[j].OccurredAt)
	})
	latest := txns[len(txns)-1]

	days := distinctDays(txns, loc)
	result := Classification{
		MerchantKey: key,
		Merchant:    strings.TrimSpace(latest.MerchantName),
		Amount:      c.mode,
		Occurrences: len(days),
	}

	if len(days) < 2 {
		result.Verdict = domain.VerdictNotEnoughData
		return result
	}

	band, ok := periodicBand(days)
	if !ok {
		result.Verdict = domain.VerdictIrregular
		return result
	}

	result.Verdict = domain.VerdictRecurring
	result.Charge = &domain.RecurringCharge{
		Merchant:    result.Merchant,
		Amount:      c.mode,
		Frequency:   len(days),
		LastSeen:    latest.OccurredAt,
		Cadence:     band.cadence,
		MonthlyCost: int64(math.Round(float64(c.mode) * 30 / band.nominal)),
		CategoryID:  latest.CategoryID,
	}
	return result
}

// distinctDays collapses same-day charges into one calendar day each,
// returned in ascending order.
func distinctDays(sorted []domain.Transaction, loc *time.Location) []time.Time {
	var days []time.Time
	for _, t := range sorted {
		local := t.OccurredAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if len(days) > 0 && days[len(days)-1].Equal(day) {
			continue
		}
		days = append(days, day)
	}
	return days
}

// periodicBand reports the cadence band every consecutive gap fits in.
func periodicBand(days []time.Time) (cadenceBand, bool) {
	var matched *cadenceBand
	for i := 1; i < len(days); i++ {
		gap := int(days[i].Sub(days[i-1]).Hours() / 24)
		b, ok := bandFor(gap)
		if !ok {
			return cadenceBand{}, false
		}
		if matched == nil {
			matched = &b
		} else if matched.cadence != b.cadence {
			return cadenceBand{}, false
		}
	}
	return *matched, true
}

func bandFor(gapDays int) (cadenceBand, bool) {
	for _, b := range cadenceBands {
		if gapDays >= b.min && gapDays <= b.max {
			return b, true
		}
	}
	return cadenceBand{}, false
}
