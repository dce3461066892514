package projection

import (
	"errors"
	"sort"
)

// Default drivers used when the scenario leaves them out.
const (
	DefaultChurnM         = 0.02
	DefaultCAC            = 120.0
	DefaultMarketingSpend = 3000.0
	DefaultOpexGrowthM    = 0.01

	// minCAC keeps new-customer acquisition finite when CAC is zero.
	minCAC = 1e-6
)

// ErrEmptyHistory is returned when there is no month to project from.
var ErrEmptyHistory = errors.New("projection: history is empty")

// SortHistory returns a copy of history ordered by month ascending.
// The caller's slice is left untouched.
func SortHistory(history []HistoricalRecord) []HistoricalRecord {
	sorted := make([]HistoricalRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Month.Before(sorted[j].Month)
	})
	return sorted
}

// Resolve fills every missing driver in a from its default or from the
// history. history must be sorted ascending and non-empty.
func Resolve(history []HistoricalRecord, a Assumptions) ResolvedAssumptions {
	last := history[len(history)-1]

	var r ResolvedAssumptions

	if a.RevGrowthM != nil {
		r.RevGrowthM = *a.RevGrowthM
	} else {
		revenue := make([]float64, len(history))
		for i, h := range history {
			revenue[i] = h.Revenue
		}
		r.RevGrowthM = TrailingGrowth(revenue, DefaultGrowthWindow)
	}

	r.ChurnM = valueOr(a.ChurnM, DefaultChurnM)
	r.CAC = valueOr(a.CAC, DefaultCAC)
	r.MarketingSpend = valueOr(a.MarketingSpend, DefaultMarketingSpend)
	r.OpexGrowthM = valueOr(a.OpexGrowthM, DefaultOpexGrowthM)

	if a.Price != nil {
		r.Price = *a.Price
	} else {
		r.Price = maxOf(1.0, last.Revenue/maxOf(last.Customers, 1))
	}

	if a.COGSPct != nil {
		r.COGSPct = *a.COGSPct
	} else {
		r.COGSPct = last.COGS / maxOf(last.Revenue, 1)
	}

	return r
}

func valueOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

// Project runs the monthly simulation for monthsAhead months starting after
// the latest historical month. Numeric edge cases never produce an error.
func Project(history []HistoricalRecord, monthsAhead int, a Assumptions) ([]ProjectedRecord, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	sorted := SortHistory(history)
	resolved := Resolve(sorted, a)
	last := sorted[len(sorted)-1]

	start := state{
		customers: last.Customers,
		price:     resolved.Price,
		opex:      last.Opex,
		month:     monthStart(last.Month),
	}
	return simulate(start, resolved, monthsAhead), nil
}

// simulate advances s one calendar month at a time. s carries full precision;
// only the emitted rows are rounded.
func simulate(s state, r ResolvedAssumptions, monthsAhead int) []ProjectedRecord {
	if monthsAhead <= 0 {
		return []ProjectedRecord{}
	}

	rows := make([]ProjectedRecord, 0, monthsAhead)
	newAcq := r.MarketingSpend / maxOf(r.CAC, minCAC)

	for i := 1; i <= monthsAhead; i++ {
		s.month = addMonths(s.month, 1)

		churned := s.customers * r.ChurnM
		s.customers = maxOf(0, s.customers-churned+newAcq)

		s.price *= 1 + r.RevGrowthM
		revenue := s.customers * s.price
		cogs := revenue * r.COGSPct

		s.opex *= 1 + r.OpexGrowthM

		grossProfit := revenue - cogs
		ebitda := grossProfit - s.opex
		margin := 0.0
		if revenue != 0 {
			margin = ebitda / revenue
		}

		rows = append(rows, ProjectedRecord{
			Month:        FormatMonth(s.month),
			Customers:    round(s.customers, moneyPlaces),
			Price:        round(s.price, moneyPlaces),
			Revenue:      round(revenue, moneyPlaces),
			COGS:         round(cogs, moneyPlaces),
			Opex:         round(s.opex, moneyPlaces),
			GrossProfit:  round(grossProfit, moneyPlaces),
			EBITDA:       round(ebitda, moneyPlaces),
			EBITDAMargin: round(margin, marginPlaces),
			Churned:      round(churned, moneyPlaces),
			NewAcq:       round(newAcq, moneyPlaces),
		})
	}
	return rows
}

// Summarize reduces a projection to its headline metrics. An empty
// projection yields zero values.
func Summarize(rows []ProjectedRecord) KeyMetrics {
	if len(rows) == 0 {
		return KeyMetrics{}
	}
	var revenue, ebitda float64
	for _, row := range rows {
		revenue += row.Revenue
		ebitda += row.EBITDA
	}
	return KeyMetrics{
		Revenue12M:       round(revenue, moneyPlaces),
		EBITDA12M:        round(ebitda, moneyPlaces),
		EBITDAMarginLast: round(rows[len(rows)-1].EBITDAMargin, marginPlaces),
	}
}
