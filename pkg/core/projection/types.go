package projection

import (
	"math"
	"time"
)

// HistoricalRecord is one month of actuals as read from the uploaded CSV.
type HistoricalRecord struct {
	Month     time.Time `json:"month"`
	Revenue   float64   `json:"revenue"`
	COGS      float64   `json:"cogs"`
	Opex      float64   `json:"opex"`
	Customers float64   `json:"customers"`
}

// Assumptions holds the scenario drivers supplied by the caller.
// A nil field means "not provided" and is filled by Resolve, never by zero.
type Assumptions struct {
	RevGrowthM     *float64 `json:"rev_growth_m,omitempty"`    // 0.02 = 2%/mo
	ChurnM         *float64 `json:"churn_m,omitempty"`         // fraction of customers lost per month
	CAC            *float64 `json:"cac,omitempty"`             // customer acquisition cost
	MarketingSpend *float64 `json:"marketing_spend,omitempty"` // monthly
	Price          *float64 `json:"price,omitempty"`           // revenue per customer
	COGSPct        *float64 `json:"cogs_pct,omitempty"`        // % of revenue
	OpexGrowthM    *float64 `json:"opex_growth_m,omitempty"`
}

// ResolvedAssumptions is the fully populated driver set used by the simulation.
// Values stay constant across the whole horizon.
type ResolvedAssumptions struct {
	RevGrowthM     float64 `json:"rev_growth_m"`
	ChurnM         float64 `json:"churn_m"`
	CAC            float64 `json:"cac"`
	MarketingSpend float64 `json:"marketing_spend"`
	Price          float64 `json:"price"`
	COGSPct        float64 `json:"cogs_pct"`
	OpexGrowthM    float64 `json:"opex_growth_m"`
}

// ProjectedRecord is a single forward month. Field order matches the forecast table.
type ProjectedRecord struct {
	Month        string  `json:"month"` // YYYY-MM
	Customers    float64 `json:"customers"`
	Price        float64 `json:"price"`
	Revenue      float64 `json:"revenue"`
	COGS         float64 `json:"cogs"`
	Opex         float64 `json:"opex"`
	GrossProfit  float64 `json:"gross_profit"`
	EBITDA       float64 `json:"ebitda"`
	EBITDAMargin float64 `json:"ebitda_margin"`
	Churned      float64 `json:"churned"`
	NewAcq       float64 `json:"new_acq"`
}

// KeyMetrics aggregates a projection for reporting.
type KeyMetrics struct {
	Revenue12M       float64 `json:"revenue_12m"`
	EBITDA12M        float64 `json:"ebitda_12m"`
	EBITDAMarginLast float64 `json:"ebitda_margin_last"`
}

// state is what the simulation carries month to month.
type state struct {
	customers float64
	price     float64
	opex      float64
	month     time.Time // always first of month
}

// Finite reports whether every numeric field is a finite number. Missing
// values in the latest historical month propagate as NaN.
func (p ProjectedRecord) Finite() bool {
	for _, v := range []float64{p.Customers, p.Price, p.Revenue, p.COGS, p.Opex,
		p.GrossProfit, p.EBITDA, p.EBITDAMargin, p.Churned, p.NewAcq} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
