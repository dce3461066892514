package projection

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleHistory() []HistoricalRecord {
	return []HistoricalRecord{
		{Month: month(2023, 10), Revenue: 800, COGS: 240, Opex: 190, Customers: 90},
		{Month: month(2023, 11), Revenue: 850, COGS: 255, Opex: 195, Customers: 92},
		{Month: month(2023, 12), Revenue: 920, COGS: 276, Opex: 198, Customers: 96},
		{Month: month(2024, 1), Revenue: 1000, COGS: 300, Opex: 200, Customers: 100},
	}
}

func TestProject_WorkedExample(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 1000, COGS: 300, Opex: 200, Customers: 100},
	}
	a := Assumptions{
		ChurnM:         Float(0),
		CAC:            Float(100),
		MarketingSpend: Float(1000),
		RevGrowthM:     Float(0),
	}

	rows, err := Project(history, 1, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	want := ProjectedRecord{
		Month:        "2024-02",
		Customers:    110,
		Price:        10,
		Revenue:      1100,
		COGS:         330,
		Opex:         202,
		GrossProfit:  770,
		EBITDA:       568,
		EBITDAMargin: 0.5164,
		Churned:      0,
		NewAcq:       10,
	}
	if rows[0] != want {
		t.Errorf("row mismatch\n got: %+v\nwant: %+v", rows[0], want)
	}
}

func TestProject_HorizonLengthAndMonths(t *testing.T) {
	history := []HistoricalRecord{
		{Month: time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC), Revenue: 500, COGS: 100, Opex: 50, Customers: 10},
	}
	rows, err := Project(history, 15, Assumptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 15 {
		t.Fatalf("expected 15 rows, got %d", len(rows))
	}

	expected := []string{"2023-12", "2024-01", "2024-02", "2024-03"}
	for i, m := range expected {
		if rows[i].Month != m {
			t.Errorf("row %d: expected month %s, got %s", i, m, rows[i].Month)
		}
	}
	if rows[14].Month != "2025-02" {
		t.Errorf("expected last month 2025-02, got %s", rows[14].Month)
	}

	prev, _ := time.Parse("2006-01", rows[0].Month)
	for _, row := range rows[1:] {
		cur, err := time.Parse("2006-01", row.Month)
		if err != nil {
			t.Fatalf("bad month label %q: %v", row.Month, err)
		}
		if !cur.Equal(prev.AddDate(0, 1, 0)) {
			t.Errorf("month %s does not follow %s", row.Month, prev.Format("2006-01"))
		}
		prev = cur
	}
}

func TestProject_SortsHistoryWithoutMutatingInput(t *testing.T) {
	history := sampleHistory()
	shuffled := []HistoricalRecord{history[2], history[0], history[3], history[1]}
	original := make([]HistoricalRecord, len(shuffled))
	copy(original, shuffled)

	got, err := Project(shuffled, 6, Assumptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Project(history, 6, Assumptions{})

	if !reflect.DeepEqual(got, want) {
		t.Error("projection from unsorted history differs from sorted history")
	}
	if !reflect.DeepEqual(shuffled, original) {
		t.Error("input history was mutated")
	}
	if got[0].Month != "2024-02" {
		t.Errorf("expected projection to start after latest month, got %s", got[0].Month)
	}
}

func TestProject_CustomersNeverNegative(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 6), Revenue: 100, COGS: 10, Opex: 10, Customers: 5},
	}
	a := Assumptions{
		ChurnM:         Float(1.5),
		MarketingSpend: Float(0),
	}
	rows, err := Project(history, 12, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range rows {
		if row.Customers < 0 {
			t.Errorf("%s: customers went negative: %f", row.Month, row.Customers)
		}
	}
}

func TestProject_ZeroRevenueHasZeroMargin(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 0, COGS: 0, Opex: 100, Customers: 0},
	}
	a := Assumptions{MarketingSpend: Float(0), ChurnM: Float(0)}
	rows, err := Project(history, 3, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range rows {
		if row.Revenue != 0 {
			t.Fatalf("expected zero revenue, got %f", row.Revenue)
		}
		if row.EBITDAMargin != 0 {
			t.Errorf("%s: expected margin 0, got %f", row.Month, row.EBITDAMargin)
		}
		if math.IsNaN(row.EBITDAMargin) {
			t.Errorf("%s: margin is NaN", row.Month)
		}
	}
}

func TestProject_ZeroCACIsFinite(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 1000, COGS: 300, Opex: 200, Customers: 100},
	}
	rows, err := Project(history, 1, Assumptions{CAC: Float(0), MarketingSpend: Float(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsInf(rows[0].NewAcq, 0) || math.IsNaN(rows[0].NewAcq) {
		t.Errorf("new_acq should be finite, got %f", rows[0].NewAcq)
	}
	if rows[0].NewAcq != 1e6 {
		t.Errorf("expected new_acq 1e6, got %f", rows[0].NewAcq)
	}
}

func TestProject_Idempotent(t *testing.T) {
	history := sampleHistory()
	a := Assumptions{ChurnM: Float(0.015), CAC: Float(110), MarketingSpend: Float(4000)}

	first, _ := Project(history, 36, a)
	second, _ := Project(history, 36, a)
	if !reflect.DeepEqual(first, second) {
		t.Error("two identical runs produced different output")
	}
}

func TestProject_CompoundsAtFullPrecision(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 1000, COGS: 0, Opex: 100.004, Customers: 100},
	}
	a := Assumptions{
		ChurnM:         Float(0),
		MarketingSpend: Float(0),
		RevGrowthM:     Float(0.001),
		OpexGrowthM:    Float(0),
		Price:          Float(10.004),
	}
	rows, err := Project(history, 24, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Price and opex compound unrounded; only the row is rounded.
	wantPrice := 10.004 * math.Pow(1.001, 24)
	if math.Abs(rows[23].Price-wantPrice) > 0.005 {
		t.Errorf("expected price ~%.4f, got %.2f", wantPrice, rows[23].Price)
	}
	for _, row := range rows {
		if row.Opex != 100 {
			t.Errorf("%s: expected opex rounded to 100, got %f", row.Month, row.Opex)
		}
	}
}

func TestProject_EmptyHistory(t *testing.T) {
	if _, err := Project(nil, 12, Assumptions{}); err != ErrEmptyHistory {
		t.Errorf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestProject_NonPositiveHorizon(t *testing.T) {
	rows, err := Project(sampleHistory(), 0, Assumptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestResolve_Fallbacks(t *testing.T) {
	history := sampleHistory()
	r := Resolve(history, Assumptions{})

	if r.ChurnM != DefaultChurnM {
		t.Errorf("churn: expected %f, got %f", DefaultChurnM, r.ChurnM)
	}
	if r.CAC != DefaultCAC {
		t.Errorf("cac: expected %f, got %f", DefaultCAC, r.CAC)
	}
	if r.MarketingSpend != DefaultMarketingSpend {
		t.Errorf("marketing spend: expected %f, got %f", DefaultMarketingSpend, r.MarketingSpend)
	}
	if r.OpexGrowthM != DefaultOpexGrowthM {
		t.Errorf("opex growth: expected %f, got %f", DefaultOpexGrowthM, r.OpexGrowthM)
	}
	if r.Price != 10 {
		t.Errorf("price: expected 10, got %f", r.Price)
	}
	if math.Abs(r.COGSPct-0.3) > 1e-12 {
		t.Errorf("cogs pct: expected 0.3, got %f", r.COGSPct)
	}
	wantGrowth := math.Pow(1000.0/800.0, 1.0/3) - 1
	if math.Abs(r.RevGrowthM-wantGrowth) > 1e-12 {
		t.Errorf("rev growth: expected %f, got %f", wantGrowth, r.RevGrowthM)
	}
}

func TestResolve_ExplicitZeroIsKept(t *testing.T) {
	r := Resolve(sampleHistory(), Assumptions{
		RevGrowthM:  Float(0),
		ChurnM:      Float(0),
		COGSPct:     Float(0),
		OpexGrowthM: Float(0),
	})
	if r.RevGrowthM != 0 || r.ChurnM != 0 || r.COGSPct != 0 || r.OpexGrowthM != 0 {
		t.Errorf("explicit zeros replaced by fallbacks: %+v", r)
	}
}

func TestResolve_PriceFloor(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 50, COGS: 10, Opex: 10, Customers: 200},
	}
	if r := Resolve(history, Assumptions{}); r.Price != 1.0 {
		t.Errorf("expected price floored at 1.0, got %f", r.Price)
	}

	// Zero customers divides by 1 instead.
	history[0].Customers = 0
	if r := Resolve(history, Assumptions{}); r.Price != 50 {
		t.Errorf("expected price 50 with zero customers, got %f", r.Price)
	}
}

func TestResolve_COGSPctSmallRevenue(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 0.5, COGS: 2, Opex: 10, Customers: 1},
	}
	if r := Resolve(history, Assumptions{}); r.COGSPct != 2 {
		t.Errorf("expected cogs pct 2 (divided by floor 1), got %f", r.COGSPct)
	}
}

func TestSummarize(t *testing.T) {
	rows := []ProjectedRecord{
		{Month: "2024-02", Revenue: 100.25, EBITDA: 10.5, EBITDAMargin: 0.1047},
		{Month: "2024-03", Revenue: 200.5, EBITDA: -5.25, EBITDAMargin: -0.0262},
	}
	got := Summarize(rows)
	want := KeyMetrics{Revenue12M: 300.75, EBITDA12M: 5.25, EBITDAMarginLast: -0.0262}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if empty := Summarize(nil); empty != (KeyMetrics{}) {
		t.Errorf("expected zero metrics for empty projection, got %+v", empty)
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.516363636, 4, 0.5164},
		{2.675, 2, 2.67}, // binary value is just below 2.675
		{1234.5678, 2, 1234.57},
		{-0.125, 2, -0.12},
	}
	for _, c := range cases {
		if got := round(c.in, c.places); got != c.want {
			t.Errorf("round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestProjectedRecord_Finite(t *testing.T) {
	history := []HistoricalRecord{
		{Month: month(2024, 1), Revenue: 1000, COGS: 300, Opex: math.NaN(), Customers: 100},
	}
	rows, err := Project(history, 2, Assumptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Finite() {
		t.Error("NaN opex should make the row non-finite")
	}

	history[0].Opex = 200
	rows, _ = Project(history, 2, Assumptions{})
	if !rows[1].Finite() {
		t.Errorf("expected finite row, got %+v", rows[1])
	}
}
