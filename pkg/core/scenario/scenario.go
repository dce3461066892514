// Package scenario holds the request-side scenario schema: the forecast
// horizon plus optional driver overrides.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"scenario_forecast/pkg/core/projection"
	"scenario_forecast/pkg/core/utils"
)

// Horizon bounds, in months.
const (
	DefaultMonthsAhead = 12
	MinMonthsAhead     = 1
	MaxMonthsAhead     = 36
)

// Scenario is the decoded scenario_json form field.
type Scenario struct {
	MonthsAhead int `json:"months_ahead"`
	projection.Assumptions
}

// ValidationError reports a scenario field outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New returns a scenario with the default horizon and no overrides.
func New() *Scenario {
	return &Scenario{MonthsAhead: DefaultMonthsAhead}
}

// Parse decodes raw scenario JSON and validates it. Blank input yields the
// defaults. Hand-edited input with trailing commas, single quotes or
// comments is accepted.
func Parse(raw string) (*Scenario, error) {
	s := New()
	if strings.TrimSpace(raw) == "" {
		return s, nil
	}

	if _, err := utils.SmartParse(raw, s); err != nil {
		return nil, &ValidationError{Field: "scenario_json", Message: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the horizon bounds.
func (s *Scenario) Validate() error {
	if s.MonthsAhead < MinMonthsAhead || s.MonthsAhead > MaxMonthsAhead {
		return &ValidationError{
			Field:   "months_ahead",
			Message: fmt.Sprintf("must be between %d and %d, got %d", MinMonthsAhead, MaxMonthsAhead, s.MonthsAhead),
		}
	}
	return nil
}

// Overrides returns only the drivers the caller actually set, keyed by wire name.
func (s *Scenario) Overrides() map[string]float64 {
	out := make(map[string]float64)
	set := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	set("rev_growth_m", s.RevGrowthM)
	set("churn_m", s.ChurnM)
	set("cac", s.CAC)
	set("marketing_spend", s.MarketingSpend)
	set("price", s.Price)
	set("cogs_pct", s.COGSPct)
	set("opex_growth_m", s.OpexGrowthM)
	return out
}

// String renders the scenario as it is shown to the model: the horizon plus
// any overrides, keys sorted.
func (s *Scenario) String() string {
	overrides := s.Overrides()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "{'months_ahead': %d", s.MonthsAhead)
	for _, k := range keys {
		fmt.Fprintf(&buf, ", '%s': %v", k, overrides[k])
	}
	buf.WriteString("}")
	return buf.String()
}

// MarshalJSON flattens the horizon and the set overrides into one object.
func (s *Scenario) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 8)
	out["months_ahead"] = s.MonthsAhead
	for k, v := range s.Overrides() {
		out[k] = v
	}
	return json.Marshal(out)
}
