package prompt

import (
	"math"
	"strings"

	"scenario_forecast/pkg/core/projection"

	"github.com/shopspring/decimal"
)

// formatNumber renders v with at most places decimals and no trailing zeros.
func formatNumber(v float64, places int32) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}
	return decimal.NewFromFloat(v).Round(places).String()
}

// FormatHistory renders historical records as a right-aligned text table.
func FormatHistory(records []projection.HistoricalRecord) string {
	headers := []string{"month", "revenue", "cogs", "opex", "customers"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			projection.FormatMonth(r.Month),
			formatNumber(r.Revenue, 2),
			formatNumber(r.COGS, 2),
			formatNumber(r.Opex, 2),
			formatNumber(r.Customers, 2),
		})
	}
	return formatTable(headers, rows)
}

// FormatProjection renders projected rows as a right-aligned text table.
func FormatProjection(records []projection.ProjectedRecord) string {
	headers := []string{"month", "customers", "price", "revenue", "cogs", "opex",
		"gross_profit", "ebitda", "ebitda_margin", "churned", "new_acq"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Month,
			formatNumber(r.Customers, 2),
			formatNumber(r.Price, 2),
			formatNumber(r.Revenue, 2),
			formatNumber(r.COGS, 2),
			formatNumber(r.Opex, 2),
			formatNumber(r.GrossProfit, 2),
			formatNumber(r.EBITDA, 2),
			formatNumber(r.EBITDAMargin, 4),
			formatNumber(r.Churned, 2),
			formatNumber(r.NewAcq, 2),
		})
	}
	return formatTable(headers, rows)
}

func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			sb.WriteString(cell)
		}
	}

	writeRow(headers)
	for _, row := range rows {
		sb.WriteString("\n")
		writeRow(row)
	}
	return sb.String()
}
