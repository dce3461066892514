package prompt

// NarrativeCFOSummary is the prompt used to narrate a projection.
const NarrativeCFOSummary = "narrative.cfo_summary"

const cfoSystemPrompt = `You are a CFO-level analyst.
Explain financial projections clearly and conservatively.
When citing numbers, use those provided in the JSON tables.
Provide: 1) executive summary, 2) key drivers, 3) risks & mitigations,
4) sensitivity notes (what changes matter most). Keep it concise.`

const cfoUserTemplate = `Historicals + Projection:

- Trailing historical monthly data (USD):
{{.HistoricalsTable}}

- Forward projection (next {{.Months}} months):
{{.ProjectionTable}}

Assumptions:
{{.Assumptions}}

Tasks:
1) Summarize revenue, gross profit, EBITDA trend.
2) Call out inflection points (month over month).
3) Identify top 2–3 levers (price, churn, CAC, marketing spend, COGS%, opex growth).
4) List 3 risks with mitigations.
5) Give a 2–3 sentence 'Board-ready' summary.`

func builtins() []*PromptTemplate {
	return []*PromptTemplate{
		{
			ID:             NarrativeCFOSummary,
			Name:           "CFO projection summary",
			Category:       "narrative",
			Description:    "Narrates a monthly projection for a non-technical audience",
			SystemPrompt:   cfoSystemPrompt,
			UserPromptTmpl: cfoUserTemplate,
			Variables: []PromptVariable{
				{Name: "HistoricalsTable", Type: "string", Required: true},
				{Name: "Months", Type: "int", Required: true},
				{Name: "ProjectionTable", Type: "string", Required: true},
				{Name: "Assumptions", Type: "string", Required: true},
			},
			Version: "1",
		},
	}
}
