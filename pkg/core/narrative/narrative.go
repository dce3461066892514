// Package narrative turns a projection into a model-written summary for a
// non-technical audience.
package narrative

import (
	"context"
	"fmt"
	"time"

	"scenario_forecast/pkg/core/agent"
	"scenario_forecast/pkg/core/ingest"
	"scenario_forecast/pkg/core/projection"
	"scenario_forecast/pkg/core/prompt"
	"scenario_forecast/pkg/core/scenario"
	"scenario_forecast/pkg/core/store"
	"scenario_forecast/pkg/core/utils"
)

// Generation defaults.
const (
	DefaultMaxTokens   = 2200
	DefaultTemperature = 0.2

	historyRows    = 6
	projectionRows = 6
)

// Generator is the part of agent.Manager the service needs.
type Generator interface {
	Generate(ctx context.Context, name, system, user string, opts agent.Options) (string, error)
}

// activeProvider is implemented by agent.Manager.
type activeProvider interface {
	GetActiveProvider() string
}

// Request describes one narration.
type Request struct {
	History    []projection.HistoricalRecord // sorted ascending
	Projection []projection.ProjectedRecord
	Scenario   *scenario.Scenario
	Provider   string
	Model      string
	MaxTokens  int
}

// Narrative is the model's answer in the forms the API and CLI need.
type Narrative struct {
	Markdown  string
	HTML      string
	PlainText string
	Provider  string
	Cached    bool
}

// Service builds prompts, calls the model and caches answers.
type Service struct {
	gen      Generator
	registry *prompt.Registry
	cache    *store.NarrativeCache // optional
}

// NewService creates a service. registry defaults to the global prompt
// registry; cache may be nil.
func NewService(gen Generator, registry *prompt.Registry, cache *store.NarrativeCache) *Service {
	if registry == nil {
		registry = prompt.Get()
	}
	return &Service{gen: gen, registry: registry, cache: cache}
}

// BuildPrompt renders the system and user prompts for req.
func (s *Service) BuildPrompt(req Request) (system string, user string, err error) {
	pt, err := s.registry.GetPrompt(prompt.NarrativeCFOSummary)
	if err != nil {
		return "", "", err
	}

	sc := req.Scenario
	if sc == nil {
		sc = scenario.New()
	}
	proj := req.Projection
	if len(proj) > projectionRows {
		proj = proj[:projectionRows]
	}

	ctx := prompt.NewContext().
		Set("HistoricalsTable", prompt.FormatHistory(ingest.Tail(req.History, historyRows))).
		Set("Months", sc.MonthsAhead).
		Set("ProjectionTable", prompt.FormatProjection(proj)).
		Set("Assumptions", sc.String())

	user, err = prompt.RenderUserPrompt(pt, ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to render narrative prompt: %w", err)
	}
	return pt.SystemPrompt, user, nil
}

// Narrate asks the selected provider to explain the projection.
func (s *Service) Narrate(ctx context.Context, req Request) (*Narrative, error) {
	system, user, err := s.BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	provider := req.Provider
	if ap, ok := s.gen.(activeProvider); ok && provider == "" {
		provider = ap.GetActiveProvider()
	}

	key := store.Key(provider, req.Model, system, user, maxTokens)
	if s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			fmt.Printf("[NARRATIVE] cache lookup failed: %v\n", err)
		} else if entry != nil {
			fmt.Printf("[NARRATIVE] CACHE HIT provider=%s\n", provider)
			n, err := render(entry.Summary)
			if err != nil {
				return nil, err
			}
			n.Provider = provider
			n.Cached = true
			return n, nil
		}
	}

	temperature := DefaultTemperature
	start := time.Now()
	raw, err := s.gen.Generate(ctx, provider, system, user, agent.Options{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("[NARRATIVE] provider=%s generated %d chars in %s\n", provider, len(raw), time.Since(start).Round(time.Millisecond))

	n, err := render(raw)
	if err != nil {
		return nil, err
	}
	n.Provider = provider

	if s.cache != nil {
		entry := &store.NarrativeEntry{Key: key, Provider: provider, Model: req.Model, Summary: n.Markdown}
		if err := s.cache.Save(ctx, entry); err != nil {
			fmt.Printf("[NARRATIVE] cache save failed: %v\n", err)
		}
	}
	return n, nil
}

func render(raw string) (*Narrative, error) {
	md := utils.CleanMarkdown(raw)
	n := &Narrative{Markdown: md}
	if !utils.ValidateMarkdown(md) {
		return n, nil
	}

	html, err := utils.RenderHTML(md)
	if err != nil {
		return nil, err
	}
	plain, err := utils.PlainText(html)
	if err != nil {
		return nil, err
	}
	n.HTML = html
	n.PlainText = plain
	return n, nil
}
