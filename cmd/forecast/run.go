package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"scenario_forecast/pkg/core/agent"
	"scenario_forecast/pkg/core/ingest"
	"scenario_forecast/pkg/core/narrative"
	"scenario_forecast/pkg/core/projection"
	"scenario_forecast/pkg/core/prompt"
	"scenario_forecast/pkg/core/scenario"

	"github.com/spf13/cobra"
)

var (
	flagCSV        string
	flagMonths     int
	flagScenario   string
	flagNarrate    bool
	flagProvider   string
	flagModel      string
	flagMaxTokens  int
	flagConfigPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Project a CSV of monthly actuals",
	RunE:  runForecast,
}

func init() {
	runCmd.Flags().StringVarP(&flagCSV, "csv", "f", "", "CSV with month,revenue,cogs,opex,customers columns")
	runCmd.Flags().IntVarP(&flagMonths, "months", "m", 0, "Months to project (overrides the scenario)")
	runCmd.Flags().StringVarP(&flagScenario, "scenario", "s", "", "Scenario JSON, e.g. '{\"churn_m\":0.03}'")
	runCmd.Flags().BoolVar(&flagNarrate, "narrate", false, "Ask an LLM to narrate the projection")
	runCmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "LLM provider (default from config)")
	runCmd.Flags().StringVar(&flagModel, "model", "", "Model override")
	runCmd.Flags().IntVar(&flagMaxTokens, "max-tokens", narrative.DefaultMaxTokens, "Maximum tokens for the narrative")
	runCmd.Flags().StringVar(&flagConfigPath, "config", "config/models.yaml", "Provider config file")
	runCmd.MarkFlagRequired("csv")

	rootCmd.AddCommand(runCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	sc, err := loadScenario(flagScenario, flagMonths, cmd.Flags().Changed("months"))
	if err != nil {
		return err
	}

	f, err := os.Open(flagCSV)
	if err != nil {
		return fmt.Errorf("open %s: %w", flagCSV, err)
	}
	defer f.Close()

	history, forecast, err := project(f, sc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printForecast(out, sc, forecast)

	if !flagNarrate {
		return nil
	}

	cfg, err := agent.LoadConfig(flagConfigPath)
	if err != nil {
		return err
	}
	service := narrative.NewService(agent.NewManager(cfg), nil, nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
	defer cancel()

	n, err := service.Narrate(ctx, narrative.Request{
		History:    history,
		Projection: forecast,
		Scenario:   sc,
		Provider:   flagProvider,
		Model:      flagModel,
		MaxTokens:  flagMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("narrative: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTitle("NARRATIVE"))
	fmt.Fprintln(out)
	if n.PlainText != "" {
		fmt.Fprintln(out, n.PlainText)
	} else {
		fmt.Fprintln(out, n.Markdown)
	}
	return nil
}

// loadScenario parses raw and applies a --months override when set.
func loadScenario(raw string, months int, monthsSet bool) (*scenario.Scenario, error) {
	sc, err := scenario.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if monthsSet {
		sc.MonthsAhead = months
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}
	return sc, nil
}

// project reads actuals from r and runs the simulation for sc.
func project(r io.Reader, sc *scenario.Scenario) ([]projection.HistoricalRecord, []projection.ProjectedRecord, error) {
	records, err := ingest.ParseCSV(r)
	if err != nil {
		return nil, nil, err
	}
	history := projection.SortHistory(records)
	forecast, err := projection.Project(history, sc.MonthsAhead, sc.Assumptions)
	if err != nil {
		return nil, nil, err
	}
	return history, forecast, nil
}

func printForecast(w io.Writer, sc *scenario.Scenario, forecast []projection.ProjectedRecord) {
	fmt.Fprintln(w, renderTitle(fmt.Sprintf("PROJECTION  Next %d months", sc.MonthsAhead)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, prompt.FormatProjection(forecast))
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderMetrics(projection.Summarize(forecast)))
	fmt.Fprintln(w, renderMuted("Assumptions: "+sc.String()))
}
