package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/surebet-tool/internal/models"
	"github.com/yourusername/surebet-tool/internal/stake"
)

var totalStake float64

func init() {
	rootCmd.Flags().Float64VarP(&totalStake, "stake", "s", 100, "Total stake to split across outcomes")
}

var rootCmd = &cobra.Command{
	Use:   "allocate label=odds [label=odds ...]",
	Short: "Compute a stake plan for a set of odds",
	Long: `Splits a total stake across outcome odds so the payout is equal
whichever outcome occurs. Exits non-zero when the odds do not form an
arbitrage opportunity.

Example:
  allocate --stake 100 Home=2.10 Draw=3.80 Away=4.20`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		surebet, err := parseOutcomes(args)
		if err != nil {
			return err
		}

		plan, err := stake.Allocate(surebet, totalStake)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(plan)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// parseOutcomes turns label=odds arguments into a synthetic surebet
func parseOutcomes(args []string) (models.Surebet, error) {
	surebet := models.Surebet{EventID: "cli"}

	for _, arg := range args {
		label, oddsStr, found := strings.Cut(arg, "=")
		if !found || label == "" {
			return surebet, fmt.Errorf("expected label=odds, got %q", arg)
		}
		odds, err := strconv.ParseFloat(oddsStr, 64)
		if err != nil {
			return surebet, fmt.Errorf("invalid odds in %q: %w", arg, err)
		}
		surebet.Outcomes = append(surebet.Outcomes, models.Outcome{
			Label: label,
			Odds:  odds,
		})
	}

	return surebet, nil
}
