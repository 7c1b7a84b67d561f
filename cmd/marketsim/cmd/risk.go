package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marketsim/risk"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Check proposed trades against portfolio limits",
	Long: `Evaluate trades against position, exposure, and concentration limits
without running a backtest. Limits are fractions of total portfolio value;
a limit of 0 disables that check.

Subcommands:
  check - Evaluate one proposed trade
  max   - Largest quantity the limits still approve

Examples:
  marketsim risk check --symbol ACME --quantity 500 --price 20
  marketsim risk max --symbol ACME --price 20 --held MSFT=25000`,
}

var riskCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one proposed trade",
	Args:  cobra.NoArgs,
	RunE:  runRiskCheck,
}

var riskMaxCmd = &cobra.Command{
	Use:   "max",
	Short: "Largest quantity the limits still approve",
	Args:  cobra.NoArgs,
	RunE:  runRiskMax,
}

var (
	riskTotal   float64
	riskHeld    []string
	riskMaxPos  float64
	riskMaxExp  float64
	riskMaxConc float64
	riskSymbol  string
	riskQty     int64
	riskPrice   float64
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskCheckCmd)
	riskCmd.AddCommand(riskMaxCmd)

	riskCmd.PersistentFlags().Float64Var(&riskTotal, "total", 100_000, "total portfolio value")
	riskCmd.PersistentFlags().StringArrayVar(&riskHeld, "held", nil, "open notional as SYMBOL=VALUE (repeatable)")
	riskCmd.PersistentFlags().Float64Var(&riskMaxPos, "max-position", 0.10, "single-trade cap as fraction of total (0 disables)")
	riskCmd.PersistentFlags().Float64Var(&riskMaxExp, "max-exposure", 0.60, "total exposure cap as fraction of total (0 disables)")
	riskCmd.PersistentFlags().Float64Var(&riskMaxConc, "max-concentration", 0.25, "per-symbol cap as fraction of total (0 disables)")
	riskCmd.PersistentFlags().StringVar(&riskSymbol, "symbol", "", "trade symbol (required)")
	riskCmd.PersistentFlags().Float64Var(&riskPrice, "price", 0, "trade price (required)")

	riskCheckCmd.Flags().Int64VarP(&riskQty, "quantity", "q", 0, "trade quantity (required)")

	riskCmd.MarkPersistentFlagRequired("symbol")
	riskCmd.MarkPersistentFlagRequired("price")
	riskCheckCmd.MarkFlagRequired("quantity")
}

func runRiskCheck(cmd *cobra.Command, args []string) error {
	snap, err := riskSnapshot(riskTotal, riskHeld)
	if err != nil {
		return err
	}
	sym := strings.ToUpper(riskSymbol)

	r := risk.CheckTrade(snap, sym, riskQty, riskPrice, riskLimits())
	fmt.Printf("Checking: BUY %d %s @ %.4f\n", riskQty, sym, riskPrice)
	fmt.Printf("  Trade value: $%.2f\n", r.TradeValue)
	fmt.Printf("  Open exposure: $%.2f of $%.2f total\n\n", r.Exposure, snap.TotalValue)

	if r.Approved {
		fmt.Println("APPROVED")
		return nil
	}
	fmt.Println("REJECTED")
	for _, v := range r.Violations {
		fmt.Printf("  - %s: %s\n", v.Code, v.Msg)
	}
	return nil
}

func runRiskMax(cmd *cobra.Command, args []string) error {
	snap, err := riskSnapshot(riskTotal, riskHeld)
	if err != nil {
		return err
	}
	sym := strings.ToUpper(riskSymbol)
	limits := riskLimits()

	if !limits.Enabled() {
		fmt.Println("No limits enabled; nothing caps this trade.")
		return nil
	}
	qty, ok := risk.MaxQuantity(snap, sym, riskPrice, limits)
	if !ok {
		fmt.Println("No positive quantity passes the limits.")
		return nil
	}
	fmt.Printf("Largest approvable trade: BUY %d %s @ %.4f (value $%.2f)\n",
		qty, sym, riskPrice, float64(qty)*riskPrice)
	return nil
}

func riskLimits() risk.Limits {
	return risk.Limits{
		MaxPositionPct:      riskMaxPos,
		MaxExposurePct:      riskMaxExp,
		MaxConcentrationPct: riskMaxConc,
	}
}

func riskSnapshot(total float64, held []string) (risk.Snapshot, error) {
	snap := risk.Snapshot{TotalValue: total}
	if len(held) == 0 {
		return snap, nil
	}
	snap.Notional = make(map[string]float64, len(held))
	for _, pair := range held {
		sym, raw, ok := strings.Cut(pair, "=")
		if !ok || sym == "" {
			return risk.Snapshot{}, fmt.Errorf("bad --held %q (want SYMBOL=VALUE)", pair)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return risk.Snapshot{}, fmt.Errorf("bad --held %q: %w", pair, err)
		}
		snap.Notional[strings.ToUpper(sym)] = v
	}
	return snap, nil
}
