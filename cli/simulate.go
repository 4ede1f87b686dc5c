package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/logging"
	"github.com/warp/budget-engine/planning"
	"github.com/warp/budget-engine/planning/store"
)

type simulateOptions struct {
	*rootOptions
	strategy   string
	now        string
	historical int
	future     int
	compare    bool
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "simulate <scenario-id | file.toml | file.json>",
		Short: "Simulate a scenario offline and print the projection",
		Long: "Builds the budget grid for a built-in scenario or a scenario file, runs the\n" +
			"payoff simulation and prints the monthly projection and each debt's payoff.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "Payoff strategy (snowball, avalanche); defaults to the scenario's")
	cmd.Flags().StringVar(&opts.now, "now", "", "Current month as YYYY-MM or YYYY-MM-DD; defaults to the scenario's or today")
	cmd.Flags().IntVar(&opts.historical, "historical", 0, "Historical months to show")
	cmd.Flags().IntVar(&opts.future, "future", 0, "Future months to project")
	cmd.Flags().BoolVarP(&opts.compare, "compare", "c", false, "Also compare snowball and avalanche")
	return cmd
}

func loadScenario(ref string) (*factory.Scenario, error) {
	if sc, ok := factory.Preset(ref); ok {
		return sc, nil
	}
	return factory.LoadScenarioFile(ref)
}

func parseNow(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now %q: want YYYY-MM or YYYY-MM-DD", s)
}

func runSimulate(cmd *cobra.Command, ref string, opts *simulateOptions) error {
	ctx, w := cmd.Context(), cmd.OutOrStdout()
	sc, err := loadScenario(ref)
	if err != nil {
		return err
	}

	cfg := opts.loadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg, logging.ComponentCLI)

	sessionCfg := sc.SessionConfig(cfg.Session())
	if cmd.Flags().Changed("historical") {
		sessionCfg.HistoricalMonths = opts.historical
	}
	if cmd.Flags().Changed("future") {
		sessionCfg.FutureMonths = opts.future
	}
	if err := sessionCfg.Validate(); err != nil {
		return err
	}

	clock := sc.Clock(planning.SystemClock{})
	if opts.now != "" {
		at, err := parseNow(opts.now)
		if err != nil {
			return err
		}
		clock = planning.FixedClock{At: at}
	}

	mem := store.NewMemory()
	if err := sc.Seed(ctx, mem, clock.Now()); err != nil {
		return err
	}

	session := planning.NewSession(sessionCfg, mem, mem,
		planning.WithClock(clock),
		planning.WithLogger(logging.WithComponent(logger, logging.ComponentSession)))
	snap, err := session.Load(ctx)
	if err != nil {
		return err
	}
	if opts.strategy != "" {
		if snap, err = session.SetStrategy(ctx, opts.strategy); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, RenderTitle(fmt.Sprintf("%s  %s", sc.Name, strategyName(snap.Strategy))))
	fmt.Fprintln(w)
	fmt.Fprint(w, RenderTable(projectionTable(snap)))
	fmt.Fprintln(w)
	fmt.Fprint(w, RenderTable(debtTable(snap)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, payoffSummary(snap))

	if opts.compare {
		cmp, err := session.Compare(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, RenderTable(comparisonTable(cmp)))
		fmt.Fprintln(w, "  "+recommendation(cmp))
	}
	return nil
}

func strategyName(s planning.Strategy) string {
	for _, info := range planning.Strategies() {
		if info.Key == s {
			return info.Name
		}
	}
	return string(s)
}

// projectionTable has one line per month: flows rolled up by kind, then the
// payoff rows.
func projectionTable(snap *planning.Snapshot) Table {
	g := snap.Grid
	t := Table{
		Title:   "Monthly Projection",
		Headers: []string{"Month", "Income", "Expenses", "Savings", "Net Savings", "Interest", "Remaining Debt"},
		Muted:   make(map[int]bool),
	}
	rows := g.Rows()
	for i, m := range g.Months() {
		var income, expenses, savings planning.Value
		for _, r := range rows {
			switch r.Kind {
			case planning.RowIncome, planning.RowAdditionalIncome:
				income = income.Add(r.Value(m.Index))
			case planning.RowExpense:
				expenses = expenses.Add(r.Value(m.Index))
			case planning.RowSavings:
				savings = savings.Add(r.Value(m.Index))
			}
		}

		label := m.Label
		if m.Kind == planning.Current {
			label += " *"
		}
		if m.Kind == planning.Historical {
			t.Muted[i] = true
		}
		t.Rows = append(t.Rows, []string{
			label,
			FormatMoney(income),
			FormatMoney(expenses),
			FormatMoney(savings),
			FormatMoney(g.Value(planning.CategoryNetSavings, m.Index)),
			FormatMoney(g.Value(planning.CategoryInterestPaid, m.Index)),
			FormatMoney(g.Value(planning.CategoryRemainingDebt, m.Index)),
		})
	}
	return t
}

// debtTable lists debts in payment order with the month each is cleared.
func debtTable(snap *planning.Snapshot) Table {
	t := Table{
		Title:   "Debts (payment order)",
		Headers: []string{"Debt", "Balance", "Rate", "Paid Off"},
	}
	for _, d := range snap.Strategy.OrderDebts(snap.Debts) {
		paidOff := "beyond horizon"
		if snap.Plan != nil {
			if off, ok := snap.Plan.DebtPayoffOffset(d.Name); ok {
				if mp, ok := snap.Plan.Month(off); ok {
					paidOff = mp.Label
				}
			}
		}
		t.Rows = append(t.Rows, []string{d.Name, FormatMoney(d.Balance), FormatPercent(d.AnnualRatePercent), paidOff})
	}
	return t
}

func payoffSummary(snap *planning.Snapshot) string {
	if snap.Plan == nil || len(snap.Plan.Starting) == 0 {
		return "  " + goodStyle.Render("No debts.")
	}
	plan := snap.Plan
	interest := mutedStyle.Render(fmt.Sprintf("total interest %s, total paid %s",
		FormatMoney(plan.TotalInterest()), FormatMoney(plan.TotalPaid())))

	off, ok := plan.PayoffOffset()
	if !ok {
		return fmt.Sprintf("  %s  %s", warnStyle.Render("Debt remains at the end of the horizon."), interest)
	}
	mp, _ := plan.Month(off)
	return fmt.Sprintf("  %s  %s",
		goodStyle.Render(fmt.Sprintf("Debt free in %s (%d months).", mp.Label, plan.MonthsToPayoff())),
		interest)
}

func comparisonTable(cmp *planning.StrategyComparison) Table {
	months := func(n int) string {
		if n < 0 {
			return "beyond horizon"
		}
		return fmt.Sprintf("%d", n)
	}
	t := Table{
		Title:   "Strategy Comparison",
		Headers: []string{"Strategy", "Total Interest", "Total Paid", "Months"},
	}
	for _, s := range []planning.StrategySummary{cmp.Snowball, cmp.Avalanche} {
		t.Rows = append(t.Rows, []string{
			strategyName(s.Strategy),
			FormatMoney(s.TotalInterest),
			FormatMoney(s.TotalPaid),
			months(s.MonthsToPayoff),
		})
	}
	return t
}

func recommendation(cmp *planning.StrategyComparison) string {
	switch {
	case cmp.InterestSaved.IsPositive():
		return goodStyle.Render(fmt.Sprintf("Avalanche saves %s in interest.", FormatMoney(cmp.InterestSaved)))
	case cmp.InterestSaved.IsNegative():
		return goodStyle.Render(fmt.Sprintf("Snowball saves %s in interest.", FormatMoney(cmp.InterestSaved.Neg())))
	}
	return mutedStyle.Render("Both strategies cost the same interest; snowball gives earlier wins.")
}
