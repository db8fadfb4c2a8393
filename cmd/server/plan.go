package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/warp/fulfillment-engine/calendar"
	"github.com/warp/fulfillment-engine/schedule"
)

type planOptions struct {
	Method   string
	Start    string
	End      string
	Quantity int
	Holidays []string
	Dates    []string
}

func newPlanCmd() *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the day-by-day plan for one line item",
		Long: `Computes the plan a bulk session would commit for a single line item
without touching any store. Fails when the quantity does not divide evenly
across the production days of the range.`,
		Example: `  server plan --start 2025-03-03 --end 2025-03-08 --quantity 12 --holiday 2025-03-05
  server plan --method specificDays --dates 2025-03-03,2025-03-05 --quantity 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.OutOrStdout(), *opts)
		},
	}

	cmd.Flags().StringVar(&opts.Method, "method", string(schedule.MethodDateRange), "Allocation method: dateRange or specificDays")
	cmd.Flags().StringVar(&opts.Start, "start", "", "First day of the range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.End, "end", "", "Last day of the range (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.Quantity, "quantity", 0, "Units to schedule")
	cmd.Flags().StringSliceVar(&opts.Holidays, "holiday", nil, "Holiday inside the range, repeatable")
	cmd.Flags().StringSliceVar(&opts.Dates, "dates", nil, "Production days for specificDays")
	_ = cmd.MarkFlagRequired("quantity")
	return cmd
}

func runPlan(out io.Writer, opts planOptions) error {
	cfg := schedule.LineItemConfig{
		Method:     schedule.Method(opts.Method),
		AssigneeID: "cli",
	}

	var err error
	if opts.Start != "" {
		if cfg.StartDate, err = calendar.ParseDate(opts.Start); err != nil {
			return fmt.Errorf("--start: %w", err)
		}
	}
	if opts.End != "" {
		if cfg.EndDate, err = calendar.ParseDate(opts.End); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}
	if cfg.Holidays, err = parseDates("--holiday", opts.Holidays); err != nil {
		return err
	}
	if cfg.Dates, err = parseDates("--dates", opts.Dates); err != nil {
		return err
	}

	plan, err := schedule.PlanLineItem(cfg, opts.Quantity)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%-12s %-10s %s\n", "DATE", "DAY", "UNITS")
	for _, c := range plan.Counts() {
		fmt.Fprintf(out, "%-12s %-10s %d\n", c.Date, c.Date.Weekday(), c.Units)
	}
	fmt.Fprintf(out, "\n%d units over %d days", plan.Units(), len(plan.Days))
	if len(plan.Holidays) > 0 {
		fmt.Fprintf(out, ", %d holidays redistributed", len(plan.Holidays))
	}
	fmt.Fprintln(out)
	return nil
}

func parseDates(flag string, values []string) ([]calendar.Date, error) {
	dates := make([]calendar.Date, 0, len(values))
	for _, v := range values {
		d, err := calendar.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", flag, v, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
