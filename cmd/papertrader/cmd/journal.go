package cmd

import (
	"fmt"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/report"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the session journal",
	Long: `Query and display session records from the SQLite journal.

Subcommands:
  results - List recent session scores
  show    - Show the fills and equity curve of a session
  org     - Render a session as an Org-mode entry

Examples:
  papertrader journal results -n 10
  papertrader journal show <session-id>
  papertrader journal org <session-id> >> diary.org`,
}

var journalResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List recent session scores",
	Args:  cobra.NoArgs,
	RunE:  runJournalResults,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the fills and equity of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org <session-id>",
	Short: "Render a session as Org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrg,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalResultsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalOrgCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default journal.db_path)")
	journalResultsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of results, 0 for all")
}

func openSQLite() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalResults(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListResults(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("query results: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "no sessions")
		return nil
	}
	fmt.Fprintf(out, "%-26s %-8s %-10s %-10s %14s %9s %9s %6s\n",
		"SESSION", "CODE", "FROM", "TO", "FINAL", "RETURN", "DRAWDOWN", "SCORE")
	for _, r := range recs {
		fmt.Fprintf(out, "%-26s %-8s %-10s %-10s %14s %9s %9s %6d\n",
			r.SessionID, r.Instrument, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"),
			report.Money(r.FinalBalance), report.Percent(r.ReturnRate), report.Percent(r.MaxDrawdown), r.Score)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx, id := cmd.Context(), args[0]
	fills, err := j.ListFillsBySession(ctx, id)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}
	curve, err := j.ListEquityBySession(ctx, id)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	if len(fills) == 0 && len(curve) == 0 {
		return fmt.Errorf("session %s: %w", id, journal.ErrNotFound)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, journal.FormatFillsOrg(fills))
	fmt.Fprintf(out, "\n%-5s %-10s %14s %14s %8s %14s\n", "BAR", "DATE", "CASH", "FROZEN", "SHARES", "ASSETS")
	for _, e := range curve {
		fmt.Fprintf(out, "%-5d %-10s %14s %14s %8d %14s\n",
			e.BarIndex, e.Time.Format("2006-01-02"), report.Money(e.Cash), report.Money(e.FrozenCash), e.Shares, report.Money(e.TotalAssets))
	}
	return nil
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx, id := cmd.Context(), args[0]
	r, err := j.GetResult(ctx, id)
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}
	fills, err := j.ListFillsBySession(ctx, id)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}
	s, err := journal.FormatResultOrg(r, fills)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), s)
	return nil
}
