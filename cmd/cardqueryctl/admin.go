package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/app"
	"github.com/kailas-cloud/cardquery/internal/config"
	feedbackuc "github.com/kailas-cloud/cardquery/internal/usecase/feedback"
	mineruc "github.com/kailas-cloud/cardquery/internal/usecase/miner"
)

var errNoProcessor = errors.New("feedback processing needs generation.provider to be configured")

func newMineCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Promote frequent translations to learned rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app.App, _ config.Config, _ *zap.Logger) error {
				run := a.Miner.Run
				if dryRun {
					run = a.Miner.DryRun
				}
				report, err := run(cmd.Context())
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), report, dryRun)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report candidates without inserting rules")
	return cmd
}

func newProcessCmd(opts *rootOptions) *cobra.Command {
	var pending int
	cmd := &cobra.Command{
		Use:   "process [feedback-id...]",
		Short: "Turn feedback items into learned rules",
		Long: `Process the given feedback items, or with --pending the oldest
pending items, asking the configured model for a rule for each.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && pending <= 0 {
				return errors.New("pass feedback ids or --pending N")
			}
			return withApp(cmd.Context(), opts, func(a *app.App, _ config.Config, logger *zap.Logger) error {
				if a.Processor == nil {
					return errNoProcessor
				}
				ctx := cmd.Context()
				var outcomes []feedbackuc.Outcome
				if pending > 0 {
					out, err := a.Processor.ProcessPending(ctx, pending)
					if err != nil {
						return err
					}
					outcomes = out
				}
				for _, id := range args {
					out, err := a.Processor.Process(ctx, id)
					if err != nil {
						logger.Warn("Feedback item not processed", zap.String("feedback_id", id), zap.Error(err))
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
						continue
					}
					outcomes = append(outcomes, out)
				}
				for _, o := range outcomes {
					printOutcome(cmd.OutOrStdout(), o)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&pending, "pending", 0, "process up to N of the oldest pending items")
	return cmd
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail feedback items stuck in processing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app.App, cfg config.Config, _ *zap.Logger) error {
				n, err := a.Sweeper.SweepOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "failed %d stale item(s) older than %s\n",
					n, config.Seconds(cfg.Feedback.StaleAfterSec))
				return nil
			})
		},
	}
}

func printReport(w io.Writer, r mineruc.Report, dryRun bool) {
	fmt.Fprintf(w, "scanned %d translation(s), %d candidate(s), %d rejected\n",
		r.Scanned, len(r.Candidates), r.Rejected)
	for _, c := range r.Candidates {
		fmt.Fprintf(w, "  %-40q -> %s (x%d, %.2f)\n", c.Pattern, c.CompiledQuery, c.Count, c.Confidence)
	}
	if dryRun {
		fmt.Fprintln(w, "dry run: no rules inserted")
		return
	}
	fmt.Fprintf(w, "inserted %d rule(s)\n", r.Created)
}

func printOutcome(w io.Writer, o feedbackuc.Outcome) {
	fmt.Fprintf(w, "%s %s", o.ID, o.Status)
	if o.RuleID != "" {
		fmt.Fprintf(w, " rule=%s %q -> %s", o.RuleID, o.Pattern, o.CompiledQuery)
	}
	if o.Reason != "" {
		fmt.Fprintf(w, " (%s)", o.Reason)
	}
	fmt.Fprintln(w)
}
