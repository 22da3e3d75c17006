package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/app"
	"github.com/kailas-cloud/cardquery/internal/config"
	"github.com/kailas-cloud/cardquery/internal/domain/translation"
	"github.com/kailas-cloud/cardquery/internal/translate"
	translateuc "github.com/kailas-cloud/cardquery/internal/usecase/translate"
	"github.com/kailas-cloud/cardquery/pkg/fallback"
)

func newTranslateCmd(opts *rootOptions) *cobra.Command {
	var (
		offline bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "translate <query...>",
		Short: "Translate a natural-language search",
		Long: `Translate a natural-language card search into search syntax.

By default the request goes through the configured cache and learned rules.
With --offline only the local compiler runs and no store is touched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if offline {
				c := translate.NewCompiler().Compile(query)
				return printResult(cmd, translation.Result{
					Query:           query,
					NormalizedQuery: c.Normalized,
					Compiled:        c.Query,
					Explanation:     c.Explanation,
					Confidence:      c.Confidence,
					Source:          translation.SourcePipeline,
					Warnings:        c.Warnings,
				}, asJSON)
			}
			return withApp(cmd.Context(), opts, func(a *app.App, _ config.Config, _ *zap.Logger) error {
				res, err := a.Translator.Translate(cmd.Context(), translateuc.Request{Query: query})
				if err != nil {
					return err
				}
				return printResult(cmd, res, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "compile locally without cache or rules")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newFallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fallback <query...>",
		Short: "Translate with the dependency-free client-side compiler",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), fallback.Compile(strings.Join(args, " ")))
			return err
		},
	}
}

func printResult(cmd *cobra.Command, res translation.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(out, res.Compiled)
	fmt.Fprintf(out, "  explanation: %s\n", res.Explanation)
	fmt.Fprintf(out, "  confidence:  %.2f (%s)\n", res.Confidence, res.Source)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  warning:     %s\n", w)
	}
	return nil
}
