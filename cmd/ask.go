package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/translate"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

var (
	askMax             int
	askVerify          bool
	askPush            bool
	askRequireVerified bool
)

var askCmd = &cobra.Command{
	Use:   "ask [request]",
	Short: "Translate a natural-language request into a search and run it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required for ask (LEADGEN_ANTHROPIC_KEY)")
		}

		translator := translate.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
		query, err := translator.Translate(ctx, strings.Join(args, " "), askMax)
		if err != nil {
			return eris.Wrap(err, "translate request")
		}

		zap.L().Info("request translated",
			zap.String("keywords", query.Keywords),
			zap.Strings("person_titles", query.PersonTitles),
		)

		opts := pipeline.Options{
			Verify:               askVerify,
			Push:                 askPush,
			PushRequiresVerified: askRequireVerified || cfg.Pipeline.PushRequiresVerify,
		}

		p, err := newPipeline(opts)
		if err != nil {
			return err
		}

		report, err := p.Run(ctx, query, opts)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	askCmd.Flags().IntVar(&askMax, "max", 10, "max contacts to gather")
	askCmd.Flags().BoolVar(&askVerify, "verify", false, "verify emails via Hunter")
	askCmd.Flags().BoolVar(&askPush, "push", false, "push contacts to the configured CRM")
	askCmd.Flags().BoolVar(&askRequireVerified, "require-verified", false, "only push contacts whose email verified as deliverable")
	rootCmd.AddCommand(askCmd)
}
