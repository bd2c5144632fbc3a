package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailseed/internal/campaign"
	"github.com/nhle/mailseed/internal/content"
	"github.com/nhle/mailseed/internal/identity"
	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/smtp"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration, inputs, and endpoint reachability",
	Long: `validate performs the same startup checks as run without dispatching
any batch: it loads the identity feed, scans the content pool, and dials the
send endpoint once. A failure here is exactly the class of error that would
abort a run before the first batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := validateConfig(cfg); err != nil {
			return err
		}

		ids, err := identity.Load(cfg.Paths.Identities)
		if err != nil {
			return fmt.Errorf("loading identities: %w", err)
		}

		pool, err := content.Scan(cfg.Paths.Attachments)
		if err != nil {
			return fmt.Errorf("scanning content pool: %w", err)
		}

		client := smtp.NewClient(cfg.SMTP)
		if err := client.Validate(cmd.Context()); err != nil {
			return err
		}

		targets := campaign.ComputeTargets(cfg.Campaign.TargetBytes, cfg.Campaign.AvgMessageBytes)
		logger.Info("configuration valid",
			zap.Int("identities", len(ids.Eligible())),
			zap.Int("content_items", pool.Len()),
			zap.Int("total_sends", targets.Total),
			zap.Int("new_target", targets.New),
			zap.Int("reply_target", targets.Reply),
			zap.Int("forward_target", targets.Forward),
		)
		fmt.Println("ok")
		return nil
	},
}
