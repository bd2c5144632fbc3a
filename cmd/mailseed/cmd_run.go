package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mailseed/internal/campaign"
	"github.com/nhle/mailseed/internal/content"
	"github.com/nhle/mailseed/internal/dispatch"
	"github.com/nhle/mailseed/internal/estimate"
	"github.com/nhle/mailseed/internal/generate"
	"github.com/nhle/mailseed/internal/identity"
	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/provision"
	"github.com/nhle/mailseed/internal/smtp"
	"github.com/nhle/mailseed/internal/store"
	"github.com/nhle/mailseed/internal/thread"
)

var forcePhase string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the campaign until the size target is met",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		return runCampaign(ctx)
	},
}

func init() {
	runCmd.Flags().StringVar(&forcePhase, "force-phase", "",
		"operator override: restart the campaign at the given phase (new, reply, forward, overflow)")
}

// runCampaign wires the components and drives the controller to completion.
func runCampaign(ctx context.Context) error {
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
	logger.Info("identity feed loaded",
		zap.Int("total", ids.Len()),
		zap.Int("eligible", len(ids.Eligible())),
	)

	pool, err := content.Scan(cfg.Paths.Attachments)
	if err != nil {
		return fmt.Errorf("scanning content pool: %w", err)
	}
	logger.Info("content pool scanned", zap.Int("items", pool.Len()))

	client := smtp.NewClient(cfg.SMTP)
	if err := client.Validate(ctx); err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(cfg.Paths.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	graph, err := thread.Load(ctx, db)
	if err != nil {
		return err
	}

	gen := generate.New(ids, pool, graph,
		generate.WithInlineImageChance(cfg.Campaign.InlineImageChance))
	disp := dispatch.New(client, cfg.Campaign.Concurrency,
		dispatch.WithTimeout(cfg.Campaign.SendTimeout),
		dispatch.WithRateLimit(cfg.Campaign.RatePerSec))
	est := estimate.New(cfg.Estimator)

	var opts []campaign.Option
	if cfg.IMAP.Host != "" {
		seeder := provision.NewSeeder(cfg.IMAP, nil, cfg.Campaign.ProvisionConcurrency)
		opts = append(opts, campaign.WithFolderSeeder(seeder, ids.Eligible()))
	}

	ctrl, err := campaign.New(ctx, cfg.Campaign, db, graph, gen, disp, est, logger, opts...)
	if err != nil {
		return err
	}

	if forcePhase != "" {
		phase, err := model.ParsePhase(forcePhase)
		if err != nil {
			return err
		}
		if err := ctrl.OverridePhase(ctx, phase); err != nil {
			return err
		}
	}

	summary, err := ctrl.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// validateConfig rejects fatal configuration errors before any work starts.
func validateConfig(cfg *model.AppConfig) error {
	if cfg.Paths.Identities == "" {
		return fmt.Errorf("config: paths.identities is required")
	}
	if cfg.Paths.Attachments == "" {
		return fmt.Errorf("config: paths.attachments is required")
	}
	if cfg.SMTP.Host == "" {
		return fmt.Errorf("config: smtp.host is required")
	}
	if cfg.Campaign.TargetBytes <= 0 {
		return fmt.Errorf("config: campaign.target_bytes must be positive")
	}
	if cfg.Campaign.AvgMessageBytes <= 0 {
		return fmt.Errorf("config: campaign.avg_message_bytes must be positive")
	}
	if cfg.Campaign.ChunkSize <= 0 {
		return fmt.Errorf("config: campaign.chunk_size must be positive")
	}
	if cfg.Campaign.Concurrency <= 0 {
		return fmt.Errorf("config: campaign.concurrency must be positive")
	}
	return nil
}
