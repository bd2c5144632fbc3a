package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailseed/internal/model"
)

func runnableConfig() *model.AppConfig {
	return &model.AppConfig{
		SMTP: model.SMTPConfig{Host: "mail.corp.test", Port: 465},
		Campaign: model.CampaignConfig{
			TargetBytes:     1 << 30,
			AvgMessageBytes: 150 * 1024,
			ChunkSize:       50,
			Concurrency:     8,
			SendTimeout:     30 * time.Second,
		},
		Paths: model.PathsConfig{
			Identities:  "/srv/identities.csv",
			Attachments: "/srv/attachments",
			Database:    "mailseed.db",
		},
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(runnableConfig()))

	cases := []struct {
		name   string
		mutate func(*model.AppConfig)
	}{
		{"missing identities", func(c *model.AppConfig) { c.Paths.Identities = "" }},
		{"missing attachments", func(c *model.AppConfig) { c.Paths.Attachments = "" }},
		{"missing smtp host", func(c *model.AppConfig) { c.SMTP.Host = "" }},
		{"zero target", func(c *model.AppConfig) { c.Campaign.TargetBytes = 0 }},
		{"zero avg message size", func(c *model.AppConfig) { c.Campaign.AvgMessageBytes = 0 }},
		{"zero chunk size", func(c *model.AppConfig) { c.Campaign.ChunkSize = 0 }},
		{"negative chunk size", func(c *model.AppConfig) { c.Campaign.ChunkSize = -1 }},
		{"zero concurrency", func(c *model.AppConfig) { c.Campaign.Concurrency = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runnableConfig()
			tc.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestCredentialAndConfigCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"run", "validate", "status", "credential", "config"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestCredentialSetRequiresAddress(t *testing.T) {
	assert.Error(t, credentialSetCmd.Args(credentialSetCmd, nil))
	assert.Error(t, credentialDeleteCmd.Args(credentialDeleteCmd, nil))
	assert.NoError(t, credentialSetCmd.Args(credentialSetCmd, []string{"user0@corp.test"}))
}
