package model

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, 50, cfg.Campaign.ChunkSize)
	assert.Equal(t, 8, cfg.Campaign.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Campaign.SendTimeout)
	assert.Equal(t, 2.0, cfg.Estimator.DuplicationFactor)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.SMTP.Host = "mail.corp.test"
	cfg.Campaign.TargetBytes = 5 << 30
	cfg.Campaign.SendTimeout = 45 * time.Second
	cfg.Paths.Identities = "/srv/identities.csv"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mail.corp.test", loaded.SMTP.Host)
	assert.Equal(t, int64(5<<30), loaded.Campaign.TargetBytes)
	assert.Equal(t, 45*time.Second, loaded.Campaign.SendTimeout)
	assert.Equal(t, "/srv/identities.csv", loaded.Paths.Identities)

	// Untouched knobs survive the round trip at their defaults.
	assert.Equal(t, 465, loaded.SMTP.Port)
	assert.Equal(t, 1.33, loaded.Estimator.MIMEOverhead)
}
