package content

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePoolDir lays out a content pool directory with items in each tier.
func writePoolDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]int{
		"small/note.txt":    1 << 10,
		"small/logo.png":    2 << 10,
		"medium/report.pdf": 200 << 10,
		"large/deck.pptx":   2 << 20,
		"large/video.bin":   8 << 20,
	}
	for name, size := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}
	return root
}

func TestScanTiers(t *testing.T) {
	pool, err := Scan(writePoolDir(t))
	require.NoError(t, err)

	assert.Equal(t, 5, pool.Len())
	assert.Len(t, pool.Tier(TierSmall), 2)
	assert.Len(t, pool.Tier(TierMedium), 1)
	assert.Len(t, pool.Tier(TierLarge), 2)

	for _, item := range pool.Tier(TierLarge) {
		assert.Equal(t, TierLarge, item.Tier)
		assert.Greater(t, item.Size, int64(1<<20))
	}
}

func TestScanEmptyPoolIsError(t *testing.T) {
	_, err := Scan(t.TempDir())
	require.Error(t, err)
}

func TestPickLargestPrefersBigItems(t *testing.T) {
	pool, err := Scan(writePoolDir(t))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		item := pool.PickLargest(rng)
		// The largest quartile of a 5-item pool is the single biggest item.
		assert.Equal(t, "video.bin", item.Name)
	}
}

func TestPickTierFallsBackWhenEmpty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "small"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "small", "only.txt"), []byte("x"), 0o644))

	pool, err := Scan(root)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	item := pool.PickTier(rng, TierLarge)
	assert.Equal(t, "only.txt", item.Name)
}

func TestPickImage(t *testing.T) {
	pool, err := Scan(writePoolDir(t))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	img, ok := pool.PickImage(rng)
	require.True(t, ok)
	assert.Equal(t, "logo.png", img.Name)
}

func TestTemplatesNonEmpty(t *testing.T) {
	pool, err := Scan(writePoolDir(t))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	assert.NotEmpty(t, pool.Body(rng))
	assert.NotEmpty(t, pool.Subject(rng))
	assert.NotEmpty(t, pool.Excerpt(rng))
}
