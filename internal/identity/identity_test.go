package identity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noResolver(key string) (string, error) {
	return "", fmt.Errorf("unexpected keyring lookup for %q", key)
}

func TestParseFeed(t *testing.T) {
	feed := strings.Join([]string{
		"# provisioned accounts",
		"0,alice@corp.test,Alice Nguyen,s3cret",
		"1,bob@corp.test,Bob Tran,hunter2",
		"2,carol@corp.test,Carol Le,-",
	}, "\n")

	pool, err := parse(strings.NewReader(feed), noResolver)
	require.NoError(t, err)

	assert.Equal(t, 3, pool.Len())
	assert.Len(t, pool.Eligible(), 2)

	alice, ok := pool.ByAddress("alice@corp.test")
	require.True(t, ok)
	assert.Equal(t, "Alice Nguyen", alice.DisplayName)
	assert.Equal(t, "s3cret", alice.Credential)
	assert.True(t, alice.Eligible())
}

func TestSentinelExcludedFromSendingButResolvable(t *testing.T) {
	feed := "0,alice@corp.test,Alice,pw\n1,bob@corp.test,Bob,-\n"

	pool, err := parse(strings.NewReader(feed), noResolver)
	require.NoError(t, err)

	for _, id := range pool.Eligible() {
		assert.NotEqual(t, "bob@corp.test", id.Address)
	}

	// Sentinel identities stay resolvable so reply generation can detect
	// that an origin recipient lost its credential.
	bob, ok := pool.ByAddress("bob@corp.test")
	require.True(t, ok)
	assert.False(t, bob.Eligible())
}

func TestKeyringReference(t *testing.T) {
	feed := "0,alice@corp.test,Alice,@keyring\n"

	pool, err := parse(strings.NewReader(feed), func(key string) (string, error) {
		assert.Equal(t, "alice@corp.test", key)
		return "from-ring", nil
	})
	require.NoError(t, err)

	alice, _ := pool.ByAddress("alice@corp.test")
	assert.Equal(t, "from-ring", alice.Credential)
}

func TestKeyringResolveFailure(t *testing.T) {
	feed := "0,alice@corp.test,Alice,@keyring\n"

	_, err := parse(strings.NewReader(feed), func(string) (string, error) {
		return "", fmt.Errorf("locked")
	})
	require.Error(t, err)
}

func TestAllSentinelsIsError(t *testing.T) {
	feed := "0,alice@corp.test,Alice,-\n1,bob@corp.test,Bob,-\n"

	_, err := parse(strings.NewReader(feed), noResolver)
	require.ErrorIs(t, err, ErrNoneEligible)
}

func TestBadIndexIsError(t *testing.T) {
	_, err := parse(strings.NewReader("x,alice@corp.test,Alice,pw\n"), noResolver)
	require.Error(t, err)
}

func TestEmptyAddressIsError(t *testing.T) {
	_, err := parse(strings.NewReader("0,,Alice,pw\n"), noResolver)
	require.Error(t, err)
}
