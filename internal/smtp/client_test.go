package smtp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDeadlineBoundsConnIO(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	applyDeadline(ctx, client)

	// No reader on the other end: without the deadline this write would
	// block indefinitely.
	_, err := client.Write([]byte("EHLO mailseed.local\r\n"))
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestApplyDeadlineWithoutDeadlineLeavesConnUnbounded(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 64)
		_, _ = server.Read(buf)
	}()

	applyDeadline(context.Background(), client)

	_, err := client.Write([]byte("EHLO mailseed.local\r\n"))
	assert.NoError(t, err)
}
