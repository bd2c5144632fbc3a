// Package smtp implements the outbound send endpoint client. Every send
// dials its own TLS connection and authenticates with the sending identity's
// credential, so concurrent workers never share connection state.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/nhle/mailseed/internal/model"
)

// Client sends messages through one SMTP submission endpoint.
type Client struct {
	addr       string
	heloDomain string
	tlsConfig  *tls.Config
}

// NewClient returns a client for the configured endpoint.
func NewClient(cfg model.SMTPConfig) *Client {
	return &Client{
		addr:       cfg.Addr(),
		heloDomain: cfg.HELODomain,
		tlsConfig:  &tls.Config{ServerName: cfg.Host},
	}
}

// Validate dials the endpoint once and disconnects. Used at startup so an
// unreachable endpoint aborts the campaign before any batch is dispatched.
func (c *Client) Validate(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("send endpoint unreachable: %w", err)
	}
	applyDeadline(ctx, conn)
	client := gosmtp.NewClient(conn)
	defer client.Close()

	if err := client.Hello(c.heloDomain); err != nil {
		return fmt.Errorf("send endpoint rejected greeting: %w", err)
	}
	return client.Quit()
}

// Send performs one authenticated send and returns the assigned message id.
// The message id is generated client-side and stamped into the headers, so
// a successful send's id is known without parsing server responses.
func (c *Client) Send(ctx context.Context, req model.SendRequest) (string, error) {
	msgID := fmt.Sprintf("%s@%s", uuid.New(), c.heloDomain)

	// Attachment content is loaded lazily here rather than at generation
	// time, so one unreadable item fails only its own request.
	msg, err := buildMessage(req, msgID)
	if err != nil {
		return "", fmt.Errorf("building message: %w", err)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return "", fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	applyDeadline(ctx, conn)
	client := gosmtp.NewClient(conn)
	defer client.Close()

	if err := client.Hello(c.heloDomain); err != nil {
		return "", fmt.Errorf("greeting: %w", err)
	}

	auth := sasl.NewPlainClient("", req.From.Address, req.From.Credential)
	if err := client.Auth(auth); err != nil {
		return "", fmt.Errorf("authenticating %s: %w", req.From.Address, err)
	}

	if err := client.Mail(req.From.Address, nil); err != nil {
		return "", fmt.Errorf("MAIL FROM %s: %w", req.From.Address, err)
	}
	for _, rcpt := range recipients(req) {
		if err := client.Rcpt(rcpt, nil); err != nil {
			return "", fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("DATA: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		wc.Close()
		return "", fmt.Errorf("writing message body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finishing message: %w", err)
	}

	if err := client.Quit(); err != nil {
		// The message was accepted; a failed QUIT is not a send failure.
		return msgID, nil
	}
	return msgID, nil
}

// dial opens a TLS connection honoring the context deadline.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := &tls.Dialer{Config: c.tlsConfig}
	return dialer.DialContext(ctx, "tcp", c.addr)
}

// applyDeadline mirrors the context deadline onto the connection. The dial
// honors the context by itself; every protocol exchange after it runs on the
// raw connection, so without a connection deadline a stalled server would
// hold the worker past the configured send timeout.
func applyDeadline(ctx context.Context, conn net.Conn) {
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
}

// recipients returns the envelope recipients: To plus Cc.
func recipients(req model.SendRequest) []string {
	addrs := make([]string, 0, len(req.To)+len(req.Cc))
	for _, id := range req.To {
		addrs = append(addrs, id.Address)
	}
	for _, id := range req.Cc {
		addrs = append(addrs, id.Address)
	}
	return addrs
}
