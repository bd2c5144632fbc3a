// Package provision performs the one-time mailbox seeding side operations
// that run before the send campaign: creating a standard folder set in each
// identity's account over IMAP. It follows the same bounded-pool pattern as
// the send dispatcher but with its own, smaller concurrency cap and a
// bounded retry, since the operations are idempotent.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/mailseed/internal/model"
)

// DefaultFolders is the folder set seeded into every account.
var DefaultFolders = []string{"Archive", "Projects", "Receipts"}

const (
	attempts = 3
	backoff  = 2 * time.Second
)

// Seeder creates folders in identity mailboxes over IMAP.
type Seeder struct {
	addr        string
	folders     []string
	concurrency int
}

// NewSeeder returns a seeder against the given IMAP endpoint. A nil folder
// list seeds DefaultFolders.
func NewSeeder(cfg model.IMAPConfig, folders []string, concurrency int) *Seeder {
	if folders == nil {
		folders = DefaultFolders
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Seeder{addr: cfg.Addr(), folders: folders, concurrency: concurrency}
}

// Seed creates the folder set in every identity's account, with at most the
// configured number of accounts in flight. Per-account failures are retried
// with fixed backoff up to three attempts; a still-failing account is
// counted as failed without affecting the others.
func (s *Seeder) Seed(ctx context.Context, ids []model.Identity) (provisioned, failed int) {
	results := make([]error, len(ids))

	grp := &errgroup.Group{}
	grp.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		grp.Go(func() error {
			results[i] = s.seedAccount(ctx, id)
			return nil
		})
	}
	_ = grp.Wait()

	for _, err := range results {
		if err != nil {
			failed++
		} else {
			provisioned++
		}
	}
	return provisioned, failed
}

// seedAccount provisions one account, retrying the whole pass on failure.
func (s *Seeder) seedAccount(ctx context.Context, id model.Identity) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = s.createFolders(id)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("seeding folders for %s: %w", id.Address, lastErr)
}

// createFolders connects, creates each folder, and disconnects. A folder
// that already exists is not an error.
func (s *Seeder) createFolders(id model.Identity) error {
	client, err := imapclient.DialTLS(s.addr, nil)
	if err != nil {
		return fmt.Errorf("connecting to IMAP %s: %w", s.addr, err)
	}
	defer func() { _ = client.Logout().Wait() }()

	if err := client.Login(id.Address, id.Credential).Wait(); err != nil {
		return fmt.Errorf("authenticating %s: %w", id.Address, err)
	}

	for _, folder := range s.folders {
		err := client.Create(folder, &imap.CreateOptions{}).Wait()
		if err != nil && !alreadyExists(err) {
			return fmt.Errorf("creating folder %s: %w", folder, err)
		}
	}
	return nil
}

// alreadyExists reports whether a CREATE failed only because the mailbox is
// already present. The response code is authoritative; the text match covers
// servers that spell the condition out without the RFC 5530 code.
func alreadyExists(err error) bool {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAlreadyExists {
		return true
	}
	return strings.Contains(strings.ToUpper(err.Error()), "ALREADYEXISTS")
}
