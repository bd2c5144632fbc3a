package provision

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailseed/internal/model"
)

func TestAlreadyExistsByResponseCode(t *testing.T) {
	err := &imap.Error{
		Type: imap.StatusResponseTypeNo,
		Code: imap.ResponseCodeAlreadyExists,
		Text: "Mailbox exists",
	}
	assert.True(t, alreadyExists(err))
	assert.True(t, alreadyExists(fmt.Errorf("creating folder: %w", err)))
}

func TestAlreadyExistsByTextFallback(t *testing.T) {
	// Servers without RFC 5530 codes only spell the condition out.
	assert.True(t, alreadyExists(errors.New("NO [ALREADYEXISTS] duplicate")))
	assert.True(t, alreadyExists(errors.New("alreadyexists")))
}

func TestAlreadyExistsRejectsOtherErrors(t *testing.T) {
	assert.False(t, alreadyExists(errors.New("NO permission denied")))
	assert.False(t, alreadyExists(&imap.Error{
		Type: imap.StatusResponseTypeNo,
		Code: imap.ResponseCodeOverQuota,
		Text: "quota exceeded",
	}))
}

func TestNewSeederDefaults(t *testing.T) {
	s := NewSeeder(model.IMAPConfig{Host: "imap.corp.test", Port: 993}, nil, 0)
	assert.Equal(t, DefaultFolders, s.folders)
	assert.Equal(t, 1, s.concurrency)
	assert.Equal(t, "imap.corp.test:993", s.addr)
}
