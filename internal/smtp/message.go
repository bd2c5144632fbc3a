package smtp

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailseed/internal/model"
)

// buildMessage assembles the full RFC 5322 message for a send request:
// headers, text body, optional inline image, and attachments.
func buildMessage(req model.SendRequest, msgID string) ([]byte, error) {
	var buf bytes.Buffer

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: req.From.DisplayName, Address: req.From.Address}})
	h.SetAddressList("To", toAddressList(req.To))
	if len(req.Cc) > 0 {
		h.SetAddressList("Cc", toAddressList(req.Cc))
	}
	h.SetSubject(req.Subject)
	h.SetMessageID(msgID)
	if req.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{req.InReplyTo})
	}
	if req.References != "" {
		h.SetMsgIDList("References", []string{req.References})
	}

	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	if err := writeInline(mw, req); err != nil {
		return nil, err
	}

	for _, ref := range req.Attachments {
		if err := writeAttachment(mw, ref); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}
	return buf.Bytes(), nil
}

// writeInline writes the text body and, when present, the inline image part
// with a Content-ID reference.
func writeInline(mw *mail.Writer, req model.SendRequest) error {
	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	tw, err := iw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(tw, req.Body); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing text part: %w", err)
	}

	if req.InlineImage != nil {
		img := *req.InlineImage
		var ih mail.InlineHeader
		ih.SetContentType(contentType(img.Name), nil)
		ih.Set("Content-ID", fmt.Sprintf("<%s>", img.Name))
		pw, err := iw.CreatePart(ih)
		if err != nil {
			return fmt.Errorf("creating inline image part: %w", err)
		}
		if err := copyFile(pw, img.Path); err != nil {
			return fmt.Errorf("embedding %s: %w", img.Name, err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("closing inline image part: %w", err)
		}
	}

	return iw.Close()
}

// writeAttachment streams one attachment file into the message.
func writeAttachment(mw *mail.Writer, ref model.AttachmentRef) error {
	var ah mail.AttachmentHeader
	ah.SetFilename(ref.Name)
	ah.SetContentType(contentType(ref.Name), nil)

	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("creating attachment %s: %w", ref.Name, err)
	}
	if err := copyFile(aw, ref.Path); err != nil {
		return fmt.Errorf("attaching %s: %w", ref.Name, err)
	}
	return aw.Close()
}

// copyFile streams the file at path into w.
func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// contentType guesses a MIME type from the filename extension.
func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// toAddressList converts identities to mail addresses.
func toAddressList(ids []model.Identity) []*mail.Address {
	addrs := make([]*mail.Address, len(ids))
	for i, id := range ids {
		addrs[i] = &mail.Address{Name: id.DisplayName, Address: id.Address}
	}
	return addrs
}
