// Package estimate approximates the mailbox-side size contribution of a
// message. The numbers are heuristics, not an accounting of any real backend.
package estimate

import (
	"github.com/nhle/mailseed/internal/model"
)

// Estimator converts a candidate message into an estimated wire-size
// contribution. The zero value is unusable; construct with New.
type Estimator struct {
	cfg model.EstimatorConfig
}

// New returns an estimator using the given heuristics. Non-positive factors
// fall back to the tuned defaults.
func New(cfg model.EstimatorConfig) Estimator {
	if cfg.MIMEOverhead <= 0 {
		cfg.MIMEOverhead = 1.33
	}
	if cfg.EnvelopeBytes <= 0 {
		cfg.EnvelopeBytes = 2048
	}
	if cfg.DuplicationFactor <= 0 {
		cfg.DuplicationFactor = 2.0
	}
	return Estimator{cfg: cfg}
}

// Estimate returns the estimated corpus contribution of one message in
// bytes: body length plus MIME-inflated attachment bytes plus a fixed
// envelope constant, multiplied by the duplication factor to cover the
// sender's Sent Items copy alongside the recipient's Inbox copy.
func (e Estimator) Estimate(body string, attachments []model.AttachmentRef) int64 {
	size := int64(len(body)) + e.cfg.EnvelopeBytes
	for _, a := range attachments {
		size += int64(float64(a.Size) * e.cfg.MIMEOverhead)
	}
	return int64(float64(size) * e.cfg.DuplicationFactor)
}

// EstimateRequest estimates a full send request, inline image included.
func (e Estimator) EstimateRequest(req model.SendRequest) int64 {
	attachments := req.Attachments
	if req.InlineImage != nil {
		attachments = append(append([]model.AttachmentRef(nil), attachments...), *req.InlineImage)
	}
	return e.Estimate(req.Body, attachments)
}
