package estimate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/mailseed/internal/model"
)

func defaultEstimator() Estimator {
	return New(model.EstimatorConfig{
		MIMEOverhead:      1.33,
		EnvelopeBytes:     2048,
		DuplicationFactor: 2.0,
	})
}

func TestEstimateMonotonicInBody(t *testing.T) {
	e := defaultEstimator()

	small := e.Estimate("short", nil)
	large := e.Estimate(strings.Repeat("x", 10_000), nil)

	assert.Greater(t, large, small)
}

func TestEstimateMonotonicInAttachments(t *testing.T) {
	e := defaultEstimator()

	none := e.Estimate("body", nil)
	one := e.Estimate("body", []model.AttachmentRef{{Size: 50_000}})
	two := e.Estimate("body", []model.AttachmentRef{{Size: 50_000}, {Size: 80_000}})

	assert.Greater(t, one, none)
	assert.Greater(t, two, one)
}

func TestEstimateRoughProportionality(t *testing.T) {
	e := defaultEstimator()

	// A message dominated by a 1 MiB attachment should estimate to roughly
	// attachment * 1.33 * 2, well within a factor of two either way.
	attachment := int64(1 << 20)
	got := e.Estimate("body", []model.AttachmentRef{{Size: attachment}})

	expected := int64(float64(attachment) * 1.33 * 2.0)
	assert.InEpsilon(t, expected, got, 0.25)
}

func TestEstimateAppliesDuplicationFactor(t *testing.T) {
	single := New(model.EstimatorConfig{MIMEOverhead: 1.0, EnvelopeBytes: 100, DuplicationFactor: 1.0})
	doubled := New(model.EstimatorConfig{MIMEOverhead: 1.0, EnvelopeBytes: 100, DuplicationFactor: 2.0})

	body := strings.Repeat("y", 900)
	assert.Equal(t, 2*single.Estimate(body, nil), doubled.Estimate(body, nil))
}

func TestEstimateRequestCountsInlineImage(t *testing.T) {
	e := defaultEstimator()

	req := model.SendRequest{Body: "body"}
	plain := e.EstimateRequest(req)

	req.InlineImage = &model.AttachmentRef{Size: 200_000}
	withImage := e.EstimateRequest(req)

	assert.Greater(t, withImage, plain)
}

func TestNewFallsBackOnInvalidConfig(t *testing.T) {
	e := New(model.EstimatorConfig{})

	// Defaults must yield a positive, inflated estimate.
	got := e.Estimate("body", []model.AttachmentRef{{Size: 1000}})
	assert.Greater(t, got, int64(1000))
}
