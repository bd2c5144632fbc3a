// Package generate produces batches of send requests for the campaign
// controller. Each message kind has its own generation strategy; the
// controller selects a strategy once per stage.
//
// Sampling is pseudo-random and not reproducible across runs. Tests treat
// the resulting distributions statistically.
package generate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/nhle/mailseed/internal/content"
	"github.com/nhle/mailseed/internal/identity"
	"github.com/nhle/mailseed/internal/model"
	"github.com/nhle/mailseed/internal/thread"
)

// replyDrawAttempts bounds how many thread graph draws a single reply or
// forward slot may consume before the slot is abandoned. A draw is discarded
// when the record's recipient no longer resolves to a credentialed identity.
const replyDrawAttempts = 16

// ccChance is the probability that a new message carries CC recipients.
const ccChance = 0.4

// Strategy produces up to n send requests of one message kind. A strategy
// may return fewer than n requests when its originating resource is
// exhausted (for example an empty thread graph).
type Strategy func(n int) []model.SendRequest

// Generator builds send requests from the identity pool, content pool, and
// thread graph. It is driven only by the campaign control goroutine.
type Generator struct {
	ids   *identity.Pool
	pool  *content.Pool
	graph *thread.Graph
	rng   *rand.Rand

	inlineImageChance float64

	// sendIndex is the round-robin cursor for new-message senders.
	sendIndex int
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source. Used by tests.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) { g.rng = rng }
}

// WithInlineImageChance overrides the inline image probability.
func WithInlineImageChance(p float64) Option {
	return func(g *Generator) { g.inlineImageChance = p }
}

// New returns a generator over the given pools and graph.
func New(ids *identity.Pool, pool *content.Pool, graph *thread.Graph, opts ...Option) *Generator {
	g := &Generator{
		ids:               ids,
		pool:              pool,
		graph:             graph,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		inlineImageChance: 0.3,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Strategy returns the generation strategy for the given kind.
func (g *Generator) Strategy(kind model.Kind) (Strategy, error) {
	switch kind {
	case model.KindNew:
		return func(n int) []model.SendRequest { return g.newBatch(n, false) }, nil
	case model.KindReply:
		return g.replyBatch, nil
	case model.KindForward:
		return g.forwardBatch, nil
	}
	return nil, fmt.Errorf("unknown message kind %q", kind)
}

// OverflowStrategy returns the top-up strategy: new messages with attachment
// selection biased toward the largest content items.
func (g *Generator) OverflowStrategy() Strategy {
	return func(n int) []model.SendRequest { return g.newBatch(n, true) }
}

// newBatch produces n new-message requests.
func (g *Generator) newBatch(n int, largeBias bool) []model.SendRequest {
	eligible := g.ids.Eligible()
	if len(eligible) < 2 {
		// Need at least one possible recipient besides the sender.
		return nil
	}

	reqs := make([]model.SendRequest, 0, n)
	for i := 0; i < n; i++ {
		from := eligible[g.sendIndex%len(eligible)]
		g.sendIndex++

		to := g.sampleIdentities(1+g.rng.Intn(5), from.Address)
		if len(to) == 0 {
			continue
		}

		req := model.SendRequest{
			Kind:    model.KindNew,
			From:    from,
			To:      to,
			Subject: g.pool.Subject(g.rng),
			Body:    g.pool.Body(g.rng),
		}

		if g.rng.Float64() < ccChance {
			exclude := []string{from.Address}
			for _, id := range to {
				exclude = append(exclude, id.Address)
			}
			req.Cc = g.sampleIdentities(1+g.rng.Intn(4), exclude...)
		}

		if largeBias {
			req.Attachments = g.largestAttachments()
		} else {
			req.Attachments = g.weightedAttachments()
		}

		if g.rng.Float64() < g.inlineImageChance {
			if img, ok := g.pool.PickImage(g.rng); ok {
				req.InlineImage = &img
			}
		}

		reqs = append(reqs, req)
	}
	return reqs
}

// replyBatch produces up to n reply requests originated from the thread
// graph. Returns nil when the graph is empty.
func (g *Generator) replyBatch(n int) []model.SendRequest {
	if g.graph.Len() == 0 {
		return nil
	}

	reqs := make([]model.SendRequest, 0, n)
	for i := 0; i < n; i++ {
		rec, from, ok := g.drawOrigin()
		if !ok {
			break
		}

		to, ok := g.ids.ByAddress(rec.SenderAddr)
		if !ok {
			// Original sender left the feed; use the address as-is.
			to = model.Identity{Address: rec.SenderAddr, DisplayName: rec.SenderName}
		}

		reqs = append(reqs, model.SendRequest{
			Kind:       model.KindReply,
			From:       from,
			To:         []model.Identity{to},
			Subject:    "Re: " + rec.Subject,
			Body:       g.quoteReply(rec),
			InReplyTo:  rec.MessageID,
			References: rec.MessageID,
		})
	}
	return reqs
}

// forwardBatch produces up to n forward requests originated from the thread
// graph. Forwards carry no threading headers. Returns nil when the graph is
// empty.
func (g *Generator) forwardBatch(n int) []model.SendRequest {
	if g.graph.Len() == 0 {
		return nil
	}

	reqs := make([]model.SendRequest, 0, n)
	for i := 0; i < n; i++ {
		rec, from, ok := g.drawOrigin()
		if !ok {
			break
		}

		to := g.sampleIdentities(1+g.rng.Intn(3), from.Address)
		if len(to) == 0 {
			break
		}

		reqs = append(reqs, model.SendRequest{
			Kind:    model.KindForward,
			From:    from,
			To:      to,
			Subject: "FW: " + rec.Subject,
			Body:    g.quoteForward(rec),
		})
	}
	return reqs
}

// drawOrigin samples thread records until one's recipient resolves to a
// credentialed identity. Gives up after replyDrawAttempts draws.
func (g *Generator) drawOrigin() (model.ThreadRecord, model.Identity, bool) {
	for attempt := 0; attempt < replyDrawAttempts; attempt++ {
		rec, ok := g.graph.Sample(g.rng)
		if !ok {
			return model.ThreadRecord{}, model.Identity{}, false
		}
		from, ok := g.ids.ByAddress(rec.RecipientAddr)
		if ok && from.Eligible() {
			return rec, from, true
		}
	}
	return model.ThreadRecord{}, model.Identity{}, false
}

// sampleIdentities picks up to want distinct eligible identities, skipping
// the excluded addresses.
func (g *Generator) sampleIdentities(want int, exclude ...string) []model.Identity {
	excluded := make(map[string]bool, len(exclude))
	for _, addr := range exclude {
		excluded[addr] = true
	}

	var candidates []model.Identity
	for _, id := range g.ids.Eligible() {
		if !excluded[id.Address] {
			candidates = append(candidates, id)
		}
	}
	if want > len(candidates) {
		want = len(candidates)
	}

	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	return candidates[:want]
}

// weightedAttachments applies the fixed attachment policy for new messages:
// 40% none, 30% one small item, 20% one medium item, 10% a burst of 1-3
// items from any tier.
func (g *Generator) weightedAttachments() []model.AttachmentRef {
	switch roll := g.rng.Float64(); {
	case roll < 0.4:
		return nil
	case roll < 0.7:
		return []model.AttachmentRef{g.pool.PickTier(g.rng, content.TierSmall)}
	case roll < 0.9:
		return []model.AttachmentRef{g.pool.PickTier(g.rng, content.TierMedium)}
	default:
		burst := 1 + g.rng.Intn(3)
		refs := make([]model.AttachmentRef, burst)
		for i := range refs {
			refs[i] = g.pool.Pick(g.rng)
		}
		return refs
	}
}

// largestAttachments picks 1-3 items from the largest content available,
// used by the overflow stage to close the remaining size gap quickly.
func (g *Generator) largestAttachments() []model.AttachmentRef {
	burst := 1 + g.rng.Intn(3)
	refs := make([]model.AttachmentRef, burst)
	for i := range refs {
		refs[i] = g.pool.PickLargest(g.rng)
	}
	return refs
}

// quoteReply builds a reply body quoting a synthetic excerpt of the
// original message.
func (g *Generator) quoteReply(rec model.ThreadRecord) string {
	return fmt.Sprintf(
		"%s\n\n%s wrote:\n> %s\n",
		g.pool.Excerpt(g.rng), displayOrAddr(rec.SenderName, rec.SenderAddr), g.pool.Excerpt(g.rng),
	)
}

// quoteForward builds a forward body carrying the original sender and
// subject as a quoted block.
func (g *Generator) quoteForward(rec model.ThreadRecord) string {
	return fmt.Sprintf(
		"FYI.\n\n---------- Forwarded message ----------\nFrom: %s\nSubject: %s\n\n%s\n",
		displayOrAddr(rec.SenderName, rec.SenderAddr), rec.Subject, g.pool.Excerpt(g.rng),
	)
}

func displayOrAddr(name, addr string) string {
	if name != "" {
		return name
	}
	return addr
}
