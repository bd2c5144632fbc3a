// Package content exposes the attachment and body-template pool consumed by
// the work generator. The pool is read-only for the duration of a campaign.
package content

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nhle/mailseed/internal/model"
)

// Size tiers for attachment items.
const (
	TierSmall  = "small"
	TierMedium = "medium"
	TierLarge  = "large"
)

// tierDirs maps the expected subdirectory names under the pool root.
var tierDirs = []string{TierSmall, TierMedium, TierLarge}

// Pool is a read-only random-access collection of attachment items and body
// templates.
type Pool struct {
	byTier map[string][]model.AttachmentRef
	all    []model.AttachmentRef

	// bySize is all items sorted descending by size, used by the overflow
	// stage's large-bias selection.
	bySize []model.AttachmentRef

	bodies   []string
	subjects []string
	excerpts []string
	images   []model.AttachmentRef
}

// Scan builds a pool from the attachment directory at root. Items are tiered
// by their subdirectory (small/, medium/, large/); files directly under root
// are ignored. Image files are additionally indexed for inline-image use.
func Scan(root string) (*Pool, error) {
	p := &Pool{byTier: make(map[string][]model.AttachmentRef)}

	for _, tier := range tierDirs {
		dir := filepath.Join(root, tier)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scanning tier %s: %w", tier, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
			}
			ref := model.AttachmentRef{
				Path: filepath.Join(dir, e.Name()),
				Name: e.Name(),
				Size: info.Size(),
				Tier: tier,
			}
			p.byTier[tier] = append(p.byTier[tier], ref)
			p.all = append(p.all, ref)
			if isImage(e.Name()) {
				p.images = append(p.images, ref)
			}
		}
	}

	if len(p.all) == 0 {
		return nil, fmt.Errorf("content pool %s contains no attachment items", root)
	}

	p.bySize = append([]model.AttachmentRef(nil), p.all...)
	sort.Slice(p.bySize, func(i, j int) bool { return p.bySize[i].Size > p.bySize[j].Size })

	p.bodies = defaultBodies
	p.subjects = defaultSubjects
	p.excerpts = defaultExcerpts
	return p, nil
}

// isImage reports whether the filename looks like an embeddable image.
func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// Tier returns the items in the given size tier. Empty when the tier has no
// items.
func (p *Pool) Tier(tier string) []model.AttachmentRef {
	return p.byTier[tier]
}

// PickTier samples one item uniformly from the given tier, falling back to
// the full pool when the tier is empty.
func (p *Pool) PickTier(rng *rand.Rand, tier string) model.AttachmentRef {
	items := p.byTier[tier]
	if len(items) == 0 {
		items = p.all
	}
	return items[rng.Intn(len(items))]
}

// Pick samples one item uniformly from the whole pool.
func (p *Pool) Pick(rng *rand.Rand) model.AttachmentRef {
	return p.all[rng.Intn(len(p.all))]
}

// PickLargest samples one item from the largest quartile of the pool. The
// overflow stage uses this to close the remaining size gap quickly.
func (p *Pool) PickLargest(rng *rand.Rand) model.AttachmentRef {
	n := len(p.bySize) / 4
	if n == 0 {
		n = 1
	}
	return p.bySize[rng.Intn(n)]
}

// PickImage samples one image item for inline embedding. Returns false when
// the pool holds no images.
func (p *Pool) PickImage(rng *rand.Rand) (model.AttachmentRef, bool) {
	if len(p.images) == 0 {
		return model.AttachmentRef{}, false
	}
	return p.images[rng.Intn(len(p.images))], true
}

// Body samples one body template.
func (p *Pool) Body(rng *rand.Rand) string {
	return p.bodies[rng.Intn(len(p.bodies))]
}

// Subject samples one subject template.
func (p *Pool) Subject(rng *rand.Rand) string {
	return p.subjects[rng.Intn(len(p.subjects))]
}

// Excerpt samples one short snippet used when quoting an original message in
// replies and forwards.
func (p *Pool) Excerpt(rng *rand.Rand) string {
	return p.excerpts[rng.Intn(len(p.excerpts))]
}

// Len returns the number of attachment items in the pool.
func (p *Pool) Len() int {
	return len(p.all)
}
