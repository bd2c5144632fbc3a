package campaign

import (
	"github.com/nhle/mailseed/internal/estimate"
	"github.com/nhle/mailseed/internal/model"
)

// Targets is the per-kind send-count split derived from the overall size
// target. Each share is ceiling-rounded independently, so the sum may
// slightly exceed the nominal total.
type Targets struct {
	Total   int
	New     int
	Reply   int
	Forward int
}

// Ratio split across message kinds.
const (
	newShare     = 0.5
	replyShare   = 0.3
	forwardShare = 0.2
)

// ComputeTargets derives the per-kind targets from the overall size target
// and the assumed average message size.
func ComputeTargets(targetBytes, avgMessageBytes int64) Targets {
	if avgMessageBytes <= 0 || targetBytes <= 0 {
		return Targets{}
	}
	total := int((targetBytes + avgMessageBytes - 1) / avgMessageBytes)
	return Targets{
		Total:   total,
		New:     ceilShare(total, newShare),
		Reply:   ceilShare(total, replyShare),
		Forward: ceilShare(total, forwardShare),
	}
}

// ceilShare returns ceil(total * share).
func ceilShare(total int, share float64) int {
	v := float64(total) * share
	n := int(v)
	if v > float64(n) {
		n++
	}
	return n
}

// applyBatch folds one batch's outcomes into the state and returns the new
// state together with the thread records created by the batch. The function
// is pure; persistence happens at the call site.
//
// Counters and the cumulative estimate only grow. Thread records are created
// only for successful new and reply sends; forwards never join the graph.
func applyBatch(
	state model.CampaignState,
	phase model.Phase,
	batch []model.SendRequest,
	outcomes []model.SendOutcome,
	est estimate.Estimator,
) (model.CampaignState, []model.ThreadRecord) {
	counter := state.Counter(phase)
	if counter == nil {
		return state, nil
	}

	var records []model.ThreadRecord
	for i, out := range outcomes {
		counter.Attempted++
		if !out.OK {
			continue
		}
		counter.Succeeded++

		req := batch[i]
		state.EstimatedBytes += est.EstimateRequest(req)

		if (req.Kind == model.KindNew || req.Kind == model.KindReply) && len(req.To) > 0 {
			records = append(records, model.ThreadRecord{
				MessageID:     out.MessageID,
				Subject:       req.Subject,
				SenderAddr:    req.From.Address,
				SenderName:    req.From.DisplayName,
				RecipientAddr: req.To[0].Address,
				RecipientName: req.To[0].DisplayName,
			})
		}
	}

	return state, records
}
