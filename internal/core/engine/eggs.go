package engine

import (
	"github.com/bandradar/bandradar/internal/core"
)

// easterEggs maps normalized names to fixed playful responses. Egg
// results never touch the network and are never cached (TTL 0), so a
// later real band by the same name is picked up immediately once the
// egg is removed.
var easterEggs = map[string]string{
	"namejam":   "Nice try! That one's ours.",
	"bandradar": "You found us. Sadly, we got here first.",
}

func (v *Verifier) easterEgg(req core.NameRequest) (*core.VerificationResult, bool) {
	message, ok := easterEggs[core.NormalizeName(req.Name)]
	if !ok {
		return nil, false
	}

	return &core.VerificationResult{
		Name:            req.Name,
		Type:            req.Type,
		Status:          core.StatusAvailable,
		Details:         message,
		Links:           VerificationLinks(req.Name, req.Type),
		Confidence:      1,
		ConfidenceLevel: core.ConfidenceVeryHigh,
		Quality:         core.AggregationHigh,
		CheckedAt:       v.now(),
	}, true
}
