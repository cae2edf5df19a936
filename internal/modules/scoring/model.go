// README: Scored candidate model with adjustment breakdown.
package scoring

import "atlas/internal/adapters"

type ScoredPOI struct {
	Candidate     adapters.POICandidate `json:"candidate"`
	BaseScore     float64               `json:"base_score"`
	AdjustedScore float64               `json:"adjusted_score"`
	Breakdown     map[string]float64    `json:"score_breakdown,omitempty"`
}
