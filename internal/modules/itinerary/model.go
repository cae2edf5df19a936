// README: Itinerary and travel plan data model.
package itinerary

import (
	"time"

	"atlas/internal/adapters"
	"atlas/internal/modules/intent"
	"atlas/internal/types"
)

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Item is one scheduled visit. Alternates carries up to three candidate ids
// that nearly fit this slot and serve as backups.
type Item struct {
	POIID                  string        `json:"poi_id"`
	Name                   string        `json:"name,omitempty"`
	Window                 TimeWindow    `json:"time_window"`
	TravelTimeFromPrevious time.Duration `json:"travel_time_from_previous"`
	BestTimeWindow         string        `json:"best_time_window,omitempty"`
	Score                  float64       `json:"score"`
	Alternates             []string      `json:"alternates,omitempty"`
}

// Day holds its items in visit order; windows are non-overlapping and
// strictly increasing.
type Day struct {
	Date  time.Time `json:"date"`
	Items []Item    `json:"items"`
}

// TravelPlan is immutable once returned; refinement produces a new plan
// pointing back through ParentPlanID.
type TravelPlan struct {
	ID                  types.ID          `json:"id"`
	ParentPlanID        *types.ID         `json:"parent_plan_id,omitempty"`
	Days                []Day             `json:"days"`
	OverallScore        float64           `json:"overall_score"`
	NarrativeHighlights []string          `json:"narrative_highlights,omitempty"`
	GeneratedAt         time.Time         `json:"generated_at"`
	Iteration           int               `json:"iteration"`
	Partial             bool              `json:"partial"`
	NeedsClarification  bool              `json:"needs_clarification"`
	DegradedSources     []adapters.Name   `json:"degraded_sources,omitempty"`
	TrafficAdvisory     string            `json:"traffic_advisory,omitempty"`
	Unplaced            []string          `json:"unplaced,omitempty"`
	Intent              intent.TripIntent `json:"intent"`
}

// ScheduledScores flattens the adjusted scores of every scheduled item in
// day and visit order.
func (p *TravelPlan) ScheduledScores() []float64 {
	var out []float64
	for _, d := range p.Days {
		for _, it := range d.Items {
			out = append(out, it.Score)
		}
	}
	return out
}
