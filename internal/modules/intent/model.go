// README: Trip intent data model produced by extraction.
package intent

import (
	"time"

	"atlas/internal/adapters"
)

type CompanionTag string

const (
	CompanionPartner   CompanionTag = "partner"
	CompanionSpouse    CompanionTag = "spouse"
	CompanionParent    CompanionTag = "parent"
	CompanionChild     CompanionTag = "child"
	CompanionFriend    CompanionTag = "friend"
	CompanionColleague CompanionTag = "colleague"
)

type ConcernTag string

const (
	ConcernWeatherSensitive ConcernTag = "weather_sensitive"
	ConcernCrowdAverse      ConcernTag = "crowd_averse"
	ConcernAccessibility    ConcernTag = "accessibility"
)

type BudgetTier string

const (
	TierLow        BudgetTier = "low"
	TierMedium     BudgetTier = "medium"
	TierMediumHigh BudgetTier = "medium_high"
	TierHigh       BudgetTier = "high"
)

// MaxPriceLevel maps a tier onto the Places price scale (0-4); candidates
// above it are over budget.
func (t BudgetTier) MaxPriceLevel() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierMediumHigh:
		return 3
	default:
		return 4
	}
}

type Budget struct {
	Amount int        `json:"amount,omitempty"`
	Tier   BudgetTier `json:"tier"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days is the inclusive span of the range in days.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// LocationMention is one place-name span from the request. Candidate stays
// nil until the resolver runs; once resolved it is not rewritten within the
// same planning run.
type LocationMention struct {
	RawText    string                 `json:"raw_text"`
	Candidate  *adapters.POICandidate `json:"candidate,omitempty"`
	Unresolved bool                   `json:"unresolved,omitempty"`
}

type TripIntent struct {
	Locations          []LocationMention     `json:"locations"`
	DurationDays       int                   `json:"duration_days"`
	DateRange          *DateRange            `json:"date_range,omitempty"`
	Budget             *Budget               `json:"budget,omitempty"`
	Companions         map[CompanionTag]bool `json:"companions,omitempty"`
	PreferenceTags     map[string]float64    `json:"preference_tags,omitempty"`
	Concerns           map[ConcernTag]bool   `json:"concerns,omitempty"`
	NeedsClarification bool                  `json:"needs_clarification,omitempty"`
}

func (ti TripIntent) HasConcern(c ConcernTag) bool {
	return ti.Concerns[c]
}

// ResolvedLocations returns mentions that carry a candidate.
func (ti TripIntent) ResolvedLocations() []LocationMention {
	var out []LocationMention
	for _, m := range ti.Locations {
		if m.Candidate != nil {
			out = append(out, m)
		}
	}
	return out
}

// Clone deep-copies the intent so later stages never mutate a handed-off value.
func (ti TripIntent) Clone() TripIntent {
	out := ti
	out.Locations = make([]LocationMention, len(ti.Locations))
	copy(out.Locations, ti.Locations)
	if ti.DateRange != nil {
		r := *ti.DateRange
		out.DateRange = &r
	}
	if ti.Budget != nil {
		b := *ti.Budget
		out.Budget = &b
	}
	out.Companions = make(map[CompanionTag]bool, len(ti.Companions))
	for k, v := range ti.Companions {
		out.Companions[k] = v
	}
	out.PreferenceTags = make(map[string]float64, len(ti.PreferenceTags))
	for k, v := range ti.PreferenceTags {
		out.PreferenceTags[k] = v
	}
	out.Concerns = make(map[ConcernTag]bool, len(ti.Concerns))
	for k, v := range ti.Concerns {
		out.Concerns[k] = v
	}
	return out
}
