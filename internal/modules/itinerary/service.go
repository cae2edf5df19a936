// README: Greedy itinerary assembler; fills day slots and records alternates.
package itinerary

import (
	"time"

	"atlas/internal/adapters"
	"atlas/internal/config"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/scoring"
	"atlas/internal/types"
)

type Assembler struct {
	cfg config.AssemblerConfig
	loc *time.Location
	now func() time.Time
}

func NewAssembler(cfg config.AssemblerConfig, loc *time.Location) *Assembler {
	if loc == nil {
		loc = time.Local
	}
	return &Assembler{cfg: cfg, loc: loc, now: time.Now}
}

// WithClock fixes the generation timestamp, for reproducible tests.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

type dayState struct {
	date   time.Time
	items  []Item
	cursor time.Time
	travel time.Duration
}

// Assemble fills days greedily from the scored list. Every considered
// candidate ends up scheduled, recorded as an alternate, or listed in
// Unplaced; nothing is silently dropped. The caller stamps identity,
// iteration, and narrative afterwards.
func (a *Assembler) Assemble(scored []scoring.ScoredPOI, ti intent.TripIntent, nav adapters.ServiceResult[adapters.MultiStopRoute], firstDay time.Time, crowd map[string]adapters.ServiceResult[adapters.CrowdInfo]) TravelPlan {
	leg := nav.Data.LegDuration(a.cfg.DefaultLeg)

	days := make([]dayState, ti.DurationDays)
	for d := range days {
		date := firstDay.AddDate(0, 0, d)
		start := time.Date(date.Year(), date.Month(), date.Day(), a.cfg.DayStartHour, 0, 0, 0, a.loc)
		days[d] = dayState{date: start, cursor: start}
	}

	type overflow struct {
		id  string
		day int
	}
	var unplaced []overflow
	for _, sp := range scored {
		if ok, conflict := a.place(days[:], sp, leg, crowd); !ok {
			unplaced = append(unplaced, overflow{id: sp.Candidate.ID, day: conflict})
		}
	}

	// Unplaced candidates become alternates on the day they conflicted with,
	// spilling to the nearest day with a free slot.
	var remaining []string
	for _, o := range unplaced {
		if !attachAlternate(days[:], o.id, a.cfg.MaxAlternates, o.day) {
			remaining = append(remaining, o.id)
		}
	}

	plan := TravelPlan{
		ID:          types.NewID(),
		GeneratedAt: a.now().In(a.loc),
		Unplaced:    remaining,
		Intent:      ti,
	}

	var sum float64
	var count int
	for _, d := range days {
		plan.Days = append(plan.Days, Day{Date: d.date, Items: d.items})
		if len(d.items) == 0 {
			plan.Partial = true
		}
		for _, it := range d.items {
			sum += it.Score
			count++
		}
	}
	if count > 0 {
		plan.OverallScore = sum / float64(count)
	} else {
		plan.Partial = true
	}
	return plan
}

// place tries each day in order and schedules the candidate into the first
// slot that honors capacity, the in-day travel budget, and opening hours.
// When no day fits, conflict is the first day whose schedule turned the
// candidate away, so the alternate lands next to what displaced it.
func (a *Assembler) place(days []dayState, sp scoring.ScoredPOI, leg time.Duration, crowd map[string]adapters.ServiceResult[adapters.CrowdInfo]) (placed bool, conflict int) {
	visit := a.visitDuration(sp.Candidate)
	conflict = -1

	for di := range days {
		d := &days[di]
		if len(d.items) >= a.cfg.MaxItemsPerDay {
			if conflict < 0 {
				conflict = di
			}
			continue
		}
		travel := time.Duration(0)
		if len(d.items) > 0 {
			travel = leg
		}
		if d.travel+travel > a.cfg.MaxDayTravel {
			if conflict < 0 && len(d.items) > 0 {
				conflict = di
			}
			continue
		}

		start := d.cursor.Add(travel)
		opens := time.Date(d.date.Year(), d.date.Month(), d.date.Day(), sp.Candidate.OpeningHours.Open, 0, 0, 0, a.loc)
		if start.Before(opens) {
			start = opens
		}
		end := start.Add(visit)
		closes := time.Date(d.date.Year(), d.date.Month(), d.date.Day(), 0, 0, 0, 0, a.loc).
			Add(time.Duration(sp.Candidate.OpeningHours.Close) * time.Hour)
		if end.After(closes) {
			if conflict < 0 && len(d.items) > 0 {
				conflict = di
			}
			continue
		}

		item := Item{
			POIID:                  sp.Candidate.ID,
			Name:                   sp.Candidate.Name,
			Window:                 TimeWindow{Start: start, End: end},
			TravelTimeFromPrevious: travel,
			Score:                  sp.AdjustedScore,
		}
		if res, ok := crowd[sp.Candidate.Name]; ok {
			item.BestTimeWindow = res.Data.BestTimeWindow
		}

		d.items = append(d.items, item)
		d.cursor = end
		d.travel += travel
		return true, di
	}
	if conflict < 0 {
		conflict = 0
	}
	return false, conflict
}

// attachAlternate records the candidate on an item of the preferred day,
// walking outward to nearby days when that day has no free alternate slot.
func attachAlternate(days []dayState, id string, maxAlternates, preferred int) bool {
	for _, di := range nearestDays(len(days), preferred) {
		for ii := range days[di].items {
			it := &days[di].items[ii]
			if len(it.Alternates) < maxAlternates {
				it.Alternates = append(it.Alternates, id)
				return true
			}
		}
	}
	return false
}

// nearestDays orders day indexes by distance from the preferred day, the
// earlier day first on ties.
func nearestDays(n, preferred int) []int {
	if preferred < 0 || preferred >= n {
		preferred = 0
	}
	out := make([]int, 0, n)
	out = append(out, preferred)
	for dist := 1; dist < n; dist++ {
		if before := preferred - dist; before >= 0 {
			out = append(out, before)
		}
		if after := preferred + dist; after < n {
			out = append(out, after)
		}
	}
	return out
}

func (a *Assembler) visitDuration(c adapters.POICandidate) time.Duration {
	for _, tag := range c.CategoryTags {
		if d, ok := a.cfg.VisitDurations[tag]; ok {
			return d
		}
	}
	return a.cfg.DefaultVisit
}
