package itinerary

import (
	"fmt"
	"testing"
	"time"

	"atlas/internal/adapters"
	"atlas/internal/config"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/scoring"
)

var testCfg = config.AssemblerConfig{
	MaxItemsPerDay: 4,
	MaxDayTravel:   3 * time.Hour,
	DayStartHour:   9,
	MaxAlternates:  3,
	DefaultVisit:   90 * time.Minute,
	DefaultLeg:     30 * time.Minute,
	VisitDurations: map[string]time.Duration{
		"scenic_spot": 90 * time.Minute,
		"museum":      2 * time.Hour,
	},
}

var testDay = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

func newTestAssembler() *Assembler {
	return NewAssembler(testCfg, time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	})
}

func scoredSet(n int, score float64) []scoring.ScoredPOI {
	out := make([]scoring.ScoredPOI, n)
	for i := range out {
		out[i] = scoring.ScoredPOI{
			Candidate: adapters.POICandidate{
				ID:           fmt.Sprintf("poi-%03d", i+1),
				Name:         fmt.Sprintf("地点%d", i+1),
				CategoryTags: []string{"scenic_spot"},
				OpeningHours: adapters.HoursRange{Open: 8, Close: 22},
			},
			AdjustedScore: score,
		}
	}
	return out
}

func noNav() adapters.ServiceResult[adapters.MultiStopRoute] {
	return adapters.ServiceResult[adapters.MultiStopRoute]{Success: true, Source: adapters.SourceNavigation}
}

func TestAssemble_SingleDayHappyPath(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 1}

	plan := a.Assemble(scoredSet(4, 80), ti, noNav(), testDay, nil)

	if len(plan.Days) != 1 {
		t.Fatalf("days = %d, want 1", len(plan.Days))
	}
	if got := len(plan.Days[0].Items); got != 4 {
		t.Fatalf("items = %d, want 4", got)
	}
	if plan.Partial {
		t.Error("Partial = true, want false")
	}
	if len(plan.Unplaced) != 0 {
		t.Errorf("Unplaced = %v, want empty", plan.Unplaced)
	}
	if plan.OverallScore != 80 {
		t.Errorf("OverallScore = %v, want 80", plan.OverallScore)
	}
}

func TestAssemble_WindowsMonotonic(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 2}

	plan := a.Assemble(scoredSet(7, 70), ti, noNav(), testDay, nil)

	for di, d := range plan.Days {
		prevEnd := time.Time{}
		for ii, it := range d.Items {
			if !it.Window.End.After(it.Window.Start) {
				t.Errorf("day %d item %d: window end not after start", di, ii)
			}
			if ii > 0 && it.Window.Start.Before(prevEnd) {
				t.Errorf("day %d item %d: window overlaps previous", di, ii)
			}
			if ii == 0 && it.TravelTimeFromPrevious != 0 {
				t.Errorf("day %d: first item has travel time %v", di, it.TravelTimeFromPrevious)
			}
			prevEnd = it.Window.End
		}
	}
}

func TestAssemble_CapacitySpillsToNextDay(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 2}

	plan := a.Assemble(scoredSet(6, 70), ti, noNav(), testDay, nil)

	if got := len(plan.Days[0].Items); got != 4 {
		t.Errorf("day 1 items = %d, want capacity 4", got)
	}
	if got := len(plan.Days[1].Items); got != 2 {
		t.Errorf("day 2 items = %d, want 2", got)
	}
}

func TestAssemble_OverflowBecomesAlternates(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 1}

	plan := a.Assemble(scoredSet(6, 70), ti, noNav(), testDay, nil)

	if got := len(plan.Days[0].Items); got != 4 {
		t.Fatalf("items = %d, want 4", got)
	}
	var alternates int
	for _, it := range plan.Days[0].Items {
		if len(it.Alternates) > testCfg.MaxAlternates {
			t.Errorf("alternates = %d, want at most %d", len(it.Alternates), testCfg.MaxAlternates)
		}
		alternates += len(it.Alternates)
	}
	// Every candidate is accounted for: scheduled, alternate, or unplaced.
	if alternates+len(plan.Unplaced) != 2 {
		t.Errorf("alternates %d + unplaced %d, want 2 total", alternates, len(plan.Unplaced))
	}
}

func TestAssemble_OpeningHoursShiftAndReject(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 1}

	lateOpener := scoring.ScoredPOI{
		Candidate: adapters.POICandidate{
			ID: "poi-001", Name: "晚开门", CategoryTags: []string{"scenic_spot"},
			OpeningHours: adapters.HoursRange{Open: 11, Close: 22},
		},
		AdjustedScore: 90,
	}
	earlyCloser := scoring.ScoredPOI{
		Candidate: adapters.POICandidate{
			ID: "poi-002", Name: "早关门", CategoryTags: []string{"museum"},
			OpeningHours: adapters.HoursRange{Open: 9, Close: 10},
		},
		AdjustedScore: 85,
	}

	plan := a.Assemble([]scoring.ScoredPOI{lateOpener, earlyCloser}, ti, noNav(), testDay, nil)

	items := plan.Days[0].Items
	if len(items) != 1 || items[0].POIID != "poi-001" {
		t.Fatalf("items = %v, want only poi-001", items)
	}
	// The day starts at 09:00 but the visit waits for the doors.
	if items[0].Window.Start.Hour() != 11 {
		t.Errorf("start hour = %d, want shifted to 11", items[0].Window.Start.Hour())
	}
}

func TestAssemble_TravelBudgetBounds(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 1}
	// Two-hour legs: the third item would need 4h of in-day travel.
	nav := adapters.ServiceResult[adapters.MultiStopRoute]{
		Success: true,
		Data: adapters.MultiStopRoute{
			Legs:  []adapters.Route{{Duration: 2 * time.Hour}},
			Total: 2 * time.Hour,
		},
		Source: adapters.SourceNavigation,
	}

	plan := a.Assemble(scoredSet(4, 70), ti, nav, testDay, nil)

	if got := len(plan.Days[0].Items); got != 2 {
		t.Errorf("items = %d, want 2 under the travel budget", got)
	}
}

func TestAssemble_EmptyInputIsPartial(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 2}

	plan := a.Assemble(nil, ti, noNav(), testDay, nil)

	if !plan.Partial {
		t.Error("Partial = false, want true for empty plan")
	}
	if plan.OverallScore != 0 {
		t.Errorf("OverallScore = %v, want 0", plan.OverallScore)
	}
	if len(plan.Days) != 2 {
		t.Errorf("days = %d, want 2 empty days", len(plan.Days))
	}
}

func TestAssemble_VisitDurationFromConfig(t *testing.T) {
	cfg := testCfg
	cfg.VisitDurations = map[string]time.Duration{"scenic_spot": 3 * time.Hour}
	a := NewAssembler(cfg, time.UTC).WithClock(func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	})
	ti := intent.TripIntent{DurationDays: 1}

	unknown := scoring.ScoredPOI{
		Candidate: adapters.POICandidate{
			ID: "poi-002", Name: "无类别", CategoryTags: []string{"teahouse"},
			OpeningHours: adapters.HoursRange{Open: 8, Close: 22},
		},
		AdjustedScore: 60,
	}
	plan := a.Assemble(append(scoredSet(1, 70), unknown), ti, noNav(), testDay, nil)

	items := plan.Days[0].Items
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if got := items[0].Window.End.Sub(items[0].Window.Start); got != 3*time.Hour {
		t.Errorf("scenic_spot visit = %v, want configured 3h", got)
	}
	// A category missing from the table falls back to DefaultVisit.
	if got := items[1].Window.End.Sub(items[1].Window.Start); got != cfg.DefaultVisit {
		t.Errorf("unknown category visit = %v, want default %v", got, cfg.DefaultVisit)
	}
}

func TestAttachAlternate_PrefersConflictDay(t *testing.T) {
	mkDays := func() []dayState {
		return []dayState{
			{items: []Item{{POIID: "poi-001"}}},
			{items: []Item{{POIID: "poi-002"}}},
			{items: []Item{{POIID: "poi-003"}}},
		}
	}

	days := mkDays()
	if !attachAlternate(days, "poi-x", 3, 1) {
		t.Fatal("attachAlternate = false, want true")
	}
	if got := days[1].items[0].Alternates; len(got) != 1 || got[0] != "poi-x" {
		t.Errorf("day 2 alternates = %v, want the candidate on its conflict day", got)
	}
	if len(days[0].items[0].Alternates) != 0 || len(days[2].items[0].Alternates) != 0 {
		t.Error("alternate attached away from the conflict day")
	}

	// A full conflict day spills to the nearest day, the earlier one first.
	days = mkDays()
	days[1].items[0].Alternates = []string{"a", "b", "c"}
	if !attachAlternate(days, "poi-y", 3, 1) {
		t.Fatal("attachAlternate = false, want spill to a neighbor")
	}
	if got := days[0].items[0].Alternates; len(got) != 1 || got[0] != "poi-y" {
		t.Errorf("day 1 alternates = %v, want spill to the earlier neighbor", got)
	}

	// No free slot anywhere leaves the candidate unattached.
	days = mkDays()
	for di := range days {
		days[di].items[0].Alternates = []string{"a", "b", "c"}
	}
	if attachAlternate(days, "poi-z", 3, 1) {
		t.Error("attachAlternate = true, want false with every slot taken")
	}
}

func TestAssemble_AlternateLandsOnConflictDay(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 2}

	// Nine candidates against a 4-per-day cap: day one and two fill, and the
	// ninth becomes an alternate on the first day that turned it away.
	plan := a.Assemble(scoredSet(9, 70), ti, noNav(), testDay, nil)

	if len(plan.Unplaced) != 0 {
		t.Fatalf("Unplaced = %v, want the overflow attached", plan.Unplaced)
	}
	var total int
	for _, it := range plan.Days[1].Items {
		total += len(it.Alternates)
	}
	if got := len(plan.Days[0].Items[0].Alternates); got != 1 {
		t.Errorf("day 1 first-item alternates = %d, want 1 on the conflict day", got)
	}
	if total != 0 {
		t.Errorf("day 2 holds %d alternates, want 0", total)
	}
}

func TestAssemble_BestTimeWindowFromCrowd(t *testing.T) {
	a := newTestAssembler()
	ti := intent.TripIntent{DurationDays: 1}
	crowd := map[string]adapters.ServiceResult[adapters.CrowdInfo]{
		"地点1": {Success: true, Data: adapters.CrowdInfo{BestTimeWindow: "上午9-11点"}, Source: adapters.SourceCrowd},
	}

	plan := a.Assemble(scoredSet(1, 70), ti, noNav(), testDay, crowd)

	if got := plan.Days[0].Items[0].BestTimeWindow; got != "上午9-11点" {
		t.Errorf("BestTimeWindow = %q, want crowd suggestion", got)
	}
}
