package planner

import (
	"context"
	"testing"
	"time"

	"atlas/internal/adapters"
	"atlas/internal/config"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/orchestrate"
	"atlas/internal/modules/refine"
	"atlas/internal/modules/resolve"
	"atlas/internal/modules/scoring"
	"atlas/internal/types"
)

// memStore keeps plans in a map, standing in for the pgx store.
type memStore struct {
	plans map[types.ID]*itinerary.TravelPlan
}

func newMemStore() *memStore {
	return &memStore{plans: map[types.ID]*itinerary.TravelPlan{}}
}

func (s *memStore) Save(_ context.Context, plan *itinerary.TravelPlan) error {
	s.plans[plan.ID] = plan
	return nil
}

func (s *memStore) Get(_ context.Context, id types.ID) (*itinerary.TravelPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return plan, nil
}

func testConfig() config.Config {
	cfg, _ := config.Load()
	return cfg
}

func newTestPlanner(t *testing.T, store PlanStore, weatherDegraded bool) *Planner {
	t.Helper()
	cfg := testConfig()

	static := &adapters.StaticPOI{Candidates: adapters.DemoCandidates()}
	reg := orchestrate.Registry{
		Weather: &adapters.StaticWeather{
			Report:   adapters.WeatherReport{Condition: "多云", TemperatureC: 22},
			Degraded: weatherDegraded,
		},
		Crowd:      &adapters.StaticCrowd{Default: adapters.CrowdInfo{Level: adapters.CrowdMedium}},
		Traffic:    &adapters.StaticTraffic{Info: adapters.TrafficInfo{CongestionLevel: "畅通", Advisory: "建议乘坐地铁出行"}},
		POI:        static,
		Navigation: &adapters.StaticNavigation{Leg: 25 * time.Minute},
	}

	extractor, err := intent.NewService(cfg.Budget)
	if err != nil {
		t.Fatalf("intent.NewService: %v", err)
	}

	pl := New(Deps{
		Extractor: extractor,
		Resolver:  resolve.NewService(static, nil),
		Orch:      orchestrate.NewService(reg, cfg.Region.City, cfg.Region.Hint, cfg.Adapter.RunDeadline, nil),
		Scorer:    scoring.NewService(cfg.Scoring),
		Assembler: itinerary.NewAssembler(cfg.Assembler, time.UTC),
		Store:     store,
		Assembly:  cfg.Assembler,
		Region:    cfg.Region,
	}).WithClock(func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	})
	pl.AttachRefiner(refine.NewService(extractor, pl.Run, cfg.Refine.MaxIterations, nil))
	return pl
}

func TestPlan_NoSignalAsksForClarification(t *testing.T) {
	store := newMemStore()
	pl := newTestPlanner(t, store, false)

	plan, err := pl.Plan(context.Background(), Request{Text: "随便走走"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if !plan.NeedsClarification {
		t.Error("NeedsClarification = false, want true")
	}
	if !plan.Partial {
		t.Error("Partial = false, want true")
	}
	if _, ok := store.plans[plan.ID]; !ok {
		t.Error("clarification plan not persisted")
	}
}

func TestPlan_FullPipeline(t *testing.T) {
	pl := newTestPlanner(t, newMemStore(), false)

	plan, err := pl.Plan(context.Background(), Request{
		Text: "带女朋友去外滩和豫园玩2天，想要浪漫一点，不想人多",
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if plan.NeedsClarification {
		t.Error("NeedsClarification = true, want false")
	}
	if len(plan.Days) != 2 {
		t.Fatalf("days = %d, want 2", len(plan.Days))
	}
	var items int
	for _, d := range plan.Days {
		items += len(d.Items)
	}
	if items == 0 {
		t.Fatal("no items scheduled")
	}
	if plan.OverallScore <= 0 || plan.OverallScore > 100 {
		t.Errorf("OverallScore = %v, want (0, 100]", plan.OverallScore)
	}
	if len(plan.DegradedSources) != 0 {
		t.Errorf("DegradedSources = %v, want none", plan.DegradedSources)
	}
	if plan.TrafficAdvisory == "" {
		t.Error("TrafficAdvisory empty, want advisory from traffic source")
	}
	if len(plan.NarrativeHighlights) == 0 {
		t.Error("NarrativeHighlights empty, want fallback narration")
	}
	if !plan.Intent.Companions[intent.CompanionPartner] {
		t.Errorf("intent companions = %v, want partner", plan.Intent.Companions)
	}
}

func TestPlan_DegradedSourceSurfaces(t *testing.T) {
	pl := newTestPlanner(t, newMemStore(), true)

	start := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	plan, err := pl.Plan(context.Background(), Request{
		Text:      "去外滩玩2天",
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	found := false
	for _, s := range plan.DegradedSources {
		if s == adapters.SourceWeather {
			found = true
		}
	}
	if !found {
		t.Errorf("DegradedSources = %v, want weather listed", plan.DegradedSources)
	}
}

func TestRefinePlan_ChainsThroughStore(t *testing.T) {
	store := newMemStore()
	pl := newTestPlanner(t, store, false)
	ctx := context.Background()

	first, err := pl.Plan(ctx, Request{Text: "带女朋友去外滩玩2天，想要浪漫一点"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	refined, err := pl.RefinePlan(ctx, first.ID, "想去点小众的地方")
	if err != nil {
		t.Fatalf("RefinePlan: %v", err)
	}

	if refined.Iteration != 1 {
		t.Errorf("Iteration = %d, want 1", refined.Iteration)
	}
	if refined.ParentPlanID == nil || *refined.ParentPlanID != first.ID {
		t.Errorf("ParentPlanID = %v, want %s", refined.ParentPlanID, first.ID)
	}
	// The refined preference shifts the ranking toward niche spots.
	if refined.Intent.PreferenceTags["niche"] != 1 {
		t.Errorf("niche = %v, want 1", refined.Intent.PreferenceTags["niche"])
	}

	stored, err := pl.Get(ctx, refined.ID)
	if err != nil {
		t.Fatalf("Get refined: %v", err)
	}
	if stored.Iteration != 1 || stored.ParentPlanID == nil {
		t.Error("stored plan missing refinement linkage")
	}
}

func TestPlan_RepeatedRunsDeterministic(t *testing.T) {
	pl := newTestPlanner(t, newMemStore(), false)
	ctx := context.Background()
	req := Request{Text: "带女朋友去外滩和豫园玩2天，想要浪漫一点，不想人多"}

	first, err := pl.Plan(ctx, req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	second, err := pl.Plan(ctx, req)
	if err != nil {
		t.Fatalf("Plan again: %v", err)
	}

	assertSameSchedule(t, first, second)
	if first.OverallScore != second.OverallScore {
		t.Errorf("OverallScore = %v then %v, want identical", first.OverallScore, second.OverallScore)
	}
}

func TestRefinePlan_EmptyFeedbackKeepsSchedule(t *testing.T) {
	pl := newTestPlanner(t, newMemStore(), false)
	ctx := context.Background()

	first, err := pl.Plan(ctx, Request{Text: "带女朋友去外滩和豫园玩2天，想要浪漫一点，不想人多"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	refined, err := pl.RefinePlan(ctx, first.ID, "")
	if err != nil {
		t.Fatalf("RefinePlan: %v", err)
	}

	if refined.Iteration != 1 {
		t.Errorf("Iteration = %d, want 1", refined.Iteration)
	}
	assertSameSchedule(t, first, refined)
}

// assertSameSchedule checks that two plans visit the same places in the same
// order with identical scores; identity fields are expected to differ.
func assertSameSchedule(t *testing.T, a, b *itinerary.TravelPlan) {
	t.Helper()
	if len(a.Days) != len(b.Days) {
		t.Fatalf("days = %d vs %d, want equal", len(a.Days), len(b.Days))
	}
	for di := range a.Days {
		if len(a.Days[di].Items) != len(b.Days[di].Items) {
			t.Fatalf("day %d items = %d vs %d, want equal", di, len(a.Days[di].Items), len(b.Days[di].Items))
		}
		for ii := range a.Days[di].Items {
			if a.Days[di].Items[ii].POIID != b.Days[di].Items[ii].POIID {
				t.Errorf("day %d item %d = %s vs %s, want same place", di, ii,
					a.Days[di].Items[ii].POIID, b.Days[di].Items[ii].POIID)
			}
		}
	}
	as, bs := a.ScheduledScores(), b.ScheduledScores()
	if len(as) != len(bs) {
		t.Fatalf("scheduled scores = %d vs %d entries, want equal", len(as), len(bs))
	}
	for i := range as {
		if as[i] != bs[i] {
			t.Errorf("score[%d] = %v vs %v, want identical", i, as[i], bs[i])
		}
	}
}

func TestRefinePlan_UnknownParent(t *testing.T) {
	pl := newTestPlanner(t, newMemStore(), false)

	if _, err := pl.RefinePlan(context.Background(), "missing", "换个地方"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
