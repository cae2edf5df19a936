// README: End-to-end planning pipeline: extract, resolve, orchestrate, score, assemble.
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"atlas/internal/adapters"
	"atlas/internal/ai"
	"atlas/internal/config"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
	"atlas/internal/modules/orchestrate"
	"atlas/internal/modules/refine"
	"atlas/internal/modules/resolve"
	"atlas/internal/modules/scoring"
	"atlas/internal/types"
)

// PlanStore persists the plan chain. A nil store is valid; the engine then
// runs stateless.
type PlanStore interface {
	Save(ctx context.Context, plan *itinerary.TravelPlan) error
	Get(ctx context.Context, id types.ID) (*itinerary.TravelPlan, error)
}

type Deps struct {
	Extractor *intent.Service
	Resolver  *resolve.Service
	Orch      *orchestrate.Service
	Scorer    *scoring.Service
	Assembler *itinerary.Assembler
	Narrator  ai.Narrator
	Store     PlanStore
	Assembly  config.AssemblerConfig
	Region    config.RegionConfig
	Logger    *zap.Logger
}

type Planner struct {
	extractor *intent.Service
	resolver  *resolve.Service
	orch      *orchestrate.Service
	scorer    *scoring.Service
	assembler *itinerary.Assembler
	narrator  ai.Narrator
	store     PlanStore
	refiner   *refine.Service
	assembly  config.AssemblerConfig
	region    config.RegionConfig
	log       *zap.Logger
	now       func() time.Time
}

func New(deps Deps) *Planner {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		extractor: deps.Extractor,
		resolver:  deps.Resolver,
		orch:      deps.Orch,
		scorer:    deps.Scorer,
		assembler: deps.Assembler,
		narrator:  deps.Narrator,
		store:     deps.Store,
		assembly:  deps.Assembly,
		region:    deps.Region,
		log:       log,
		now:       time.Now,
	}
}

// WithClock fixes the planner's clock, for reproducible tests.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

type Request struct {
	Text      string     `json:"text"`
	Tags      []string   `json:"tags,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// Plan runs the full pipeline for a fresh request.
func (p *Planner) Plan(ctx context.Context, req Request) (*itinerary.TravelPlan, error) {
	ti := p.extractor.Extract(req.Text, req.Tags, nil)
	if req.StartDate != nil {
		start := *req.StartDate
		ti.DateRange = &intent.DateRange{
			Start: start,
			End:   start.AddDate(0, 0, ti.DurationDays-1),
		}
	}
	return p.Run(ctx, ti, nil)
}

// Run executes the pipeline for an already extracted intent. It never
// surfaces adapter failures as errors; those arrive as degraded plan
// metadata. The parent plan, when present, is only context for refinement.
func (p *Planner) Run(ctx context.Context, ti intent.TripIntent, parent *itinerary.TravelPlan) (*itinerary.TravelPlan, error) {
	if len(ti.Locations) == 0 {
		plan := &itinerary.TravelPlan{
			ID:                 types.NewID(),
			GeneratedAt:        p.now(),
			NeedsClarification: true,
			Partial:            true,
			Intent:             ti,
		}
		p.persist(ctx, plan)
		return plan, nil
	}

	ti.Locations = p.resolver.Resolve(ctx, ti.Locations, p.region.Hint)

	results := p.orch.Run(ctx, ti)

	candidates := p.candidates(ti, results)
	scored := p.scorer.Score(ti, candidates, results)

	nav := p.orch.Navigate(ctx, p.stops(ti, scored))

	plan := p.assembler.Assemble(scored, ti, nav, p.firstDay(ti), results.Crowd)
	plan.NeedsClarification = ti.NeedsClarification
	plan.DegradedSources = results.DegradedSources()
	if nav.Degraded {
		plan.DegradedSources = append(plan.DegradedSources, adapters.SourceNavigation)
	}
	if results.Traffic != nil && results.Traffic.Data.CongestionLevel != "" {
		t := results.Traffic.Data
		plan.TrafficAdvisory = fmt.Sprintf("当前路况%s，%s", t.CongestionLevel, t.Advisory)
	}
	plan.NarrativeHighlights = p.highlights(ctx, &plan, ti)

	// Refinement linkage is stamped before the row is written so the stored
	// chain matches what the caller sees.
	if parent != nil {
		plan.Iteration = parent.Iteration + 1
		parentID := parent.ID
		plan.ParentPlanID = &parentID
	}

	p.persist(ctx, &plan)
	return &plan, nil
}

// candidates prefers the POI discovery result; when discovery returned
// nothing, the resolved mentions themselves are the candidate set.
func (p *Planner) candidates(ti intent.TripIntent, results *orchestrate.Results) []adapters.POICandidate {
	if results.POIs != nil && len(results.POIs.Data) > 0 {
		return results.POIs.Data
	}
	var out []adapters.POICandidate
	for _, m := range ti.ResolvedLocations() {
		out = append(out, *m.Candidate)
	}
	return out
}

// stops picks the names routed by navigation: the top scored candidates up
// to the plan's total capacity.
func (p *Planner) stops(ti intent.TripIntent, scored []scoring.ScoredPOI) []string {
	limit := ti.DurationDays * p.assembly.MaxItemsPerDay
	if limit > len(scored) {
		limit = len(scored)
	}
	out := make([]string, 0, limit)
	for _, sp := range scored[:limit] {
		out = append(out, sp.Candidate.Name)
	}
	return out
}

func (p *Planner) firstDay(ti intent.TripIntent) time.Time {
	if ti.DateRange != nil {
		return ti.DateRange.Start
	}
	return p.now().AddDate(0, 0, 1)
}

func (p *Planner) highlights(ctx context.Context, plan *itinerary.TravelPlan, ti intent.TripIntent) []string {
	if p.narrator == nil {
		return ai.FallbackHighlights(plan, ti)
	}
	out, err := p.narrator.Highlights(ctx, plan, ti)
	if err != nil || len(out) == 0 {
		return ai.FallbackHighlights(plan, ti)
	}
	return out
}

// persist is best effort; losing a row never fails a planning run.
func (p *Planner) persist(ctx context.Context, plan *itinerary.TravelPlan) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, plan); err != nil {
		p.log.Warn("failed to persist plan", zap.String("plan_id", string(plan.ID)), zap.Error(err))
	}
}

// Get loads a stored plan.
func (p *Planner) Get(ctx context.Context, id types.ID) (*itinerary.TravelPlan, error) {
	if p.store == nil {
		return nil, ErrNotFound
	}
	return p.store.Get(ctx, id)
}

// AttachRefiner wires the feedback loop after construction; the refiner
// replans through Run, so the two reference each other.
func (p *Planner) AttachRefiner(r *refine.Service) {
	p.refiner = r
}

// RefinePlan loads a previous plan and refines it with the feedback text.
func (p *Planner) RefinePlan(ctx context.Context, planID types.ID, feedbackText string) (*itinerary.TravelPlan, error) {
	prev, err := p.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	return p.refiner.Refine(ctx, prev, feedbackText, prev.Intent)
}
