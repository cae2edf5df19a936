// README: Feedback refinement loop, bounded by an iteration cap.
package refine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
)

var ErrIterationLimitExceeded = errors.New("refinement iteration limit exceeded")

// PlanFunc re-runs the planning pipeline for a derived intent. The parent
// plan rides along so the pipeline can reuse what still holds (resolved
// locations in particular stay resolved).
type PlanFunc func(ctx context.Context, ti intent.TripIntent, parent *itinerary.TravelPlan) (*itinerary.TravelPlan, error)

type Service struct {
	extractor     *intent.Service
	plan          PlanFunc
	maxIterations int
	log           *zap.Logger
}

func NewService(extractor *intent.Service, plan PlanFunc, maxIterations int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{extractor: extractor, plan: plan, maxIterations: maxIterations, log: log}
}

// Refine derives a delta intent from the feedback on top of the prior intent
// and replans. Empty feedback changes nothing in the intent, so the resulting
// plan scores identically to the previous one. The chain is capped; past the
// limit callers must start a fresh plan.
func (s *Service) Refine(ctx context.Context, previous *itinerary.TravelPlan, feedbackText string, prior intent.TripIntent) (*itinerary.TravelPlan, error) {
	if previous.Iteration+1 > s.maxIterations {
		return nil, ErrIterationLimitExceeded
	}

	delta := s.extractor.Extract(feedbackText, nil, &prior)

	plan, err := s.plan(ctx, delta, previous)
	if err != nil {
		return nil, err
	}

	plan.Iteration = previous.Iteration + 1
	parentID := previous.ID
	plan.ParentPlanID = &parentID

	s.log.Info("plan refined",
		zap.String("parent_plan_id", string(parentID)),
		zap.Int("iteration", plan.Iteration))
	return plan, nil
}
