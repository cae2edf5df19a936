// README: Plan store backed by PostgreSQL; persists the parent_plan_id chain.
package planner

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlas/internal/modules/itinerary"
	"atlas/internal/types"
)

var ErrNotFound = errors.New("plan not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, plan *itinerary.TravelPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	var parent *string
	if plan.ParentPlanID != nil {
		v := string(*plan.ParentPlanID)
		parent = &v
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO travel_plans (
			id, parent_plan_id, iteration, generated_at, payload
		) VALUES ($1, $2, $3, $4, $5)`,
		string(plan.ID),
		parent,
		plan.Iteration,
		plan.GeneratedAt,
		payload,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*itinerary.TravelPlan, error) {
	row := s.db.QueryRow(ctx, `
		SELECT payload FROM travel_plans WHERE id = $1`, string(id),
	)

	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var plan itinerary.TravelPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
