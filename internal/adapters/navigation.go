// README: Navigation adapter over the Google Directions API.
package adapters

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"atlas/internal/config"
)

const fallbackLegDuration = 30 * time.Minute

type NavigationAdapter struct {
	caller *Caller
	client *maps.Client
}

func NewNavigationAdapter(apiKey string, cfg config.AdapterConfig, log *zap.Logger) (*NavigationAdapter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &NavigationAdapter{
		caller: NewCaller(SourceNavigation, cfg, log),
		client: client,
	}, nil
}

// Route computes one leg. Strategy maps onto a travel mode; anything
// unrecognized falls back to transit, the default for city itineraries.
func (a *NavigationAdapter) Route(ctx context.Context, origin, destination, strategy string) ServiceResult[Route] {
	return Call(ctx, a.caller, func(cctx context.Context) (Route, error) {
		return a.leg(cctx, origin, destination, travelMode(strategy))
	}, fallbackRoute(origin, destination))
}

// MultiStop computes an ordered route through all destinations.
func (a *NavigationAdapter) MultiStop(ctx context.Context, origin string, destinations []string) ServiceResult[MultiStopRoute] {
	fallback := fallbackMultiStop(origin, destinations)
	if len(destinations) == 0 {
		return ServiceResult[MultiStopRoute]{Success: true, Data: MultiStopRoute{}, Source: SourceNavigation}
	}

	return Call(ctx, a.caller, func(cctx context.Context) (MultiStopRoute, error) {
		r := &maps.DirectionsRequest{
			Origin:      origin,
			Destination: destinations[len(destinations)-1],
			Mode:        maps.TravelModeTransit,
			Language:    "zh-CN",
			Region:      "CN",
		}
		if len(destinations) > 1 {
			r.Waypoints = destinations[:len(destinations)-1]
			r.Mode = maps.TravelModeDriving // transit does not support waypoints
		}

		routes, _, err := a.client.Directions(cctx, r)
		if err != nil {
			return MultiStopRoute{}, fmt.Errorf("directions api error: %w", err)
		}
		if len(routes) == 0 || len(routes[0].Legs) == 0 {
			return MultiStopRoute{}, fmt.Errorf("no route found")
		}

		var out MultiStopRoute
		prev := origin
		for i, leg := range routes[0].Legs {
			dest := destinations[min(i, len(destinations)-1)]
			out.Legs = append(out.Legs, Route{
				Origin:      prev,
				Destination: dest,
				DistanceM:   leg.Distance.Meters,
				Duration:    leg.Duration,
			})
			out.Total += leg.Duration
			prev = dest
		}
		return out, nil
	}, fallback)
}

func (a *NavigationAdapter) leg(ctx context.Context, origin, destination string, mode maps.Mode) (Route, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        mode,
		Language:    "zh-CN",
		Region:      "CN",
	}
	routes, _, err := a.client.Directions(ctx, r)
	if err != nil {
		return Route{}, fmt.Errorf("directions api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	out := Route{
		Origin:      origin,
		Destination: destination,
		DistanceM:   leg.Distance.Meters,
		Duration:    leg.Duration,
	}
	for _, step := range leg.Steps {
		out.Steps = append(out.Steps, step.HTMLInstructions)
	}
	return out, nil
}

func travelMode(strategy string) maps.Mode {
	switch strategy {
	case "driving", "自驾":
		return maps.TravelModeDriving
	case "walking", "步行":
		return maps.TravelModeWalking
	default:
		return maps.TravelModeTransit
	}
}

// Fallback legs assume a 30 minute transit hop, matching the offline demo
// data.
func fallbackRoute(origin, destination string) Route {
	return Route{Origin: origin, Destination: destination, Duration: fallbackLegDuration}
}

func fallbackMultiStop(origin string, destinations []string) MultiStopRoute {
	var out MultiStopRoute
	prev := origin
	for _, d := range destinations {
		out.Legs = append(out.Legs, fallbackRoute(prev, d))
		out.Total += fallbackLegDuration
		prev = d
	}
	return out
}
