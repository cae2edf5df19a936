// README: Adapter registry and orchestrator; decides which sources to call and fans out.
package orchestrate

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"atlas/internal/adapters"
	"atlas/internal/modules/intent"
	"atlas/internal/types"
)

// Source interfaces are the slices of each adapter the orchestrator uses;
// the HTTP/Maps adapters and the static demo adapters both satisfy them.
type WeatherSource interface {
	Forecast(ctx context.Context, location string) adapters.ServiceResult[adapters.WeatherReport]
}

type CrowdSource interface {
	Visit(ctx context.Context, location string) adapters.ServiceResult[adapters.CrowdInfo]
}

type TrafficSource interface {
	Status(ctx context.Context, origin, destination string) adapters.ServiceResult[adapters.TrafficInfo]
}

type POISource interface {
	Search(ctx context.Context, keywords, region string) adapters.ServiceResult[[]adapters.POICandidate]
	Around(ctx context.Context, at types.Point, radiusM uint, keywords string) adapters.ServiceResult[[]adapters.POICandidate]
}

type NavigationSource interface {
	Route(ctx context.Context, origin, destination, strategy string) adapters.ServiceResult[adapters.Route]
	MultiStop(ctx context.Context, origin string, destinations []string) adapters.ServiceResult[adapters.MultiStopRoute]
}

// Registry holds the wired sources. Nil entries are simply never called.
type Registry struct {
	Weather    WeatherSource
	Crowd      CrowdSource
	Traffic    TrafficSource
	POI        POISource
	Navigation NavigationSource
}

// Results is the merged outcome of one fan-out. Nil pointers mark sources the
// decision table did not trigger; Crowd is keyed by location.
type Results struct {
	Weather *adapters.ServiceResult[adapters.WeatherReport]
	Crowd   map[string]adapters.ServiceResult[adapters.CrowdInfo]
	Traffic *adapters.ServiceResult[adapters.TrafficInfo]
	POIs    *adapters.ServiceResult[[]adapters.POICandidate]
}

// DegradedSources lists every source that served fallback data, for the plan
// metadata the consumer must surface.
func (r *Results) DegradedSources() []adapters.Name {
	seen := map[adapters.Name]bool{}
	if r.Weather != nil && r.Weather.Degraded {
		seen[adapters.SourceWeather] = true
	}
	for _, c := range r.Crowd {
		if c.Degraded {
			seen[adapters.SourceCrowd] = true
		}
	}
	if r.Traffic != nil && r.Traffic.Degraded {
		seen[adapters.SourceTraffic] = true
	}
	if r.POIs != nil && r.POIs.Degraded {
		seen[adapters.SourcePOI] = true
	}

	out := make([]adapters.Name, 0, len(seen))
	for _, name := range []adapters.Name{adapters.SourceWeather, adapters.SourceCrowd, adapters.SourceTraffic, adapters.SourcePOI} {
		if seen[name] {
			out = append(out, name)
		}
	}
	return out
}

type Service struct {
	reg      Registry
	region   string
	origin   string
	deadline time.Duration
	log      *zap.Logger
}

func NewService(reg Registry, regionCity, originHint string, runDeadline time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{reg: reg, region: regionCity, origin: originHint, deadline: runDeadline, log: log}
}

// plan is the decision table outcome for one intent.
type plan struct {
	poi     bool
	weather bool
	crowd   bool
	traffic bool
}

// decide maps intent features to sources: resolved locations trigger POI
// discovery, weather sensitivity or concrete dates trigger weather, crowd
// aversion triggers crowd, and multi-location trips trigger traffic.
func (s *Service) decide(ti intent.TripIntent) plan {
	resolved := ti.ResolvedLocations()
	return plan{
		poi:     len(resolved) >= 1,
		weather: ti.HasConcern(intent.ConcernWeatherSensitive) || ti.DateRange != nil,
		crowd:   ti.HasConcern(intent.ConcernCrowdAverse),
		traffic: len(ti.Locations) > 1,
	}
}

// Run fans out the independent sources concurrently under the run deadline.
// Navigation is not part of Run; it depends on POI selection and is invoked
// separately through Navigate.
func (s *Service) Run(ctx context.Context, ti intent.TripIntent) *Results {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	p := s.decide(ti)
	out := &Results{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	if p.weather && s.reg.Weather != nil {
		location := s.origin
		if len(ti.Locations) > 0 {
			location = ti.Locations[0].RawText
		}
		g.Go(func() error {
			res := s.reg.Weather.Forecast(gctx, location)
			mu.Lock()
			out.Weather = &res
			mu.Unlock()
			return nil
		})
	}

	if p.crowd && s.reg.Crowd != nil {
		mu.Lock()
		out.Crowd = map[string]adapters.ServiceResult[adapters.CrowdInfo]{}
		mu.Unlock()
		for _, m := range ti.Locations {
			location := m.RawText
			g.Go(func() error {
				res := s.reg.Crowd.Visit(gctx, location)
				mu.Lock()
				out.Crowd[location] = res
				mu.Unlock()
				return nil
			})
		}
	}

	if p.traffic && s.reg.Traffic != nil {
		destination := ti.Locations[len(ti.Locations)-1].RawText
		g.Go(func() error {
			res := s.reg.Traffic.Status(gctx, s.origin, destination)
			mu.Lock()
			out.Traffic = &res
			mu.Unlock()
			return nil
		})
	}

	if p.poi && s.reg.POI != nil {
		keywords := poiKeywords(ti)
		g.Go(func() error {
			res := s.reg.POI.Search(gctx, keywords, s.region)
			mu.Lock()
			out.POIs = &res
			mu.Unlock()
			return nil
		})
	}

	// Sources swallow their own failures, so the only error path here is
	// the deadline, which they also handle by serving fallbacks.
	_ = g.Wait()

	s.log.Debug("orchestration complete",
		zap.Bool("poi", p.poi), zap.Bool("weather", p.weather),
		zap.Bool("crowd", p.crowd), zap.Bool("traffic", p.traffic))
	return out
}

// Navigate routes the chosen stops in order, starting from the region's
// default origin. Called after scoring has fixed the stop selection.
func (s *Service) Navigate(ctx context.Context, stops []string) adapters.ServiceResult[adapters.MultiStopRoute] {
	if s.reg.Navigation == nil || len(stops) == 0 {
		return adapters.ServiceResult[adapters.MultiStopRoute]{Success: true, Source: adapters.SourceNavigation}
	}
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()
	return s.reg.Navigation.MultiStop(ctx, s.origin, stops)
}

// poiKeywords builds the discovery query from resolved mentions and the
// strongest preference tags.
func poiKeywords(ti intent.TripIntent) string {
	var parts []string
	for _, m := range ti.ResolvedLocations() {
		parts = append(parts, m.Candidate.Name)
	}
	if len(parts) == 0 {
		for _, m := range ti.Locations {
			parts = append(parts, m.RawText)
		}
	}
	parts = append(parts, "景点")
	return strings.Join(parts, " ")
}
