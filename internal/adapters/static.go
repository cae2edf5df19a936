// README: In-process static adapters for the offline demo and tests.
package adapters

import (
	"context"
	"time"

	"atlas/internal/types"
)

// StaticWeather serves a fixed report for every location.
type StaticWeather struct {
	Report   WeatherReport
	Degraded bool
}

func (s *StaticWeather) Forecast(_ context.Context, location string) ServiceResult[WeatherReport] {
	data := s.Report
	data.Location = location
	return ServiceResult[WeatherReport]{Success: !s.Degraded, Data: data, Degraded: s.Degraded, Source: SourceWeather}
}

// StaticCrowd serves per-location levels with a default.
type StaticCrowd struct {
	ByLocation map[string]CrowdInfo
	Default    CrowdInfo
	Degraded   bool
}

func (s *StaticCrowd) Visit(_ context.Context, location string) ServiceResult[CrowdInfo] {
	data, ok := s.ByLocation[location]
	if !ok {
		data = s.Default
	}
	data.Location = location
	return ServiceResult[CrowdInfo]{Success: !s.Degraded, Data: data, Degraded: s.Degraded, Source: SourceCrowd}
}

type StaticTraffic struct {
	Info     TrafficInfo
	Degraded bool
}

func (s *StaticTraffic) Status(_ context.Context, _, destination string) ServiceResult[TrafficInfo] {
	data := s.Info
	data.Region = destination
	return ServiceResult[TrafficInfo]{Success: !s.Degraded, Data: data, Degraded: s.Degraded, Source: SourceTraffic}
}

// StaticPOI serves a fixed candidate set; Suggest filters it by substring so
// resolver tests can exercise disambiguation.
type StaticPOI struct {
	Candidates []POICandidate
	Degraded   bool
}

func (s *StaticPOI) Search(_ context.Context, _, _ string) ServiceResult[[]POICandidate] {
	return ServiceResult[[]POICandidate]{Success: !s.Degraded, Data: s.Candidates, Degraded: s.Degraded, Source: SourcePOI}
}

func (s *StaticPOI) Around(_ context.Context, _ types.Point, _ uint, _ string) ServiceResult[[]POICandidate] {
	return ServiceResult[[]POICandidate]{Success: !s.Degraded, Data: s.Candidates, Degraded: s.Degraded, Source: SourcePOI}
}

func (s *StaticPOI) Suggest(_ context.Context, input, _ string) ServiceResult[[]POICandidate] {
	var out []POICandidate
	for _, c := range s.Candidates {
		if containsAny(c.Name, input) || containsAny(input, c.Name) {
			out = append(out, c)
		}
	}
	return ServiceResult[[]POICandidate]{Success: !s.Degraded, Data: out, Degraded: s.Degraded, Source: SourcePOI}
}

// StaticNavigation reports a fixed leg duration between any two stops.
type StaticNavigation struct {
	Leg      time.Duration
	Degraded bool
}

func (s *StaticNavigation) Route(_ context.Context, origin, destination, _ string) ServiceResult[Route] {
	return ServiceResult[Route]{
		Success:  !s.Degraded,
		Data:     Route{Origin: origin, Destination: destination, Duration: s.Leg},
		Degraded: s.Degraded,
		Source:   SourceNavigation,
	}
}

func (s *StaticNavigation) MultiStop(_ context.Context, origin string, destinations []string) ServiceResult[MultiStopRoute] {
	var data MultiStopRoute
	prev := origin
	for _, d := range destinations {
		data.Legs = append(data.Legs, Route{Origin: prev, Destination: d, Duration: s.Leg})
		data.Total += s.Leg
		prev = d
	}
	return ServiceResult[MultiStopRoute]{Success: !s.Degraded, Data: data, Degraded: s.Degraded, Source: SourceNavigation}
}

// DemoCandidates is the offline candidate set used by the demo binary,
// mirroring the classic downtown Shanghai attractions.
func DemoCandidates() []POICandidate {
	return []POICandidate{
		{
			ID: "poi-001", Name: "外滩", Address: "黄浦区中山东一路",
			Coordinates:  types.Point{Lat: 31.2404, Lng: 121.4905},
			CategoryTags: []string{"scenic_spot", "landmark", "romantic", "photo_spots"},
			PriceLevel:   0, TypicalCrowdLevel: CrowdHigh, Indoor: false,
			OpeningHours: HoursRange{Open: 0, Close: 24}, Rating: 4.7,
		},
		{
			ID: "poi-002", Name: "豫园", Address: "黄浦区安仁街137号",
			Coordinates:  types.Point{Lat: 31.2272, Lng: 121.4921},
			CategoryTags: []string{"scenic_spot", "history", "culture", "local_culture"},
			PriceLevel:   1, TypicalCrowdLevel: CrowdHigh, Indoor: false,
			OpeningHours: HoursRange{Open: 9, Close: 17}, Rating: 4.5,
		},
		{
			ID: "poi-003", Name: "上海博物馆", Address: "黄浦区人民大道201号",
			Coordinates:  types.Point{Lat: 31.2304, Lng: 121.4692},
			CategoryTags: []string{"museum", "culture", "history", "art_focused"},
			PriceLevel:   0, TypicalCrowdLevel: CrowdMedium, Indoor: true,
			OpeningHours: HoursRange{Open: 9, Close: 17}, Rating: 4.8,
		},
		{
			ID: "poi-004", Name: "田子坊", Address: "黄浦区泰康路210弄",
			Coordinates:  types.Point{Lat: 31.2108, Lng: 121.4692},
			CategoryTags: []string{"artistic", "niche", "shopping_focused", "photo_spots"},
			PriceLevel:   2, TypicalCrowdLevel: CrowdMedium, Indoor: false,
			OpeningHours: HoursRange{Open: 10, Close: 21}, Rating: 4.3,
		},
		{
			ID: "poi-005", Name: "上海迪士尼乐园", Address: "浦东新区川沙新镇黄赵路310号",
			Coordinates:  types.Point{Lat: 31.1434, Lng: 121.6572},
			CategoryTags: []string{"amusement_park", "family_friendly", "lively"},
			PriceLevel:   4, TypicalCrowdLevel: CrowdVeryHigh, Indoor: false,
			OpeningHours: HoursRange{Open: 8, Close: 21}, Rating: 4.6,
		},
		{
			ID: "poi-006", Name: "武康路", Address: "徐汇区武康路",
			Coordinates:  types.Point{Lat: 31.2052, Lng: 121.4337},
			CategoryTags: []string{"niche", "artistic", "romantic", "quiet"},
			PriceLevel:   1, TypicalCrowdLevel: CrowdLow, Indoor: false,
			OpeningHours: HoursRange{Open: 0, Close: 24}, Rating: 4.4,
		},
	}
}
