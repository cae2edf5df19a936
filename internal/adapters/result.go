// README: ServiceResult envelope and error taxonomy shared by all adapters.
package adapters

import (
	"strings"
	"time"

	"atlas/internal/types"
)

// Name identifies one external information source.
type Name string

const (
	SourceWeather    Name = "weather"
	SourceCrowd      Name = "crowd"
	SourceTraffic    Name = "traffic"
	SourceNavigation Name = "navigation"
	SourcePOI        Name = "poi"
)

// ErrorKind classifies adapter failures. Failures never leave the adapter
// layer as raw errors; they travel inside a ServiceResult.
type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindRateLimited        ErrorKind = "rate_limited"
	ErrorKindAdapterTimeout     ErrorKind = "adapter_timeout"
	ErrorKindAdapterUnavailable ErrorKind = "adapter_unavailable"
)

// ServiceResult is the uniform envelope every adapter returns. Degraded marks
// fallback data substituted after a real call failed; consumers must check it
// rather than treating the payload as authoritative.
type ServiceResult[T any] struct {
	Success  bool      `json:"success"`
	Data     T         `json:"data"`
	Degraded bool      `json:"degraded"`
	Source   Name      `json:"source"`
	Error    ErrorKind `json:"error,omitempty"`
}

// CrowdLevel is the four-step crowd scale reported by the crowd source.
type CrowdLevel string

const (
	CrowdLow      CrowdLevel = "low"
	CrowdMedium   CrowdLevel = "medium"
	CrowdHigh     CrowdLevel = "high"
	CrowdVeryHigh CrowdLevel = "very_high"
)

type WeatherReport struct {
	Location        string  `json:"location"`
	Condition       string  `json:"condition"`
	TemperatureC    float64 `json:"temperature_c"`
	PrecipitationPr float64 `json:"precipitation_probability"`
	Recommendation  string  `json:"recommendation,omitempty"`
}

// Rainy reports whether the forecast calls for precipitation.
func (w WeatherReport) Rainy() bool {
	return w.PrecipitationPr >= 0.5 || containsAny(w.Condition, "雨", "雪")
}

// Severe reports storm-grade conditions or extreme temperatures.
func (w WeatherReport) Severe() bool {
	return containsAny(w.Condition, "暴", "雷", "台风") || w.TemperatureC <= -5 || w.TemperatureC >= 38
}

type CrowdInfo struct {
	Location       string     `json:"location"`
	Level          CrowdLevel `json:"level"`
	WaitTime       string     `json:"wait_time,omitempty"`
	BestTimeWindow string     `json:"best_time_window,omitempty"`
	PeakHours      []string   `json:"peak_hours,omitempty"`
}

type TrafficInfo struct {
	Region          string `json:"region"`
	CongestionLevel string `json:"congestion_level"`
	Advisory        string `json:"advisory"`
	BestRoute       string `json:"best_route,omitempty"`
}

// HoursRange is a daily opening window in whole hours, e.g. 8 to 22.
type HoursRange struct {
	Open  int `json:"open"`
	Close int `json:"close"`
}

type POICandidate struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Address           string      `json:"address,omitempty"`
	Coordinates       types.Point `json:"coordinates"`
	CategoryTags      []string    `json:"category_tags"`
	PriceLevel        int         `json:"price_level"`
	TypicalCrowdLevel CrowdLevel  `json:"typical_crowd_level"`
	Indoor            bool        `json:"indoor"`
	OpeningHours      HoursRange  `json:"opening_hours"`
	Rating            float32     `json:"rating,omitempty"`
}

type Route struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	DistanceM   int           `json:"distance_m"`
	Duration    time.Duration `json:"duration"`
	Steps       []string      `json:"steps,omitempty"`
}

type MultiStopRoute struct {
	Legs  []Route       `json:"legs"`
	Total time.Duration `json:"total"`
}

// LegDuration returns the mean leg travel time, or def when no legs exist.
func (r MultiStopRoute) LegDuration(def time.Duration) time.Duration {
	if len(r.Legs) == 0 {
		return def
	}
	var sum time.Duration
	for _, leg := range r.Legs {
		sum += leg.Duration
	}
	return sum / time.Duration(len(r.Legs))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
