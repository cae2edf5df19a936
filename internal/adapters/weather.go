// README: Weather adapter over the city conditions endpoint, with static fallback.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"atlas/internal/config"
)

type WeatherAdapter struct {
	caller *Caller
	client *http.Client
	base   string
	city   string
	cache  *Cache
}

func NewWeatherAdapter(baseURL, city string, cfg config.AdapterConfig, cache *Cache, log *zap.Logger) *WeatherAdapter {
	return &WeatherAdapter{
		caller: NewCaller(SourceWeather, cfg, log),
		client: &http.Client{},
		base:   baseURL,
		city:   city,
		cache:  cache,
	}
}

// weatherWire is the upstream response shape. Temperature comes back as a
// display string like "22°C".
type weatherWire struct {
	Temperature    string  `json:"temperature"`
	Weather        string  `json:"weather"`
	Humidity       string  `json:"humidity"`
	Precipitation  float64 `json:"precipitation_probability"`
	Recommendation string  `json:"recommendation"`
}

// Forecast fetches conditions for a location. The fallback mirrors the
// mild-day default the upstream serves in offline mode.
func (a *WeatherAdapter) Forecast(ctx context.Context, location string) ServiceResult[WeatherReport] {
	var cached WeatherReport
	if a.cache.Get(ctx, location, &cached) {
		return ServiceResult[WeatherReport]{Success: true, Data: cached, Source: SourceWeather}
	}

	res := Call(ctx, a.caller, func(cctx context.Context) (WeatherReport, error) {
		return a.fetch(cctx, location)
	}, fallbackWeather(location))

	if res.Success {
		a.cache.Set(ctx, location, res.Data)
	}
	return res
}

func (a *WeatherAdapter) fetch(ctx context.Context, location string) (WeatherReport, error) {
	q := url.Values{}
	q.Set("location", location)
	q.Set("city", a.city)
	q.Set("type", "current")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/weather?"+q.Encode(), nil)
	if err != nil {
		return WeatherReport{}, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return WeatherReport{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return WeatherReport{}, fmt.Errorf("weather endpoint status %d", resp.StatusCode)
	}

	var wire weatherWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return WeatherReport{}, err
	}
	return WeatherReport{
		Location:        location,
		Condition:       wire.Weather,
		TemperatureC:    parseCelsius(wire.Temperature),
		PrecipitationPr: wire.Precipitation,
		Recommendation:  wire.Recommendation,
	}, nil
}

func fallbackWeather(location string) WeatherReport {
	return WeatherReport{
		Location:        location,
		Condition:       "多云",
		TemperatureC:    22,
		PrecipitationPr: 0.2,
		Recommendation:  "天气适宜出行，建议携带薄外套",
	}
}

func parseCelsius(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "°C")
	s = strings.TrimSuffix(s, "℃")
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return 0
}
