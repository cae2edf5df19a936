// README: Traffic adapter over the realtime road status endpoint, with static fallback.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"atlas/internal/config"
)

type TrafficAdapter struct {
	caller *Caller
	client *http.Client
	base   string
	city   string
}

func NewTrafficAdapter(baseURL, city string, cfg config.AdapterConfig, log *zap.Logger) *TrafficAdapter {
	return &TrafficAdapter{
		caller: NewCaller(SourceTraffic, cfg, log),
		client: &http.Client{},
		base:   baseURL,
		city:   city,
	}
}

type trafficWire struct {
	TrafficStatus  string `json:"traffic_status"`
	BestRoute      string `json:"best_route"`
	Recommendation string `json:"recommendation"`
}

// Status fetches road conditions between an origin and a destination region.
// Traffic is advisory-only and intentionally uncached; it goes stale fast.
func (a *TrafficAdapter) Status(ctx context.Context, origin, destination string) ServiceResult[TrafficInfo] {
	return Call(ctx, a.caller, func(cctx context.Context) (TrafficInfo, error) {
		return a.fetch(cctx, origin, destination)
	}, fallbackTraffic(destination))
}

func (a *TrafficAdapter) fetch(ctx context.Context, origin, destination string) (TrafficInfo, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("city", a.city)
	q.Set("type", "realtime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/traffic?"+q.Encode(), nil)
	if err != nil {
		return TrafficInfo{}, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return TrafficInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return TrafficInfo{}, fmt.Errorf("traffic endpoint status %d", resp.StatusCode)
	}

	var wire trafficWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return TrafficInfo{}, err
	}
	return TrafficInfo{
		Region:          destination,
		CongestionLevel: wire.TrafficStatus,
		Advisory:        wire.Recommendation,
		BestRoute:       wire.BestRoute,
	}, nil
}

func fallbackTraffic(destination string) TrafficInfo {
	return TrafficInfo{
		Region:          destination,
		CongestionLevel: "畅通",
		Advisory:        "推荐使用地铁出行，准时便捷",
		BestRoute:       "地铁",
	}
}
