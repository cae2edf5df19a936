// README: POI and suggestion adapter over the Google Places API.
package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"atlas/internal/config"
	"atlas/internal/types"
)

type POIAdapter struct {
	caller *Caller
	client *maps.Client
	region string
	cache  *Cache
}

func NewPOIAdapter(apiKey, region string, cfg config.AdapterConfig, cache *Cache, log *zap.Logger) (*POIAdapter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &POIAdapter{
		caller: NewCaller(SourcePOI, cfg, log),
		client: client,
		region: region,
		cache:  cache,
	}, nil
}

// Search runs a ranked text search for candidates in the region. There is no
// meaningful static fallback for discovery, so the degraded payload is empty.
func (a *POIAdapter) Search(ctx context.Context, keywords, region string) ServiceResult[[]POICandidate] {
	key := "search:" + region + ":" + keywords
	var cached []POICandidate
	if a.cache.Get(ctx, key, &cached) {
		return ServiceResult[[]POICandidate]{Success: true, Data: cached, Source: SourcePOI}
	}

	res := Call(ctx, a.caller, func(cctx context.Context) ([]POICandidate, error) {
		r := &maps.TextSearchRequest{
			Query:    keywords + " " + region,
			Language: "zh-CN",
			Region:   "CN",
		}
		resp, err := a.client.TextSearch(cctx, r)
		if err != nil {
			return nil, fmt.Errorf("places api error: %w", err)
		}
		out := make([]POICandidate, 0, len(resp.Results))
		for _, result := range resp.Results {
			out = append(out, candidateFromResult(result))
		}
		return out, nil
	}, nil)

	if res.Success {
		a.cache.Set(ctx, key, res.Data)
	}
	return res
}

// Around searches candidates near a coordinate.
func (a *POIAdapter) Around(ctx context.Context, at types.Point, radiusM uint, keywords string) ServiceResult[[]POICandidate] {
	return Call(ctx, a.caller, func(cctx context.Context) ([]POICandidate, error) {
		r := &maps.NearbySearchRequest{
			Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
			Radius:   radiusM,
			Keyword:  keywords,
			Language: "zh-CN",
		}
		resp, err := a.client.NearbySearch(cctx, r)
		if err != nil {
			return nil, fmt.Errorf("places api error: %w", err)
		}
		out := make([]POICandidate, 0, len(resp.Results))
		for _, result := range resp.Results {
			out = append(out, candidateFromResult(result))
		}
		return out, nil
	}, nil)
}

// Suggest returns ranked completions for a partial place name. Used by the
// location resolver to disambiguate mentions.
func (a *POIAdapter) Suggest(ctx context.Context, input, region string) ServiceResult[[]POICandidate] {
	key := "suggest:" + region + ":" + input
	var cached []POICandidate
	if a.cache.Get(ctx, key, &cached) {
		return ServiceResult[[]POICandidate]{Success: true, Data: cached, Source: SourcePOI}
	}

	res := Call(ctx, a.caller, func(cctx context.Context) ([]POICandidate, error) {
		r := &maps.QueryAutocompleteRequest{
			Input:    input + " " + region,
			Language: "zh-CN",
		}
		resp, err := a.client.QueryAutocomplete(cctx, r)
		if err != nil {
			return nil, fmt.Errorf("autocomplete api error: %w", err)
		}
		out := make([]POICandidate, 0, len(resp.Predictions))
		for _, p := range resp.Predictions {
			out = append(out, POICandidate{
				ID:                p.PlaceID,
				Name:              p.StructuredFormatting.MainText,
				Address:           p.Description,
				CategoryTags:      p.Types,
				TypicalCrowdLevel: CrowdMedium,
				OpeningHours:      HoursRange{Open: 8, Close: 22},
			})
		}
		return out, nil
	}, nil)

	if res.Success {
		a.cache.Set(ctx, key, res.Data)
	}
	return res
}

// indoorTypes are Places categories treated as weather-sheltered.
var indoorTypes = map[string]bool{
	"museum":           true,
	"art_gallery":      true,
	"aquarium":         true,
	"shopping_mall":    true,
	"movie_theater":    true,
	"library":          true,
	"restaurant":       true,
	"cafe":             true,
	"department_store": true,
}

func candidateFromResult(r maps.PlacesSearchResult) POICandidate {
	indoor := false
	for _, t := range r.Types {
		if indoorTypes[t] {
			indoor = true
			break
		}
	}

	crowd := CrowdMedium
	if r.UserRatingsTotal > 20000 {
		crowd = CrowdHigh
	}

	hours := HoursRange{Open: 8, Close: 22}
	for _, t := range r.Types {
		if t == "museum" || t == "art_gallery" {
			hours = HoursRange{Open: 9, Close: 17}
			break
		}
	}

	address := r.FormattedAddress
	if address == "" {
		address = r.Vicinity
	}

	return POICandidate{
		ID:                r.PlaceID,
		Name:              r.Name,
		Address:           address,
		Coordinates:       types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		CategoryTags:      r.Types,
		PriceLevel:        r.PriceLevel,
		TypicalCrowdLevel: crowd,
		Indoor:            indoor,
		OpeningHours:      hours,
		Rating:            r.Rating,
	}
}
