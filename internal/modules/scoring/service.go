// README: Scoring engine; cosine base score plus contextual adjustments.
package scoring

import (
	"math"
	"sort"
	"strings"

	"atlas/internal/adapters"
	"atlas/internal/config"
	"atlas/internal/modules/intent"
	"atlas/internal/modules/orchestrate"
)

type Service struct {
	cfg config.ScoringConfig
}

func NewService(cfg config.ScoringConfig) *Service {
	return &Service{cfg: cfg}
}

// Score ranks candidates against the intent. Adjustments from degraded
// sources are applied at half magnitude: still visible, never dominant.
// Output order is deterministic; ties fall back to candidate id.
func (s *Service) Score(ti intent.TripIntent, candidates []adapters.POICandidate, env *orchestrate.Results) []ScoredPOI {
	intentVec := intentVector(ti)

	out := make([]ScoredPOI, 0, len(candidates))
	for _, c := range candidates {
		base := 100 * cosine(intentVec, candidateVector(c))
		breakdown := map[string]float64{}

		if d := s.weatherAdjustment(c, env); d != 0 {
			breakdown["weather"] = d
		}
		if d := s.crowdAdjustment(ti, c, env); d != 0 {
			breakdown["crowd"] = d
		}
		if d := s.budgetAdjustment(ti, c); d != 0 {
			breakdown["budget"] = d
		}

		adjusted := base
		for _, d := range breakdown {
			adjusted += d
		}

		out = append(out, ScoredPOI{
			Candidate:     c,
			BaseScore:     base,
			AdjustedScore: clamp(adjusted),
			Breakdown:     breakdown,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AdjustedScore != out[j].AdjustedScore {
			return out[i].AdjustedScore > out[j].AdjustedScore
		}
		return out[i].Candidate.ID < out[j].Candidate.ID
	})
	return out
}

func (s *Service) weatherAdjustment(c adapters.POICandidate, env *orchestrate.Results) float64 {
	if env == nil || env.Weather == nil {
		return 0
	}
	w := env.Weather.Data

	var penalty float64
	switch {
	case w.Severe() && !c.Indoor:
		penalty = s.cfg.SevereWeatherPenalty
	case w.Severe():
		penalty = s.cfg.IndoorSeverePenalty
	case w.Rainy() && !c.Indoor:
		penalty = s.cfg.RainPenalty
	}
	if penalty == 0 {
		return 0
	}
	if env.Weather.Degraded {
		penalty *= 0.5
	}
	return -penalty
}

func (s *Service) crowdAdjustment(ti intent.TripIntent, c adapters.POICandidate, env *orchestrate.Results) float64 {
	if !ti.HasConcern(intent.ConcernCrowdAverse) {
		return 0
	}

	level := c.TypicalCrowdLevel
	degradedSource := false
	if env != nil {
		if res, ok := crowdFor(c.Name, env.Crowd); ok {
			level = res.Data.Level
			degradedSource = res.Degraded
		}
	}

	var penalty float64
	switch level {
	case adapters.CrowdHigh:
		penalty = s.cfg.CrowdHighPenalty
	case adapters.CrowdVeryHigh:
		penalty = s.cfg.CrowdVeryHighPenalty
	default:
		return 0
	}
	if degradedSource {
		penalty *= 0.5
	}
	return -penalty
}

func (s *Service) budgetAdjustment(ti intent.TripIntent, c adapters.POICandidate) float64 {
	if ti.Budget == nil {
		return 0
	}
	over := c.PriceLevel - ti.Budget.Tier.MaxPriceLevel()
	if over <= 0 {
		return 0
	}
	return -s.cfg.BudgetOveragePenalty * float64(over)
}

// crowdFor matches a live crowd result to a candidate by name, tolerating
// the usual mismatch between mention text and the POI's full name.
func crowdFor(name string, crowd map[string]adapters.ServiceResult[adapters.CrowdInfo]) (adapters.ServiceResult[adapters.CrowdInfo], bool) {
	if res, ok := crowd[name]; ok {
		return res, true
	}
	locations := make([]string, 0, len(crowd))
	for location := range crowd {
		locations = append(locations, location)
	}
	sort.Strings(locations)
	for _, location := range locations {
		if strings.Contains(name, location) || strings.Contains(location, name) {
			return crowd[location], true
		}
	}
	return adapters.ServiceResult[adapters.CrowdInfo]{}, false
}

// intentVector folds preference tags into a weighted vector. Companion and
// concern-driven boosts already live in PreferenceTags after extraction.
func intentVector(ti intent.TripIntent) map[string]float64 {
	out := make(map[string]float64, len(ti.PreferenceTags))
	for tag, w := range ti.PreferenceTags {
		if w > 0 {
			out[tag] = math.Min(w, 1)
		}
	}
	return out
}

func candidateVector(c adapters.POICandidate) map[string]float64 {
	out := make(map[string]float64, len(c.CategoryTags))
	for _, tag := range c.CategoryTags {
		out[tag] = 1
	}
	return out
}

// cosine similarity over sparse vectors; 0 when either side is all-zero so
// empty profiles never look like perfect matches.
func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, av := range a {
		na += av * av
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
