// README: Location resolver; disambiguates mentions against POI suggestions.
package resolve

import (
	"context"

	"go.uber.org/zap"

	"atlas/internal/adapters"
	"atlas/internal/modules/intent"
)

// Suggester is the slice of the POI adapter the resolver needs.
type Suggester interface {
	Suggest(ctx context.Context, input, region string) adapters.ServiceResult[[]adapters.POICandidate]
}

const maxSuggestions = 5

// scenicCategories outrank generic business categories during disambiguation.
var scenicCategories = map[string]bool{
	"scenic_spot":        true,
	"landmark":           true,
	"tourist_attraction": true,
	"park":               true,
	"museum":             true,
	"amusement_park":     true,
}

type Service struct {
	suggester Suggester
	log       *zap.Logger
}

func NewService(suggester Suggester, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{suggester: suggester, log: log}
}

// Resolve fills candidates for each mention. A failed or empty lookup leaves
// the mention unresolved and the run continues with what did resolve. Already
// resolved mentions are left untouched.
func (s *Service) Resolve(ctx context.Context, mentions []intent.LocationMention, regionHint string) []intent.LocationMention {
	out := make([]intent.LocationMention, len(mentions))
	copy(out, mentions)

	for i := range out {
		if out[i].Candidate != nil {
			continue
		}
		res := s.suggester.Suggest(ctx, out[i].RawText, regionHint)
		suggestions := res.Data
		if len(suggestions) > maxSuggestions {
			suggestions = suggestions[:maxSuggestions]
		}
		if (!res.Success && !res.Degraded) || len(suggestions) == 0 {
			out[i].Unresolved = true
			s.log.Info("mention unresolved", zap.String("mention", out[i].RawText))
			continue
		}

		picked := pick(out[i].RawText, suggestions)
		out[i].Candidate = &picked
		out[i].Unresolved = false
	}
	return out
}

// pick prefers an exact name match, then a scenic category, then the first
// result. Ties go to the smallest edit distance from the mention text.
func pick(mention string, suggestions []adapters.POICandidate) adapters.POICandidate {
	for _, c := range suggestions {
		if c.Name == mention {
			return c
		}
	}

	best := -1
	bestDist := 0
	for i, c := range suggestions {
		if !scenic(c) {
			continue
		}
		d := editDistance(mention, c.Name)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		return suggestions[best]
	}
	return suggestions[0]
}

func scenic(c adapters.POICandidate) bool {
	for _, t := range c.CategoryTags {
		if scenicCategories[t] {
			return true
		}
	}
	return false
}

// editDistance is rune-wise Levenshtein; inputs are short place names.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minOf(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minOf(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
