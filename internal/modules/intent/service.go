// README: Intent extraction from free text plus structured tags.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"atlas/internal/config"
)

type Service struct {
	tax    *Taxonomy
	budget config.BudgetConfig
}

func NewService(budget config.BudgetConfig) (*Service, error) {
	tax, err := loadTaxonomy()
	if err != nil {
		return nil, err
	}
	return &Service{tax: tax, budget: budget}, nil
}

var (
	dayPattern       = regexp.MustCompile(`(\d+)\s*[天日]`)
	amount10kPattern = regexp.MustCompile(`(\d+)万`)
	amount1kPattern  = regexp.MustCompile(`(\d+)千`)
	amountYuan       = regexp.MustCompile(`(\d+)元`)
	amountPrefixed   = regexp.MustCompile(`预算\D{0,4}(\d+)`)
)

// zhDigits covers the spelled-out day counts the day pattern misses.
var zhDigits = map[string]int{
	"一天": 1, "两天": 2, "二天": 2, "三天": 3, "四天": 4,
	"五天": 5, "六天": 6, "七天": 7, "周末": 2,
}

// Extract normalizes free text and structured #tags into a TripIntent.
// With a prior intent (the feedback path) unspecified fields keep the prior
// value and extracted fields override it. Extract never fails; an input with
// no usable signal comes back flagged needs_clarification.
func (s *Service) Extract(rawText string, tags []string, prior *TripIntent) TripIntent {
	var out TripIntent
	if prior != nil {
		out = prior.Clone()
	} else {
		out.Companions = map[CompanionTag]bool{}
		out.PreferenceTags = map[string]float64{}
		out.Concerns = map[ConcernTag]bool{}
	}
	out.NeedsClarification = false

	// Free-text passes.
	for _, name := range s.extractLocations(rawText) {
		addMention(&out, name)
	}
	textDays := s.extractDays(rawText)
	textBudget := s.extractBudget(rawText)
	s.extractCompanions(rawText, &out)
	s.extractPreferences(rawText, &out)
	s.extractConcerns(rawText, &out)

	// Structured tags win over free text for the same field.
	tagDays := 0
	var tagBudget *Budget
	for _, tag := range tags {
		days, budget, pref := s.parseTag(tag)
		switch {
		case days > 0:
			tagDays = days
		case budget != nil:
			tagBudget = budget
		case pref != "":
			if pref == string(CompanionChild) || pref == "family_friendly" {
				out.Companions[CompanionChild] = true
			}
			boost(&out, pref, 1.0)
		}
	}

	days := textDays
	if tagDays > 0 {
		days = tagDays
	}
	if days > 0 {
		out.DurationDays = days
	}
	if out.DurationDays < 1 {
		out.DurationDays = 1
	}

	budget := textBudget
	if tagBudget != nil {
		budget = tagBudget
	}
	if budget != nil {
		out.Budget = budget
	}

	// A date range pins the duration to its span, unless this extraction
	// carried a fresh duration; then the range is rewritten to match.
	if out.DateRange != nil {
		if days > 0 {
			out.DateRange.End = out.DateRange.Start.AddDate(0, 0, out.DurationDays-1)
		} else {
			out.DurationDays = out.DateRange.Days()
		}
	}

	if len(out.Locations) == 0 && days == 0 && tagDays == 0 {
		out.NeedsClarification = true
	}
	return out
}

// extractLocations finds known place names and aliases in reading order.
func (s *Service) extractLocations(text string) []string {
	type hit struct {
		idx  int
		name string
	}
	best := map[string]int{}
	note := func(name string, idx int) {
		if idx < 0 {
			return
		}
		if prev, ok := best[name]; !ok || idx < prev {
			best[name] = idx
		}
	}
	for _, name := range s.tax.Locations.Known {
		note(name, strings.Index(text, name))
	}
	for alias, canonical := range s.tax.Locations.Aliases {
		note(canonical, strings.Index(text, alias))
	}

	hits := make([]hit, 0, len(best))
	for name, idx := range best {
		hits = append(hits, hit{idx: idx, name: name})
	}
	// Stable reading order; name breaks index ties from overlapping aliases.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0; j-- {
			a, b := hits[j-1], hits[j]
			if b.idx < a.idx || (b.idx == a.idx && b.name < a.name) {
				hits[j-1], hits[j] = b, a
			} else {
				break
			}
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

func (s *Service) extractDays(text string) int {
	if m := dayPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return clampDays(n)
	}
	for phrase, n := range zhDigits {
		if strings.Contains(text, phrase) {
			return n
		}
	}
	return 0
}

func (s *Service) extractBudget(text string) *Budget {
	amount := 0
	if m := amount10kPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		amount = n * 10000
	} else if m := amount1kPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		amount = n * 1000
	} else if m := amountYuan.FindStringSubmatch(text); m != nil {
		amount, _ = strconv.Atoi(m[1])
	} else if m := amountPrefixed.FindStringSubmatch(text); m != nil {
		amount, _ = strconv.Atoi(m[1])
	}

	var out *Budget
	if amount > 0 {
		out = &Budget{Amount: amount, Tier: s.tierFor(amount)}
	}

	// Spending words override the tier but keep any parsed amount.
	if containsAnyOf(text, s.tax.BudgetWords.Cheap) {
		if out == nil {
			out = &Budget{}
		}
		out.Tier = TierLow
	} else if containsAnyOf(text, s.tax.BudgetWords.Luxury) {
		if out == nil {
			out = &Budget{}
		}
		out.Tier = TierHigh
	}
	return out
}

func (s *Service) tierFor(amount int) BudgetTier {
	switch {
	case amount <= s.budget.LowMax:
		return TierLow
	case amount <= s.budget.MediumMax:
		return TierMedium
	case amount <= s.budget.MediumHighMax:
		return TierMediumHigh
	default:
		return TierHigh
	}
}

// extractCompanions applies the first matching companion rule, raising its
// preference boosts alongside the tag.
func (s *Service) extractCompanions(text string, out *TripIntent) {
	for _, rule := range s.tax.Companions {
		if !containsAnyOf(text, rule.Match) {
			continue
		}
		out.Companions[rule.Tag] = true
		for tag, w := range rule.Boosts {
			boost(out, tag, w)
		}
		return
	}
}

func (s *Service) extractPreferences(text string, out *TripIntent) {
	for word, tag := range s.tax.Moods {
		if strings.Contains(text, word) {
			boost(out, tag, 1.0)
		}
	}
	for word, tag := range s.tax.Preferences {
		if strings.Contains(text, word) {
			boost(out, tag, 1.0)
		}
	}
}

func (s *Service) extractConcerns(text string, out *TripIntent) {
	avoided := containsAnyOf(text, s.tax.AvoidMarkers)
	for name, rule := range s.tax.Concerns {
		if containsAnyOf(text, rule.Direct) || (avoided && containsAnyOf(text, rule.Avoided)) {
			out.Concerns[ConcernTag(name)] = true
		}
	}
}

// parseTag interprets one structured tag: a duration (#3天2晚), a budget
// (#预算1万), or a preference word.
func (s *Service) parseTag(tag string) (days int, budget *Budget, pref string) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	if tag == "" {
		return 0, nil, ""
	}
	if m := dayPattern.FindStringSubmatch(tag); m != nil && dayPattern.FindStringIndex(tag)[0] == 0 {
		n, _ := strconv.Atoi(m[1])
		return clampDays(n), nil, ""
	}
	if strings.HasPrefix(tag, "预算") || amount10kPattern.MatchString(tag) || amount1kPattern.MatchString(tag) || amountYuan.MatchString(tag) {
		if b := s.extractBudget(tag); b != nil {
			return 0, b, ""
		}
	}
	if mapped, ok := s.tax.Moods[tag]; ok {
		return 0, nil, mapped
	}
	if mapped, ok := s.tax.Preferences[tag]; ok {
		return 0, nil, mapped
	}
	return 0, nil, tag
}

func addMention(out *TripIntent, name string) {
	for _, m := range out.Locations {
		if m.RawText == name {
			return
		}
	}
	out.Locations = append(out.Locations, LocationMention{RawText: name})
}

func boost(out *TripIntent, tag string, w float64) {
	if w > 1 {
		w = 1
	}
	if out.PreferenceTags[tag] < w {
		out.PreferenceTags[tag] = w
	}
}

func containsAnyOf(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func clampDays(n int) int {
	if n < 1 {
		return 1
	}
	if n > 7 {
		return 7
	}
	return n
}
