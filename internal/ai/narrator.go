// README: Narrative highlight generation contract and offline fallback.
package ai

import (
	"context"
	"fmt"
	"sort"

	"atlas/internal/modules/intent"
	"atlas/internal/modules/itinerary"
)

// Narrator turns an assembled plan into short user-facing highlights. The
// plan itself never depends on a model; narration is decoration.
type Narrator interface {
	Highlights(ctx context.Context, plan *itinerary.TravelPlan, ti intent.TripIntent) ([]string, error)
}

// FallbackHighlights is the deterministic template used when no model is
// configured or the model call fails.
func FallbackHighlights(plan *itinerary.TravelPlan, ti intent.TripIntent) []string {
	var out []string
	for d, day := range plan.Days {
		if len(day.Items) == 0 {
			continue
		}
		first := day.Items[0]
		out = append(out, fmt.Sprintf("第%d天从%s开始，共安排%d个地点", d+1, first.Name, len(day.Items)))
	}

	if len(ti.PreferenceTags) > 0 {
		tags := make([]string, 0, len(ti.PreferenceTags))
		for tag := range ti.PreferenceTags {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		top := tags
		if len(top) > 3 {
			top = top[:3]
		}
		out = append(out, fmt.Sprintf("行程围绕您的偏好定制：%v", top))
	}
	if plan.Partial {
		out = append(out, "部分日程未能排满，可补充更多目的地后重新规划")
	}
	return out
}
