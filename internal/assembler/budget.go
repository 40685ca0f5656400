package assembler

import (
	"math"
	"sort"
	"strings"
)

// truncationMarker replaces the omitted middle of a truncated item.
const truncationMarker = "// ... omitted for context budget ..."

// fitToBudget sorts items by importance (descending, admission order as the
// tie-break) and greedily admits them until the budget runs out. An
// over-budget item important enough to truncate is cut to the remaining
// budget and ends admission; anything else that does not fit is dropped.
// TotalTokens is recomputed over the final set, never carried incrementally,
// and never exceeds the budget.
func (a *Assembler) fitToBudget(pc *ProjectContext) {
	sort.SliceStable(pc.Items, func(i, j int) bool {
		return pc.Items[i].Importance > pc.Items[j].Importance
	})

	var kept []ContextItem
	used := 0
	for _, item := range pc.Items {
		t := item.Tokens()
		if used+t <= a.budget {
			kept = append(kept, item)
			used += t
			continue
		}
		if item.Importance > truncationThreshold {
			if remaining := a.budget - used; remaining > 0 {
				cut := truncateContent(item.Content, remaining, item.Importance)
				// An item only stays when the cut actually shrank it;
				// otherwise it is dropped like any other over-budget item.
				if cut != "" && len(cut) < len(item.Content) {
					item.Content = cut
					item.Truncated = true
					kept = append(kept, item)
				}
			}
			// The truncated item consumes whatever budget was left.
			break
		}
		// Dropped; smaller items may still fit.
	}

	pc.Items = kept
	pc.TotalTokens = 0
	for _, item := range pc.Items {
		pc.TotalTokens += item.Tokens()
	}
}

// truncateContent cuts content so its token estimate stays within maxTokens,
// keeping the head and tail and replacing the omitted middle with a single
// marker line. It prefers a line-based cut — the first 60% and last 40% of an
// importance-scaled line quota, so signatures and closing tails survive and
// bodies go first — and falls back to a character-based 60/40 cut when the
// content has too few or too long lines for a line quota to shrink it
// (minified sources). Content that already fits is returned unchanged; an
// empty result means not even the marker fits.
func truncateContent(content string, maxTokens int, importance float64) string {
	if (len(content)+3)/4 <= maxTokens {
		return content
	}

	// Convert the token allowance into a line quota using the content's own
	// average line length, then scale by importance.
	lines := strings.Split(content, "\n")
	avgLine := len(content)/len(lines) + 1
	quota := (maxTokens * 4) / avgLine
	quota = int(float64(quota) * math.Min(importance, 1.0))

	head := quota * 60 / 100
	tail := quota * 40 / 100
	if head >= 1 && tail >= 1 && head+tail < len(lines) {
		var sb strings.Builder
		sb.WriteString(strings.Join(lines[:head], "\n"))
		sb.WriteString("\n" + truncationMarker + "\n")
		sb.WriteString(strings.Join(lines[len(lines)-tail:], "\n"))
		if cut := sb.String(); (len(cut)+3)/4 <= maxTokens {
			return cut
		}
	}

	// Character cut. Reserve the marker, its two newlines, and the token
	// round-up so the result estimates to maxTokens at most.
	budget := maxTokens*4 - len(truncationMarker) - 5
	if budget < 2 {
		return ""
	}
	cutHead := budget * 60 / 100
	cutTail := budget - cutHead
	return content[:cutHead] + "\n" + truncationMarker + "\n" + content[len(content)-cutTail:]
}
