// Package scorer keeps metrics.scores consistent with the boolean
// breakdowns they are derived from.
package scorer

import "github.com/sells-group/hpi-cli/internal/model"

// Score returns floor(100 * true_count / len(b)). An empty breakdown
// scores 0.
func Score(b model.Breakdown) int {
	if len(b) == 0 {
		return 0
	}
	return 100 * b.TrueCount() / len(b)
}

// ReplaceIndicator removes oldKey (and any earlier newKey) and inserts
// newKey immediately after anchor, or at the end when anchor is absent.
// Applying it twice with the same arguments yields the same breakdown.
func ReplaceIndicator(b model.Breakdown, oldKey, newKey, anchor string, value bool) model.Breakdown {
	out := make(model.Breakdown, 0, len(b)+1)
	for _, ind := range b {
		if ind.Key == oldKey || ind.Key == newKey {
			continue
		}
		out = append(out, ind)
	}

	pos := out.Index(anchor)
	if pos < 0 {
		return append(out, model.Indicator{Key: newKey, Value: value})
	}
	out = append(out, model.Indicator{})
	copy(out[pos+2:], out[pos+1:])
	out[pos+1] = model.Indicator{Key: newKey, Value: value}
	return out
}

// Rebuild returns a breakdown with exactly keys, in that order. Each
// value comes from overrides when present, then from b, else false.
func Rebuild(b model.Breakdown, keys []string, overrides map[string]bool) model.Breakdown {
	out := make(model.Breakdown, 0, len(keys))
	for _, k := range keys {
		v, ok := overrides[k]
		if !ok {
			v, _ = b.Get(k)
		}
		out = append(out, model.Indicator{Key: k, Value: v})
	}
	return out
}
