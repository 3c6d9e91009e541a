package similarity

import "fmt"

// Strategy is the closed set of supported query shapes. The active
// strategy is resolved from its configured name once at startup;
// unknown names are a configuration error, not a runtime fallback.
type Strategy int

const (
	// StrategyWeightedShould emits one fuzzy should clause per selected
	// token plus a subject clause, each carrying its own boost.
	StrategyWeightedShould Strategy = iota
	// StrategyMultiMatch folds the subject into a single multi_match
	// over subject and candidate fields, with per-field boosts.
	StrategyMultiMatch
	// StrategyKNN routes to the embedding vector index. Stub
	// capability: only usable when vector search is configured.
	StrategyKNN
)

func (s Strategy) String() string {
	switch s {
	case StrategyWeightedShould:
		return "weighted_should"
	case StrategyMultiMatch:
		return "multi_match"
	case StrategyKNN:
		return "knn"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configured strategy name onto the enum.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "weighted_should", "":
		return StrategyWeightedShould, nil
	case "multi_match":
		return StrategyMultiMatch, nil
	case "knn":
		return StrategyKNN, nil
	default:
		return 0, fmt.Errorf("unknown search strategy %q (supported: weighted_should, multi_match, knn)", name)
	}
}
