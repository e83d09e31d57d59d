package extractor

import (
	"net/url"
	"strings"
)

// Score weights. Values beyond 100 clamp; a bare hit on an ordinary page
// sits near the bottom of the range.
const (
	baseScore         = 10
	priorityPageBonus = 40
	mailtoBonus       = 30
	keywordBonus      = 10
)

// Scorer ranks an address by the evidence around it. Pure and
// deterministic for identical input.
type Scorer struct {
	PriorityParts []string
}

// Score computes the confidence for one candidate.
func (s Scorer) Score(_ string, sourceURL string, mailto, keywordNear bool) int {
	score := baseScore
	if s.onPriorityPage(sourceURL) {
		score += priorityPageBonus
	}
	if mailto {
		score += mailtoBonus
	}
	if keywordNear {
		score += keywordBonus
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (s Scorer) onPriorityPage(sourceURL string) bool {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, part := range s.PriorityParts {
		if part != "" && strings.Contains(path, part) {
			return true
		}
	}
	return false
}
