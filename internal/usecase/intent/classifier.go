// Package intent classifies free-text operator utterances into a fixed set of
// question categories. Classification is deterministic keyword matching, not
// learned: an ordered rule table is evaluated first-match-wins, so the
// priority between overlapping keyword sets is part of the contract.
package intent

import (
	"strings"
)

// Intent is a discrete category of user question the classifier recognizes.
type Intent string

const (
	IntentLocation   Intent = "location"
	IntentRisk       Intent = "risk"
	IntentFileIntel  Intent = "file_intel"
	IntentReputation Intent = "reputation"
	IntentExposure   Intent = "exposure"
	IntentFallback   Intent = "fallback"
)

type rule struct {
	intent   Intent
	keywords []string
}

// rules is evaluated in order; the first rule with any keyword present wins.
// An utterance matching both "location" and "risk" keywords therefore
// classifies as location.
var rules = []rule{
	{IntentLocation, []string{"location", "map", "visualize"}},
	{IntentRisk, []string{"risk", "threat", "score"}},
	{IntentFileIntel, []string{"virus", "vt"}},
	{IntentReputation, []string{"abuse", "ipdb"}},
	{IntentExposure, []string{"shodan"}},
}

// Classify maps an utterance to exactly one intent. Matching is
// case-insensitive substring; when no rule matches, IntentFallback is
// returned, so the function is total.
func Classify(utterance string) Intent {
	text := strings.ToLower(utterance)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.intent
			}
		}
	}

	return IntentFallback
}
