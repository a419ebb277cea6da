package feed

import (
	"strings"

	"github.com/autobrr/feedbot/pkg/config"
)

// Match implements the conjunctive/disjunctive matcher of the design: a
// rule holds iff all four clauses hold. title and tags are assumed
// already lowercased by the caller (invariant 4), as is every literal in
// rule (config.Load normalizes matcher literals on decode).
func Match(rule config.MatchRule, title string, tags map[string]struct{}) bool {
	return allGroupsSatisfied(rule.TitleWanted, func(alt string) bool {
		return strings.Contains(title, alt)
	}) && noGroupTrips(rule.TitleBanned, func(alt string) bool {
		return strings.Contains(title, alt)
	}) && allGroupsSatisfied(rule.TagsWanted, func(alt string) bool {
		_, ok := tags[alt]
		return ok
	}) && noGroupTrips(rule.TagsBanned, func(alt string) bool {
		_, ok := tags[alt]
		return ok
	})
}

// allGroupsSatisfied implements a "wanted" clause: every OR-group must
// have at least one alternative satisfy test. An absent/empty matcher is
// vacuously satisfied.
func allGroupsSatisfied(groups config.Matcher, test func(string) bool) bool {
	for _, group := range groups {
		satisfied := false
		for _, alt := range group {
			if test(alt) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// noGroupTrips implements a "banned" clause: if any OR-group has at
// least one alternative satisfy test, the clause trips and fails the
// rule. An absent/empty matcher never trips.
func noGroupTrips(groups config.Matcher, test func(string) bool) bool {
	for _, group := range groups {
		for _, alt := range group {
			if test(alt) {
				return false
			}
		}
	}
	return true
}

// FirstMatch returns the first rule in rules that matches, and true, or
// (zero, false) if none match. The returned rule becomes the
// announcement's bound rule.
func FirstMatch(rules []config.MatchRule, title string, tags map[string]struct{}) (config.MatchRule, bool) {
	for _, rule := range rules {
		if Match(rule, title, tags) {
			return rule, true
		}
	}
	return config.MatchRule{}, false
}
