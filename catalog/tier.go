// Package catalog groups item variants by canonical name and maps provider
// category labels onto display buckets.
package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// BlueprintRank is the tier rank of Blueprint and Recipe variants. It sorts
// after every numbered tier.
const BlueprintRank = 1000

// NoTier is the tier rank of a name without a tier marker.
const NoTier = -1

var (
	blueprintRe = regexp.MustCompile(`(?i)^(.*\S)\s+(blueprint|recipe)$`)
	markRe      = regexp.MustCompile(`(?i)^(.*\S)\s+(mk\.?\s*(\d+))$`)
	romanRe     = regexp.MustCompile(`^(.*\S)\s+(I|II|III|IV|V)$`)
	digitRe     = regexp.MustCompile(`^(.*\S)\s+(\d+)$`)
	nonAlnumRe  = regexp.MustCompile(`[^a-z0-9]+`)
	// bareMarkRe matches a name that is nothing but a Mk. marker.
	bareMarkRe  = regexp.MustCompile(`(?i)^mk\.?\s*\d*$`)
)

var romanRank = map[string]int{"I": 0, "II": 1, "III": 2, "IV": 3, "V": 4}

// stripOnce removes one round of tier suffixes in order: Blueprint/Recipe,
// Mk. N, Roman numeral, bare digit.
func stripOnce(name string) string {
	name = strings.TrimSpace(name)
	for _, re := range []*regexp.Regexp{blueprintRe, markRe, romanRe, digitRe} {
		if m := re.FindStringSubmatch(name); m != nil && !bareMarkRe.MatchString(m[1]) {
			name = m[1]
		}
	}
	return strings.TrimSpace(name)
}

// CanonicalName strips trailing tier markers from a display name. Stacked
// markers are stripped until none remain, so the result is stable under
// repeated application. A name that is only a tier marker is kept.
func CanonicalName(name string) string {
	cur := strings.TrimSpace(name)
	for {
		next := stripOnce(cur)
		if next == cur {
			return cur
		}
		cur = next
	}
}

// Slug lowercases name and joins its alphanumeric runs with hyphens.
func Slug(name string) string {
	s := nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// GroupKey is the key items are grouped under.
func GroupKey(name string) string { return Slug(CanonicalName(name)) }

// TierLabel returns "Blueprint" or "Recipe" when name carries that suffix,
// else the trailing Mk., Roman or numeric marker as written, else "".
func TierLabel(name string) string {
	name = strings.TrimSpace(name)
	if bareMarkRe.MatchString(name) {
		return ""
	}
	if m := blueprintRe.FindStringSubmatch(name); m != nil {
		if strings.EqualFold(m[2], "recipe") {
			return "Recipe"
		}
		return "Blueprint"
	}
	if m := markRe.FindStringSubmatch(name); m != nil {
		return m[2]
	}
	if m := romanRe.FindStringSubmatch(name); m != nil {
		return m[2]
	}
	if m := digitRe.FindStringSubmatch(name); m != nil {
		return m[2]
	}
	return ""
}

// TierRank maps a name's tier marker onto one ascending scale: no marker is
// NoTier, I / Mk. 1 / 1 are 0, II / Mk. 2 / 2 are 1, and so on.
// Blueprint and Recipe are BlueprintRank.
func TierRank(name string) int {
	name = strings.TrimSpace(name)
	if bareMarkRe.MatchString(name) {
		return NoTier
	}
	if blueprintRe.MatchString(name) {
		return BlueprintRank
	}
	if m := markRe.FindStringSubmatch(name); m != nil {
		return numericRank(m[3])
	}
	if m := romanRe.FindStringSubmatch(name); m != nil {
		return romanRank[m[2]]
	}
	if m := digitRe.FindStringSubmatch(name); m != nil {
		return numericRank(m[2])
	}
	return NoTier
}

func numericRank(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0
	}
	if n > BlueprintRank {
		return BlueprintRank - 1
	}
	return n - 1
}

// IsBlueprint reports whether name is a Blueprint or Recipe variant.
func IsBlueprint(name string) bool { return TierRank(name) == BlueprintRank }
