package similarity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenSetRatio compares two strings by their sets of words and returns a
// value on the 0-100 scale. Word order and repeated words do not matter, and a
// string whose words are all contained in the other scores 100.
//
// Both strings are lower-cased and every rune that is not a letter or digit is
// treated as a separator before tokenizing.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			sect = append(sect, token)
		} else {
			diffAB = append(diffAB, token)
		}
	}
	for token := range tokensB {
		if _, ok := tokensA[token]; !ok {
			diffBA = append(diffBA, token)
		}
	}

	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	sort.Strings(sect)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	diffABJoined := strings.Join(diffAB, " ")
	diffBAJoined := strings.Join(diffBA, " ")
	abLen := utf8.RuneCountInString(diffABJoined)
	baLen := utf8.RuneCountInString(diffBAJoined)
	sectLen := utf8.RuneCountInString(strings.Join(sect, " "))

	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	result := normalized(indel([]rune(diffABJoined), []rune(diffBAJoined)), sectABLen+sectBALen)
	if sectLen == 0 {
		return result
	}

	// sect vs sect+diff differ only by the appended diff, so the distance is its length.
	sectABRatio := normalized(sep+abLen, sectLen+sectABLen)
	sectBARatio := normalized(sep+baLen, sectLen+sectBALen)

	return max(result, sectABRatio, sectBARatio)
}

func normalized(distance, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(distance)/float64(total))
}

// indel is the insert/delete edit distance: len(a)+len(b)-2*LCS(a, b).
func indel(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return len(a) + len(b) - 2*prev[len(b)]
}

func tokenSet(s string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	set := make(map[string]struct{})
	for _, token := range strings.Fields(cleaned) {
		set[token] = struct{}{}
	}
	return set
}
