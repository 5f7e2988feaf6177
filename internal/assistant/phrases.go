package assistant

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:h|hr|hrs|hour|hours)\b`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*(?:m|min|mins|minute|minutes)\b`)
	barePattern    = regexp.MustCompile(`^\d+$`)
)

var durationWords = map[string]int{
	"half an hour":         30,
	"an hour and a half":   90,
	"one and a half hours": 90,
	"hour and a half":      90,
	"an hour":              60,
	"one hour":             60,
	"two hours":            120,
	"three hours":          180,
	"a couple of hours":    120,
	"quarter of an hour":   15,
	"a quarter of an hour": 15,
	"forty five minutes":   45,
	"forty-five minutes":   45,
}

// ParseDuration reads a duration such as "45 min", "1.5 hours",
// "2h 30m" or "an hour and a half". A bare number counts as minutes.
func ParseDuration(s string) (int, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return 0, false
	}
	if barePattern.MatchString(t) {
		n, err := strconv.Atoi(t)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}

	total := 0
	if m := hoursPattern.FindStringSubmatch(t); m != nil {
		h, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err == nil {
			total += int(math.Round(h * 60))
		}
	}
	if m := minutesPattern.FindStringSubmatch(t); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			total += n
		}
	}
	if total > 0 {
		return total, true
	}

	// Longest phrases first so "an hour and a half" beats "an hour".
	best, bestLen := 0, 0
	for phrase, minutes := range durationWords {
		if strings.Contains(t, phrase) && len(phrase) > bestLen {
			best, bestLen = minutes, len(phrase)
		}
	}
	return best, best > 0
}

var (
	laterPhrases   = []string{"later", "more", "more options", "other options", "show more", "next", "something later", "anything later"}
	earlierPhrases = []string{"earlier", "something earlier", "anything earlier", "previous", "back"}
)

// slotNavigation recognizes a short follow-up asking for more free slots.
// It reports whether the text asks for later (true) or earlier (false)
// slots.
func slotNavigation(s string) (later bool, ok bool) {
	t := strings.Trim(strings.ToLower(strings.TrimSpace(s)), "?!. ")
	t = strings.TrimSuffix(t, " please")
	t = strings.TrimPrefix(t, "please ")
	for _, p := range laterPhrases {
		if t == p {
			return true, true
		}
	}
	for _, p := range earlierPhrases {
		if t == p {
			return false, true
		}
	}
	return false, false
}
