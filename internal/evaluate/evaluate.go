package evaluate

// #region imports
import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sparkyed/sparky-engine/internal/catalog"
)

// #endregion imports

// #region patterns

var (
	namePhraseRe  = regexp.MustCompile(`(?i)\bmy name is\s+([A-Za-z]+)`)
	bareNameRe    = regexp.MustCompile(`^[A-Za-z]+$`)
	topicPhraseRe = regexp.MustCompile(`(?i)\b(?:learn about|study)\s+(.+)`)
	numberRe      = regexp.MustCompile(`\b(\d+)\b`)
)

// degeneratePhrases are answers that can never satisfy a rubric regardless
// of keyword overlap.
var degeneratePhrases = []string{
	"i don't know",
	"i dont know",
	"i do not know",
	"idk",
	"no idea",
	"dunno",
}

// #endregion patterns

// #region name

// ExtractName pulls a name out of onboarding input. It accepts "my name is
// X" phrasing or a bare single-word name, title-cased either way.
func ExtractName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if m := namePhraseRe.FindStringSubmatch(text); m != nil {
		return titleCase(m[1]), true
	}
	if bareNameRe.MatchString(text) {
		return titleCase(text), true
	}
	return "", false
}

func titleCase(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

// #endregion name

// #region topic

// ExtractTopic matches input against the valid topic names, case-folded.
// "I want to learn about X" phrasing is unwrapped first; otherwise the whole
// input is treated as the candidate. A topic matches when the candidate and
// the topic name share a word, or the topic name appears in the input.
func ExtractTopic(text string, validTopics []string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}

	candidate := lower
	if m := topicPhraseRe.FindStringSubmatch(lower); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	words := strings.Fields(candidate)
	for _, topic := range validTopics {
		topicLower := strings.ToLower(topic)
		for _, w := range words {
			// Words under 3 runes ("I", "a", "to") match almost anything.
			if len(w) >= 3 && strings.Contains(topicLower, w) {
				return topic, true
			}
		}
	}
	for _, topic := range validTopics {
		if strings.Contains(lower, strings.ToLower(topic)) {
			return topic, true
		}
	}
	return "", false
}

// #endregion topic

// #region story-choice

// ExtractStoryChoice pulls a numeric story selection out of input like "1"
// or "story 2".
func ExtractStoryChoice(text string) (int, bool) {
	m := numberRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// #endregion story-choice

// #region rubric-match

// MatchesRubric reports whether the candidate satisfies the rubric: it
// contains any keyword, or equals/contains/is contained by any example.
// Comparison is case-folded and whitespace-trimmed. Degenerate answers
// never match.
func MatchesRubric(candidate string, r catalog.Rubric) bool {
	cand := strings.ToLower(strings.TrimSpace(candidate))
	if IsDegenerate(cand) {
		return false
	}

	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(cand, kw) {
			return true
		}
	}
	for _, ex := range r.Examples {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex == "" {
			continue
		}
		if cand == ex || strings.Contains(cand, ex) || strings.Contains(ex, cand) {
			return true
		}
	}
	return false
}

// IsDegenerate reports whether the input is empty or an "I don't know"
// style non-answer.
func IsDegenerate(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return true
	}
	for _, p := range degeneratePhrases {
		if lower == p {
			return true
		}
	}
	return false
}

// #endregion rubric-match
