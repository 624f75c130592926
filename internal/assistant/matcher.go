package assistant

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/clipperhouse/uax29/v2/words"
)

const DefaultMatchLimit = 3

// Matcher selects document sentences that share a non-stopword term with
// a query. Presence is binary: no ranking, original order kept.
type Matcher struct {
	stopwords map[string]struct{}
	limit     int
}

func NewMatcher(limit int) *Matcher {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	return &Matcher{
		stopwords: stopwordSet(englishStopwords),
		limit:     limit,
	}
}

// Match returns at most limit sentences of body relevant to query.
func (m *Matcher) Match(query, body string) []string {
	terms := m.queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var matched []string
	for _, sentence := range splitSentences(body) {
		for _, token := range wordTokens(sentence) {
			if _, ok := terms[token]; ok {
				matched = append(matched, sentence)
				break
			}
		}
		if len(matched) >= m.limit {
			break
		}
	}
	return matched
}

func (m *Matcher) queryTerms(query string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, token := range wordTokens(query) {
		if _, stop := m.stopwords[token]; stop {
			continue
		}
		terms[token] = struct{}{}
	}
	return terms
}

// splitSentences segments body into sentences. Hard line wraps are joined
// first so a sentence spanning lines stays whole; blank lines still end a
// paragraph.
func splitSentences(body string) []string {
	var out []string
	iter := sentences.FromString(unwrapLines(body))
	for iter.Next() {
		s := strings.Join(strings.Fields(iter.Value()), " ")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func unwrapLines(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(body))
	paragraphEnd := false
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			paragraphEnd = true
			continue
		}
		if b.Len() > 0 {
			if paragraphEnd {
				b.WriteString("\n\n")
			} else {
				b.WriteByte(' ')
			}
		}
		paragraphEnd = false
		b.WriteString(line)
	}
	return b.String()
}

// wordTokens lower-cases text and keeps word segments carrying at least one
// letter or digit. Contractions are split at the apostrophe ("don't" gives
// "don" and "t"), typographic or not, so both halves meet the stopword list.
func wordTokens(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "\u2019", "'"))

	var out []string
	iter := words.FromString(text)
	for iter.Next() {
		for _, part := range strings.Split(iter.Value(), "'") {
			if isWordToken(part) {
				out = append(out, part)
			}
		}
	}
	return out
}

func isWordToken(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
