package highlights

import (
	"sort"
	"strings"
)

// stopwordsID lists high-frequency Indonesian and English function words that
// carry no topical signal.
var stopwordsID = map[string]bool{
	"yang": true, "dan": true, "atau": true, "di": true, "ke": true,
	"dari": true, "itu": true, "ini": true, "untuk": true, "dengan": true,
	"pada": true, "kita": true, "kamu": true, "aku": true, "saya": true,
	"gue": true, "lo": true, "jadi": true, "karena": true, "ada": true,
	"aja": true, "sih": true, "nih": true, "deh": true,
	"the": true, "a": true, "an": true, "to": true, "of": true,
	"is": true, "are": true,
}

// ExtractKeywords returns up to limit topical words ranked by frequency,
// padded with generic action words when the text is too thin.
func ExtractKeywords(text string, limit int) []string {
	counts := map[string]int{}
	order := []string{}
	for _, word := range parseWords(text) {
		if len(word) <= 2 || stopwordsID[word] {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	for _, fill := range []string{"fokus", "aksi", "hasil"} {
		if len(order) >= limit {
			break
		}
		order = append(order, fill)
	}
	return order
}

// TopicLabel builds a short capitalized topic line from the strongest
// keywords.
func TopicLabel(text string) string {
	keywords := ExtractKeywords(text, 2)
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "fokus" || kw == "aksi" || kw == "hasil" {
			continue
		}
		parts = append(parts, capitalize(kw))
	}
	if len(parts) == 0 {
		return "Core insight"
	}
	return strings.Join(parts, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
