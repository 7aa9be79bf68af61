package scraper

import "strings"

// Query is the operator's search term. The original casing is kept for requests.
type Query struct {
	text string
}

func NewQuery(text string) Query {
	return Query{text: strings.TrimSpace(text)}
}

func (q Query) String() string {
	return q.text
}

func (q Query) IsEmpty() bool {
	return q.text == ""
}

// Keywords returns the lower-cased whitespace-separated words, duplicates included.
func (q Query) Keywords() []string {
	return strings.Fields(strings.ToLower(q.text))
}

func (q Query) Score(candidateName string) int {
	return Score(candidateName, q.text)
}

// Score counts the query keywords contained in candidateName. A keyword repeated in
// the query counts once per repetition.
func Score(candidateName, query string) int {
	name := strings.ToLower(candidateName)
	score := 0
	for _, keyword := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(name, keyword) {
			score++
		}
	}
	return score
}
