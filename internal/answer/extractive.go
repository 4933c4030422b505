package answer

import (
	"regexp"
	"sort"
	"strings"

	"docqa/internal/domain"
)

// noMatchAnswer is returned when no sentence shares a token with the question.
const noMatchAnswer = "No exact match found in the documents."

// factoidBonus dwarfs any realistic token-overlap score, so a sentence
// matching the "<relation> of <entity>" pattern always outranks plain
// overlap matches.
const factoidBonus = 100

// relationWords are the relation keywords recognized by the factoid
// heuristic ("capital of France", "author of Dune", ...).
var relationWords = map[string]struct{}{
	"capital": {}, "president": {}, "currency": {}, "population": {},
	"author": {}, "inventor": {}, "founder": {}, "ceo": {}, "king": {},
	"queen": {}, "language": {}, "height": {}, "area": {}, "director": {},
}

// OverlapExtractor ranks sentences from the retrieved chunks by how many
// distinct question tokens they contain. A recognized "X of Y" factoid
// question gives sentences containing the named entity a large fixed bonus
// and restricts ranking to them, so short factual questions get a precise
// one-line answer instead of diffuse prose. Scoring has no randomness:
// identical inputs always produce the identical answer.
type OverlapExtractor struct {
	tokenPattern    *regexp.Regexp
	sentencePattern *regexp.Regexp
	factoidPattern  *regexp.Regexp
}

// NewOverlapExtractor creates the default extractive fallback scorer.
func NewOverlapExtractor() *OverlapExtractor {
	return &OverlapExtractor{
		tokenPattern:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentencePattern: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		factoidPattern:  regexp.MustCompile(`(?i)\b(\p{L}+)\s+of\s+(\p{L}[\p{L}\s'’-]*)`),
	}
}

type scoredSentence struct {
	pos     int
	text    string
	score   int
	factoid bool
}

// Extract returns the best one or two sentences for the question, or the
// literal no-match answer when nothing overlaps.
func (x *OverlapExtractor) Extract(question string, chunks []domain.Chunk) string {
	sentences := x.sentences(chunks)
	if len(sentences) == 0 {
		return noMatchAnswer
	}
	qTokens := x.tokenSet(question)
	entity := x.factoidEntity(question)

	scored := make([]scoredSentence, 0, len(sentences))
	anyFactoid := false
	for i, sent := range sentences {
		tokens := x.tokenSet(sent)
		score := 0
		for t := range qTokens {
			if _, ok := tokens[t]; ok {
				score++
			}
		}
		s := scoredSentence{pos: i, text: sent, score: score}
		if entity != nil && containsAll(tokens, entity) {
			s.score += factoidBonus
			s.factoid = true
			anyFactoid = true
		}
		scored = append(scored, s)
	}
	// a matched entity restricts ranking to the sentences naming it
	if anyFactoid {
		kept := scored[:0]
		for _, s := range scored {
			if s.factoid {
				kept = append(kept, s)
			}
		}
		scored = kept
	}
	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].score != scored[b].score {
			return scored[a].score > scored[b].score
		}
		// shorter sentences are likelier to be precise factoids
		if len(scored[a].text) != len(scored[b].text) {
			return len(scored[a].text) < len(scored[b].text)
		}
		return scored[a].pos < scored[b].pos
	})
	if scored[0].score == 0 {
		return noMatchAnswer
	}
	if scored[0].factoid {
		return scored[0].text
	}
	picked := []string{scored[0].text}
	if len(scored) > 1 && scored[1].score > 0 {
		picked = append(picked, scored[1].text)
	}
	return strings.Join(picked, " ")
}

// sentences splits every chunk into trimmed sentences, deduplicating the
// repeats that chunk overlap produces.
func (x *OverlapExtractor) sentences(chunks []domain.Chunk) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range chunks {
		parts := x.sentencePattern.FindAllString(c.Text, -1)
		if len(parts) == 0 {
			if trimmed := strings.TrimSpace(c.Text); trimmed != "" {
				parts = []string{trimmed}
			}
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			key := strings.ToLower(p)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// factoidEntity recognizes "<relation> of <entity>" questions and returns
// the entity's token set, or nil when the question does not match.
func (x *OverlapExtractor) factoidEntity(question string) map[string]struct{} {
	m := x.factoidPattern.FindStringSubmatch(question)
	if m == nil {
		return nil
	}
	if _, ok := relationWords[strings.ToLower(m[1])]; !ok {
		return nil
	}
	entity := x.tokenSet(m[2])
	if len(entity) == 0 {
		return nil
	}
	return entity
}

func (x *OverlapExtractor) tokenSet(s string) map[string]struct{} {
	tokens := x.tokenPattern.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func containsAll(tokens, want map[string]struct{}) bool {
	for t := range want {
		if _, ok := tokens[t]; !ok {
			return false
		}
	}
	return true
}
