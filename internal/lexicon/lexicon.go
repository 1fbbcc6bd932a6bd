// Package lexicon holds the keyword lists used for sentiment scoring and
// complaint detection, and compiles them into matchers.
package lexicon

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon is a set of named word lists
type Lexicon struct {
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
	Complaint []string `yaml:"complaint"`
}

// Default returns the built-in word lists.
func Default() Lexicon {
	return Lexicon{
		Positive:  []string{"love", "great", "awesome", "happy", "thank", "thanks"},
		Negative:  []string{"hate", "terrible", "awful", "angry", "sad", "annoy", "sucks"},
		Complaint: []string{"hate", "can't", "don't", "terrible", "annoy", "sucks"},
	}
}

// Load reads a YAML lexicon file. Lists missing from the file fall back to
// the defaults.
func Load(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML lexicon document.
func Parse(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon yaml: %w", err)
	}

	def := Default()
	if len(lex.Positive) == 0 {
		lex.Positive = def.Positive
	}
	if len(lex.Negative) == 0 {
		lex.Negative = def.Negative
	}
	if len(lex.Complaint) == 0 {
		lex.Complaint = def.Complaint
	}

	lex.Positive = normalize(lex.Positive)
	lex.Negative = normalize(lex.Negative)
	lex.Complaint = normalize(lex.Complaint)
	return lex, nil
}

// Marshal encodes the lexicon as YAML.
func (l Lexicon) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Matcher scores text against a compiled lexicon
type Matcher struct {
	positive  phrases
	negative  phrases
	complaint []string
}

// Compile builds a Matcher from the lexicon.
func (l Lexicon) Compile() *Matcher {
	return &Matcher{
		positive:  newPhrases(l.Positive),
		negative:  newPhrases(l.Negative),
		complaint: normalize(l.Complaint),
	}
}

// wordToken is a run of Unicode word characters, so "é" next to a keyword
// joins it rather than bounding it.
var wordToken = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

func tokenize(text string) []string {
	tokens := wordToken.FindAllString(text, -1)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// phrases indexes lexicon entries by their first token. Entries such as
// "can't" span several tokens and match consecutive tokens.
type phrases map[string][][]string

func newPhrases(words []string) phrases {
	p := make(phrases)
	for _, w := range normalize(words) {
		if toks := tokenize(w); len(toks) > 0 {
			p[toks[0]] = append(p[toks[0]], toks)
		}
	}
	return p
}

// count returns the number of non-overlapping entry matches in tokens,
// preferring the longest entry at each position.
func (p phrases) count(tokens []string) int {
	n := 0
	for i := 0; i < len(tokens); {
		longest := 0
		for _, entry := range p[tokens[i]] {
			if len(entry) > longest && hasPrefix(tokens[i:], entry) {
				longest = len(entry)
			}
		}
		if longest == 0 {
			i++
			continue
		}
		n++
		i += longest
	}
	return n
}

func hasPrefix(tokens, prefix []string) bool {
	if len(prefix) > len(tokens) {
		return false
	}
	for i := range prefix {
		if tokens[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Positive counts positive whole-word matches in text, ignoring case.
func (m *Matcher) Positive(text string) int {
	return m.positive.count(tokenize(text))
}

// Negative counts negative whole-word matches in text, ignoring case.
func (m *Matcher) Negative(text string) int {
	return m.negative.count(tokenize(text))
}

// Score is positive matches minus negative matches.
func (m *Matcher) Score(text string) int {
	tokens := tokenize(text)
	return m.positive.count(tokens) - m.negative.count(tokens)
}

// IsComplaint reports whether the lowercased body contains any complaint
// keyword as a substring.
func (m *Matcher) IsComplaint(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range m.complaint {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
