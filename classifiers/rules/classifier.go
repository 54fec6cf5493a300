// Package rules is a deterministic keyword classifier for development and
// offline runs.
package rules

import (
	"context"
	"strings"
	"unicode"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rule maps keywords to an intent. Rules are evaluated in order and the one
// with the most keyword hits wins; ties keep the earlier rule.
type Rule struct {
	Intent   core.Intent
	Keywords []string
}

type Classifier struct {
	rules         []Rule
	baseScore     float64
	perHit        float64
	maxScore      float64
	fallbackScore float64
}

func DefaultRules() []Rule {
	return []Rule{
		{Intent: core.IntentComplaint, Keywords: []string{
			"reclamacao", "reclamar", "absurdo", "pessimo", "horrivel", "nao funciona",
			"cancelar", "reembolso", "procon", "complaint", "refund", "terrible",
		}},
		{Intent: core.IntentSupport, Keywords: []string{
			"ajuda", "suporte", "problema", "erro", "nao consigo", "defeito", "quebrado",
			"help", "support", "broken", "issue",
		}},
		{Intent: core.IntentPurchase, Keywords: []string{
			"comprar", "quero", "pedido", "orcamento", "preco", "valor", "quanto custa",
			"pagamento", "pix", "boleto", "buy", "price", "order",
		}},
		{Intent: core.IntentQuestion, Keywords: []string{
			"?", "como", "quando", "onde", "qual", "quais", "pode", "duvida",
			"how", "when", "where", "what",
		}},
		{Intent: core.IntentGreeting, Keywords: []string{
			"oi", "ola", "bom dia", "boa tarde", "boa noite", "tudo bem", "hello", "hi",
		}},
	}
}

func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	normalized := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, keyword := range rule.Keywords {
			if folded := fold(keyword); folded != "" {
				keywords = append(keywords, folded)
			}
		}
		normalized = append(normalized, Rule{Intent: rule.Intent, Keywords: keywords})
	}
	return &Classifier{
		rules:         normalized,
		baseScore:     0.55,
		perHit:        0.1,
		maxScore:      0.95,
		fallbackScore: 0.3,
	}
}

func (c *Classifier) Classify(_ context.Context, text string) (core.Classification, error) {
	if c == nil {
		return core.Classification{Intent: core.IntentOther, Confidence: 0}, nil
	}
	haystack := " " + fold(text) + " "
	best := core.IntentOther
	bestHits := 0
	for _, rule := range c.rules {
		hits := 0
		for _, keyword := range rule.Keywords {
			if matches(haystack, keyword) {
				hits++
			}
		}
		if hits > bestHits {
			best = rule.Intent
			bestHits = hits
		}
	}
	if bestHits == 0 {
		return core.Classification{Intent: core.IntentOther, Confidence: c.fallbackScore}, nil
	}
	confidence := c.baseScore + c.perHit*float64(bestHits-1)
	if confidence > c.maxScore {
		confidence = c.maxScore
	}
	return core.Classification{Intent: best, Confidence: confidence}, nil
}

// matches looks for keyword on word boundaries. Punctuation keywords match
// anywhere.
func matches(haystack string, keyword string) bool {
	if len(keyword) == 1 && !isWordRune(rune(keyword[0])) {
		return strings.Contains(haystack, keyword)
	}
	start := 0
	for {
		idx := strings.Index(haystack[start:], keyword)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(keyword)
		before := rune(haystack[idx-1])
		after := rune(haystack[end])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = idx + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// fold lowercases and strips diacritics so "Olá" and "ola" compare equal.
func fold(value string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

var _ core.Classifier = (*Classifier)(nil)
