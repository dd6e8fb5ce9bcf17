// Package classify implements the breach-vs-spam relevance heuristic over
// normalized message content
package classify

import (
	"strings"

	"breachwatch/internal/core/vocab"
)

// Verdict is the classification outcome for one content string
type Verdict struct {
	IsBreach    bool
	BreachScore int
	SpamScore   int
}

// Classifier scores content against fixed keyword lists.
// Vocabulary is injected at construction so tests can substitute lists;
// there is no process-wide mutable state
type Classifier struct {
	breach []string
	spam   []string
}

// New constructs a Classifier from the vocabulary pack
func New(p *vocab.Pack) *Classifier {
	return &Classifier{breach: p.BreachIndicators, spam: p.SpamIndicators}
}

// Classify case-folds content and counts indicator substring occurrences.
// Content is a breach iff breach_score > spam_score and breach_score > 0,
// which biases the pipeline toward precision: heavy spam vocabulary excludes
// a message even when a few breach terms match. Empty content is never a breach
func (c *Classifier) Classify(content string) Verdict {
	if content == "" {
		return Verdict{}
	}

	lower := strings.ToLower(content)

	var v Verdict
	for _, kw := range c.breach {
		if strings.Contains(lower, kw) {
			v.BreachScore++
		}
	}
	for _, kw := range c.spam {
		if strings.Contains(lower, kw) {
			v.SpamScore++
		}
	}
	v.IsBreach = v.BreachScore > v.SpamScore && v.BreachScore > 0
	return v
}

// IsBreach is sugar for Classify(content).IsBreach
func (c *Classifier) IsBreach(content string) bool {
	return c.Classify(content).IsBreach
}
