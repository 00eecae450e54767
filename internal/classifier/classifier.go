// Package classifier decides whether an answer admits it could not help,
// in which case its source references are not shown.
package classifier

import (
	"strings"
)

// Classifier flags uncertain or insufficient answers
type Classifier interface {
	IsNegative(answer string) bool
}

// DefaultPhrases is the bilingual list of uncertain/insufficient markers.
// Matching is literal: "Unknown" inside a valid answer is a known false positive.
var DefaultPhrases = []string{
	"I'm sorry",
	"عذرًا",
	"لا أملك معلومات كافية",
	"I don't have enough information",
	"لم أتمكن من فهم سؤالك",
	"I couldn't understand your question",
	"لا يمكنني الإجابة على هذا السؤال",
	"I cannot answer this question",
	"يرجى تقديم المزيد من التفاصيل",
	"Please provide more details",
	"غير واضح",
	"Unclear",
	"غير متأكد",
	"Not sure",
	"لا أعرف",
	"I don't know",
	"غير متاح",
	"Not available",
	"غير موجود",
	"Not found",
	"غير معروف",
	"Unknown",
	"غير محدد",
	"Unspecified",
	"غير مؤكد",
	"Uncertain",
	"غير كافي",
	"Insufficient",
	"غير دقيق",
	"Inaccurate",
	"غير مفهوم",
	"Not clear",
	"غير مكتمل",
	"Incomplete",
	"غير صحيح",
	"Incorrect",
	"غير مناسب",
	"Inappropriate",
	"Please provide me",
	"يرجى تزويدي",
	"Can you provide more",
	"هل يمكنك تقديم المزيد",
}

// PhraseClassifier matches answers against a fixed phrase list
type PhraseClassifier struct {
	phrases []string
}

// New creates a classifier over phrases, or DefaultPhrases when none are given
func New(phrases ...string) *PhraseClassifier {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	list := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p != "" {
			list = append(list, p)
		}
	}
	return &PhraseClassifier{phrases: list}
}

// IsNegative reports whether any phrase occurs in answer (case-sensitive substring)
func (c *PhraseClassifier) IsNegative(answer string) bool {
	return c.Match(answer) != ""
}

// Match returns the first phrase found in answer, or "" when none is present
func (c *PhraseClassifier) Match(answer string) string {
	for _, phrase := range c.phrases {
		if strings.Contains(answer, phrase) {
			return phrase
		}
	}
	return ""
}
