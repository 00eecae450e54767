package locale

import (
	"fmt"
	"strings"
)

// Language is the interface language selected by the user
type Language string

const (
	English Language = "English"
	Arabic  Language = "العربية"
)

// Parse accepts a language name or its two-letter code
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "en", "english":
		return English, nil
	case "ar", "arabic", string(Arabic):
		return Arabic, nil
	}
	return "", fmt.Errorf("unsupported language %q (use en or ar)", s)
}

// Code returns the two-letter code passed to speech engines
func (l Language) Code() string {
	if l == Arabic {
		return "ar"
	}
	return "en"
}

// ContainsArabic reports whether any rune of text lies in the Arabic block (U+0600-U+06FF).
func ContainsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// Detect picks the answer language from the question text alone
func Detect(text string) Language {
	if ContainsArabic(text) {
		return Arabic
	}
	return English
}
