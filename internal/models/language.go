package models

import "strings"

// Language is the analyzed source language of a scan unit.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageJava       Language = "java"
	LanguageUnknown    Language = "unknown"
)

// SupportedLanguages is also the tie-break order for content scoring.
var SupportedLanguages = []Language{
	LanguagePython,
	LanguageJavaScript,
	LanguageJava,
}

func (l Language) Supported() bool {
	switch l {
	case LanguagePython, LanguageJavaScript, LanguageJava:
		return true
	default:
		return false
	}
}

// ParseLanguage maps user input such as "py", "js" or "auto" to a Language.
// Anything unrecognised, including "auto", yields LanguageUnknown.
func ParseLanguage(name string) Language {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "python", "py":
		return LanguagePython
	case "javascript", "js", "typescript", "ts", "node":
		return LanguageJavaScript
	case "java":
		return LanguageJava
	default:
		return LanguageUnknown
	}
}
