package analyzer

import (
	"path/filepath"
	"strings"

	"finlint/internal/models"
)

var extensionLanguages = map[string]models.Language{
	".py":   models.LanguagePython,
	".pyw":  models.LanguagePython,
	".js":   models.LanguageJavaScript,
	".mjs":  models.LanguageJavaScript,
	".cjs":  models.LanguageJavaScript,
	".jsx":  models.LanguageJavaScript,
	".ts":   models.LanguageJavaScript,
	".tsx":  models.LanguageJavaScript,
	".java": models.LanguageJava,
}

var contentIndicators = map[models.Language][]string{
	models.LanguagePython: {
		"def ", "import ", "from ", "class ", "::", "self.",
		"elif ", "except:", "with open", "__init__",
	},
	models.LanguageJavaScript: {
		"const ", "let ", "var ", "function ", "=> ", "require(",
		"import ", "export ", "async ", "await ", "console.log",
		".then(", ".catch(",
	},
	models.LanguageJava: {
		"public class", "private ", "protected ", "static void main",
		"system.out", "@override", "@autowired", "new ", "throws ",
		"implements ", "extends ",
	},
}

// LanguageForPath maps a file extension to a language, or LanguageUnknown.
func LanguageForPath(path string) models.Language {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return models.LanguageUnknown
}

// SupportedExtension reports whether a path has a mapped extension.
func SupportedExtension(path string) bool {
	return LanguageForPath(path) != models.LanguageUnknown
}

// DetectLanguage resolves the language of a source, preferring the path
// extension and falling back to keyword scoring. Ties go to the first
// language in models.SupportedLanguages order.
func DetectLanguage(source, pathHint string) models.Language {
	if pathHint != "" {
		if lang := LanguageForPath(pathHint); lang != models.LanguageUnknown {
			return lang
		}
	}
	best, bestScore := models.LanguageUnknown, 0
	scores := ScoreContent(source)
	for _, lang := range models.SupportedLanguages {
		if scores[lang] > bestScore {
			best, bestScore = lang, scores[lang]
		}
	}
	return best
}

// ScoreContent counts, per language, how many of its indicators appear in
// the source, case-insensitively. Repeats of one indicator score once so a
// single common token cannot outvote the rest.
func ScoreContent(source string) map[models.Language]int {
	lower := strings.ToLower(source)
	scores := make(map[models.Language]int, len(contentIndicators))
	for lang, indicators := range contentIndicators {
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				scores[lang]++
			}
		}
	}
	return scores
}
