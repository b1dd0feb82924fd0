package piston

import "strings"

// Runtime is the Piston runtime a user-facing language maps to
type Runtime struct {
	Language  string // user-facing identifier, e.g. "python"
	ID        string // Piston runtime identifier, e.g. "python3"
	Version   string
	Extension string
}

// FileName returns the name of the single source file submitted for this runtime
func (r Runtime) FileName() string {
	return "main." + r.Extension
}

// runtimes is the fixed language table, in display order
var runtimes = []Runtime{
	{Language: "python", ID: "python3", Version: "3.10.0", Extension: "py"},
	{Language: "javascript", ID: "node", Version: "18.15.0", Extension: "js"},
	{Language: "typescript", ID: "typescript", Version: "5.0.3", Extension: "ts"},
	{Language: "cpp", ID: "cpp", Version: "10.2.0", Extension: "cpp"},
	{Language: "java", ID: "java", Version: "15.0.2", Extension: "java"},
	{Language: "csharp", ID: "csharp", Version: "6.12.0", Extension: "cs"},
	{Language: "go", ID: "go", Version: "1.16.2", Extension: "go"},
	{Language: "rust", ID: "rust", Version: "1.68.2", Extension: "rs"},
	{Language: "ruby", ID: "ruby", Version: "3.0.1", Extension: "rb"},
	{Language: "swift", ID: "swift", Version: "5.3.3", Extension: "swift"},
	{Language: "kotlin", ID: "kotlin", Version: "1.8.0", Extension: "kt"},
	{Language: "php", ID: "php", Version: "8.0.0", Extension: "php"},
	{Language: "verilog", ID: "iverilog", Version: "11.0.0", Extension: "v"},
}

var runtimesByLanguage = func() map[string]Runtime {
	m := make(map[string]Runtime, len(runtimes))
	for _, rt := range runtimes {
		m[rt.Language] = rt
	}
	return m
}()

// RuntimeFor looks up the runtime for a user-facing language
func RuntimeFor(language string) (Runtime, bool) {
	rt, ok := runtimesByLanguage[language]
	return rt, ok
}

// IsSupported reports whether the language has a runtime mapping
func IsSupported(language string) bool {
	_, ok := runtimesByLanguage[language]
	return ok
}

// RuntimeVersion returns the pinned version for a language, or "" if unmapped
func RuntimeVersion(language string) string {
	return runtimesByLanguage[language].Version
}

// FileExtension returns the source extension for a language, "txt" if unmapped
func FileExtension(language string) string {
	if rt, ok := runtimesByLanguage[language]; ok {
		return rt.Extension
	}
	return "txt"
}

// LanguageNames returns the user-facing language identifiers in table order
func LanguageNames() []string {
	names := make([]string, len(runtimes))
	for i, rt := range runtimes {
		names[i] = rt.Language
	}
	return names
}

// LanguageInfo describes a supported language for display
type LanguageInfo struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Extension string `json:"extension"`
	Runtime   string `json:"piston_runtime"`
	Version   string `json:"version"`
}

// SupportedLanguages lists every mapped language in table order
func SupportedLanguages() []LanguageInfo {
	infos := make([]LanguageInfo, len(runtimes))
	for i, rt := range runtimes {
		infos[i] = LanguageInfo{
			Value:     rt.Language,
			Label:     strings.ToUpper(rt.Language[:1]) + rt.Language[1:],
			Extension: rt.Extension,
			Runtime:   rt.ID,
			Version:   rt.Version,
		}
	}
	return infos
}
