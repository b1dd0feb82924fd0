package runner

import "strings"

type codeRule struct {
	markers []string
	message string
}

// codeRules are coarse checks that a submission contains a definition.
// Languages without an entry are only checked for emptiness.
var codeRules = map[string]codeRule{
	"python": {
		markers: []string{"def ", "class "},
		message: "Python code should contain at least one function or class definition",
	},
	"javascript": {
		markers: []string{"function ", "=>", "var ", "let ", "const "},
		message: "JavaScript code should contain at least one function or variable declaration",
	},
	"cpp": {
		markers: []string{"class ", "int ", "void "},
		message: "C++ code should contain at least one class or function definition",
	},
	"java": {
		markers: []string{"class ", "public "},
		message: "Java code should contain at least one class or method definition",
	},
}

// ValidateCode returns the problems found in code, or nil if none
func ValidateCode(code, language string) []string {
	if strings.TrimSpace(code) == "" {
		return []string{"Code cannot be empty"}
	}

	rule, ok := codeRules[language]
	if !ok {
		return nil
	}
	for _, m := range rule.markers {
		if strings.Contains(code, m) {
			return nil
		}
	}
	return []string{rule.message}
}
