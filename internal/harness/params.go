package harness

import "strings"

// Param returns the value of key in a comma-separated key=value input.
// Parts are trimmed; the first part starting with "key=" wins and its value
// is the text between the first and second "=". Missing or empty values
// yield def.
func Param(input, key, def string) string {
	prefix := key + "="
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, prefix) {
			continue
		}
		fields := strings.Split(part, "=")
		if fields[1] == "" {
			return def
		}
		return fields[1]
	}
	return def
}

// CallArgs strips the leading call syntax from an input such as
// "count_marketers(['a', 'b'])". The first "fn(" and then the first ")"
// are removed, leaving the argument text.
func CallArgs(input, fn string) string {
	s := strings.Replace(input, fn+"(", "", 1)
	return strings.Replace(s, ")", "", 1)
}

// Args returns the argument text of a call expression "name(args)". Input
// that is not a single call is returned trimmed.
func Args(input string) string {
	s := strings.TrimSpace(input)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") || !isIdent(s[:open]) {
		return s
	}
	return s[open+1 : len(s)-1]
}

// Params parses a comma-separated key=value input with the same value rule
// as Param. The first occurrence of a key wins.
func Params(input string) map[string]string {
	params := make(map[string]string)
	for _, part := range strings.Split(input, ",") {
		fields := strings.Split(strings.TrimSpace(part), "=")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		if _, ok := params[fields[0]]; !ok {
			params[fields[0]] = fields[1]
		}
	}
	return params
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '.', 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}
	return true
}
