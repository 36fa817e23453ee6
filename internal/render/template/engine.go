package template

import "regexp"

// The engine is deliberately minimal: a single substitution pass, no
// conditionals, no recursion, no escaping. Templates come from trusted
// operators, and values arrive pre-stringified from the variable builder.

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Render substitutes every {{ name }} placeholder with variables[name].
// Unknown names become empty strings. Values are inserted literally and are
// never re-scanned for placeholders.
func Render(templateHTML string, variables map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(templateHTML, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return variables[name]
	})
}
