// Package classpath parses add-to-classpath directives embedded in plugin
// entry scripts.
//
// A directive is a comment line of the form
//
//	<comment-marker> add-to-classpath <path>
//
// where <path> may embed $NAME tokens resolved against an environment
// snapshot. Each runner variant supplies its own comment marker; the
// directive keyword is shared.
package classpath

import (
	"os"
	"regexp"
	"strings"
)

// Keyword is the directive name shared by all runner variants. Variants
// prepend their own comment marker, e.g. "-- " for Lua or "// " for Go.
const Keyword = "add-to-classpath "

var varPattern = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// Entry describes one parsed directive line.
type Entry struct {
	// Directive is the line with the marker stripped and whitespace
	// trimmed, before variable substitution.
	Directive string

	// Path is the directive after environment variable substitution.
	Path string

	// Exists reports whether Path names an existing file or directory.
	Exists bool
}

// Parse extracts every directive line from text. Order follows the script;
// nothing is deduplicated or filtered.
func Parse(text, marker string, env map[string]string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, marker) {
			continue
		}
		directive := strings.TrimSpace(strings.TrimPrefix(line, marker))
		path := Inline(directive, env)
		_, err := os.Stat(path)
		entries = append(entries, Entry{Directive: directive, Path: path, Exists: err == nil})
	}
	return entries
}

// Additions returns the ordered, existing paths named by directive lines in
// text. Missing paths are excluded and reported through onMissing exactly
// once each, with the substituted path. Order is preserved and duplicates
// are kept; the loading context tolerates repeats.
func Additions(text, marker string, env map[string]string, onMissing func(path string)) []string {
	var paths []string
	for _, e := range Parse(text, marker, env) {
		if !e.Exists {
			if onMissing != nil {
				onMissing(e.Path)
			}
			continue
		}
		paths = append(paths, e.Path)
	}
	return paths
}

// Inline substitutes every $NAME token in path with its value from env.
// Names missing from env are left unsubstituted; substitution never fails.
func Inline(path string, env map[string]string) string {
	return varPattern.ReplaceAllStringFunc(path, func(tok string) string {
		if v, ok := env[tok[1:]]; ok {
			return v
		}
		return tok
	})
}
