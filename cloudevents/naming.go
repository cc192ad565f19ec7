package cloudevents

import (
	"strings"
	"unicode"

	"github.com/fxsml/mediator"
)

// NamingStrategy derives CloudEvents type names from request types.
type NamingStrategy interface {
	TypeName(key mediator.TypeKey) string
}

// DotNaming names a request by its lowercase words joined by dots, without
// the request role suffix. Acronyms stay one word.
// Example: CreateUserCommand → "create.user", GetHTTPStatusQuery → "get.http.status"
var DotNaming NamingStrategy = wordNaming(".")

// SnakeNaming is DotNaming joined by underscores.
// Example: CreateUserCommand → "create_user"
var SnakeNaming NamingStrategy = wordNaming("_")

// requestSuffixes name the role of a request type, not the request.
var requestSuffixes = []string{"Command", "Query", "Request"}

type wordNaming string

func (sep wordNaming) TypeName(key mediator.TypeKey) string {
	return strings.Join(requestWords(key), string(sep))
}

// requestWords splits the bare name of key into lowercase words.
func requestWords(key mediator.TypeKey) []string {
	name := strings.TrimLeft(key.Name(), "*")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	for _, suffix := range requestSuffixes {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok && trimmed != "" {
			name = trimmed
			break
		}
	}
	return splitWords(name)
}

// splitWords splits a PascalCase identifier at each lower-to-upper change
// and before the last capital of an acronym followed by lowercase.
func splitWords(s string) []string {
	rs := []rune(s)
	var words []string
	start := 0
	for i := 1; i < len(rs); i++ {
		if !unicode.IsUpper(rs[i]) {
			continue
		}
		prev := rs[i-1]
		endOfAcronym := unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || endOfAcronym {
			words = append(words, strings.ToLower(string(rs[start:i])))
			start = i
		}
	}
	if start < len(rs) {
		words = append(words, strings.ToLower(string(rs[start:])))
	}
	return words
}
