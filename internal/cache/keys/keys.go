// Package keys derives deterministic cache keys from a method name and its
// normalized arguments.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "hexpoi"

// Key builds "hexpoi:<method>:<args>:f=<hash>". The readable argument text is
// sanitized and truncated for operability; the xxhash suffix over the full
// normalized text keeps distinct arguments distinct.
func Key(method string, args ...string) string {
	m := sanitizeForKey(strings.ToLower(strings.TrimSpace(method)))

	norm := make([]string, 0, len(args))
	for _, a := range args {
		norm = append(norm, collapseASCIIWhitespace(a))
	}
	// unit separator keeps argument boundaries unambiguous in the hashed text
	argText := strings.Join(norm, "\x1f")
	argSafe := sanitizeForKey(argText)

	const maxArgTextLen = 160
	if len(argSafe) > maxArgTextLen {
		argSafe = argSafe[:maxArgTextLen]
	}

	sum := xxhash.Sum64String(argText)

	return fmt.Sprintf("%s:%s:%s:f=%016x", prefix, m, argSafe, sum)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '.' || r == '_' || r == '-' || r == '=' || r == ',':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
