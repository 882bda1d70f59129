package evaluation

import (
	"html"
	"regexp"
	"strings"
)

// HighlightHTML escapes the candidate and wraps every case-insensitive occurrence
// of a contradicting phrase in a red span and of a missing key phrase in an
// orange span. Contradictions are marked first.
func HighlightHTML(candidate string, h Highlights) string {
	out := html.EscapeString(candidate)
	for _, hit := range h.Contradictions {
		out = wrapPhrase(out, hit.Phrase, "highlight-contradiction")
	}
	for _, kw := range h.LiteraryLoss {
		out = wrapPhrase(out, kw, "highlight-literary")
	}
	return out
}

func wrapPhrase(escaped, phrase, class string) string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return escaped
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(html.EscapeString(phrase)))
	return replaceOutsideTags(escaped, re, `<span class="`+class+`">$0</span>`)
}

// replaceOutsideTags applies re only to text between tags, so a phrase is never
// matched inside markup added by an earlier pass.
func replaceOutsideTags(s string, re *regexp.Regexp, repl string) string {
	var sb strings.Builder
	for len(s) > 0 {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			sb.WriteString(re.ReplaceAllString(s, repl))
			break
		}
		sb.WriteString(re.ReplaceAllString(s[:i], repl))
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			sb.WriteString(s[i:])
			break
		}
		sb.WriteString(s[i : i+j+1])
		s = s[i+j+1:]
	}
	return sb.String()
}
