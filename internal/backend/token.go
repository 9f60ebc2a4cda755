package backend

import "regexp"

// The backend embeds its CSRF token in HTML rather than exposing a
// token API, so the client scrapes it. Patterns are tried in order and
// the first plausible capture wins; keeping them ordered here means a
// markup change on the server only ever touches this file.
var tokenPatterns = []*regexp.Regexp{
	// <meta name="csrf-token" content="...">
	regexp.MustCompile(`<meta\s+name="csrf-token"\s+content="([^"]+)"`),
	// <input type="hidden" name="_token" value="...">, either attribute order
	regexp.MustCompile(`<input[^>]*name="_token"[^>]*value="([^"]+)"`),
	regexp.MustCompile(`<input[^>]*value="([^"]+)"[^>]*name="_token"`),
	// JSON-ish embeds in inline scripts
	regexp.MustCompile(`"_token"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"csrf_token"\s*:\s*"([^"]+)"`),
}

// Captures shorter than this are markup noise, not tokens
const minTokenLength = 11

// ExtractToken scans an HTML document for an embedded CSRF token.
// It is side-effect-free; callers decide whether to persist the result.
func ExtractToken(html string) (string, bool) {
	for _, p := range tokenPatterns {
		m := p.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if token := m[1]; len(token) >= minTokenLength {
			return token, true
		}
	}
	return "", false
}
