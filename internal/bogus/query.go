package bogus

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// SignatureParam is the query parameter that carries the signature.
const SignatureParam = "a_bogus"

// QueryOf returns the raw query component of rawURL, still percent-encoded
// and in its original parameter order. The fragment is ignored. A URL
// without a query yields an empty string.
func QueryOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.RawQuery, nil
}

// AppendSignature returns rawURL with a_bogus=<sig> added as the last query
// parameter. Existing parameters are left byte-for-byte unchanged because
// the signature was computed over them.
func AppendSignature(rawURL, sig string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	param := SignatureParam + "=" + url.QueryEscape(sig)
	if u.RawQuery == "" {
		u.RawQuery = param
	} else {
		u.RawQuery += "&" + param
	}
	u.ForceQuery = false
	return u.String(), nil
}

// shareURLPatterns are tried in order; the first match wins.
var shareURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://v\.douyin\.com/[a-zA-Z0-9_-]+/?`),
	regexp.MustCompile(`(?i)https?://www\.douyin\.com/video/\d+`),
	regexp.MustCompile(`(?i)https?://www\.iesdouyin\.com/share/video/\d+/?`),
	regexp.MustCompile(`(?i)https?://[^\s]+`),
}

// ExtractURL pulls the first link out of pasted share text such as
// "7.43 复制打开抖音，看看【...】 https://v.douyin.com/iRNBho6u/ 。". Trailing
// full-width punctuation is trimmed. A link typed in full-width forms
// ("ｈｔｔｐｓ：／／...") is found after folding to narrow forms. Text
// without a link is returned trimmed of surrounding whitespace.
func ExtractURL(text string) string {
	if m := findShareURL(text); m != "" {
		return m
	}
	if folded := width.Fold.String(text); folded != text {
		if m := findShareURL(folded); m != "" {
			return m
		}
	}
	return strings.TrimSpace(text)
}

// findShareURL returns the first match of shareURLPatterns in text, or "".
func findShareURL(text string) string {
	for _, re := range shareURLPatterns {
		if m := re.FindString(text); m != "" {
			return strings.TrimRightFunc(m, isFullWidthPunct)
		}
	}
	return ""
}

// isFullWidthPunct matches CJK symbols and punctuation (U+3000-U+303F) and
// half/full-width forms (U+FF00-U+FFEF).
func isFullWidthPunct(r rune) bool {
	return (r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xffef)
}
