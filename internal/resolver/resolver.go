// Package resolver normalizes raw media URLs into the canonical,
// tracking-free form the ingest endpoint expects, and rejects everything
// outside the supported platforms. Resolution is a pure function of its
// inputs.
package resolver

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var ErrInvalidAPIURL = errors.New("invalid api url")

var (
	tiktokNamedRe   = regexp.MustCompile(`(?i)^/@([^/]+)/(video|photo)/(\d+)`)
	tiktokGenericRe = regexp.MustCompile(`(?i)/(video|photo)/(\d+)`)
	twitterStatusRe = regexp.MustCompile(`^/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)`)
	youtubeShortsRe = regexp.MustCompile(`^/(?:shorts|embed|live)/([A-Za-z0-9_-]{6,})`)
	youtubeVideoID  = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

var twitterHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// ResolveIngestTargetURL parses raw as an absolute URL (resolving against
// base when raw is relative) and returns the platform-canonical form, or ""
// when the URL cannot be attributed to a supported platform.
func ResolveIngestTargetURL(raw, base string) string {
	parsed := parseWithBase(raw, base)
	if parsed == nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.Contains(host, "tiktok.com"):
		return canonicalTikTok(parsed)
	case host == "youtu.be" || youtubeHosts[host]:
		return canonicalYouTube(host, parsed)
	case twitterHosts[host]:
		return canonicalTwitter(parsed)
	}
	return ""
}

// Candidates are the URL strings carried by an ambient trigger such as a
// context-menu activation, from most to least specific.
type Candidates struct {
	LinkURL string `json:"linkUrl"`
	SrcURL  string `json:"srcUrl"`
	PageURL string `json:"pageUrl"`
	TabURL  string `json:"tabUrl"`
}

// ResolveFromCandidates returns the first candidate, in priority order
// (link > media source > page > tab), that resolves to a supported target.
func ResolveFromCandidates(c Candidates) string {
	for _, raw := range []string{c.LinkURL, c.SrcURL, c.PageURL, c.TabURL} {
		if raw == "" {
			continue
		}
		if resolved := ResolveIngestTargetURL(raw, ""); resolved != "" {
			return resolved
		}
	}
	return ""
}

// NormalizeAPIURL re-serializes a user-entered ingest endpoint into a
// canonical absolute URL. It is used for permission-origin comparison and
// test requests only, never for media canonicalization.
func NormalizeAPIURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidAPIURL
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidAPIURL
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", ErrInvalidAPIURL
	}

	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed.String(), nil
}

// Origin reduces an absolute URL to its scheme://host origin, the unit of
// permission granting. Returns "" when the URL does not parse.
func Origin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func parseWithBase(raw, base string) *url.URL {
	if base != "" {
		baseURL, err := url.Parse(base)
		if err == nil {
			if resolved, err := baseURL.Parse(raw); err == nil && resolved.IsAbs() {
				return resolved
			}
			return nil
		}
	}
	parsed, err := url.Parse(raw)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil
	}
	return parsed
}

func canonicalTikTok(u *url.URL) string {
	if m := tiktokNamedRe.FindStringSubmatch(u.Path); m != nil {
		return "https://www.tiktok.com/@" + m[1] + "/" + strings.ToLower(m[2]) + "/" + m[3]
	}
	if m := tiktokGenericRe.FindStringSubmatch(u.Path); m != nil {
		return "https://www.tiktok.com/" + strings.ToLower(m[1]) + "/" + m[2]
	}
	return ""
}

func canonicalYouTube(host string, u *url.URL) string {
	if host == "youtu.be" {
		id := strings.Trim(u.Path, "/")
		if youtubeVideoID.MatchString(id) {
			return "https://www.youtube.com/watch?v=" + id
		}
		return ""
	}

	if u.Path == "/watch" {
		id := u.Query().Get("v")
		if youtubeVideoID.MatchString(id) {
			return "https://www.youtube.com/watch?v=" + id
		}
		return ""
	}

	if m := youtubeShortsRe.FindStringSubmatch(u.Path); m != nil {
		if strings.HasPrefix(u.Path, "/shorts/") {
			return "https://www.youtube.com/shorts/" + m[1]
		}
		return "https://www.youtube.com/watch?v=" + m[1]
	}
	return ""
}

func canonicalTwitter(u *url.URL) string {
	if m := twitterStatusRe.FindStringSubmatch(u.Path); m != nil {
		return "https://x.com/" + m[1] + "/status/" + m[2]
	}
	return ""
}
