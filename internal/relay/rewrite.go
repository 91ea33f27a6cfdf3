package relay

import (
	"net/url"
	"regexp"
	"strings"
)

var uriAttrPattern = regexp.MustCompile(`URI="([^"]*)"`)

// RewritePlaylist rewrites every externally resolvable URL reference in
// an HLS playlist so it routes back through the proxy. Segment and
// variant lines become `<proxyBase>?url=<escaped absolute URL>`;
// quoted URI attributes on tag lines (encryption keys, media renditions)
// are substituted in place; comments, blank lines, and lines already
// pointing at the proxy pass through untouched. Line endings are
// normalized to bare newlines.
//
// The function is pure and never fails: a reference that cannot be
// resolved keeps its original text.
func RewritePlaylist(playlist, proxyBase, targetURL string) string {
	basePath := playlistBasePath(targetURL)
	lines := strings.Split(playlist, "\n")
	out := make([]string, len(lines))

	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		switch {
		case strings.Contains(line, `URI="`):
			out[i] = rewriteURIAttributes(line, proxyBase, basePath)
		case isReferenceLine(line, proxyBase):
			resolved, ok := resolveReference(strings.TrimSpace(line), basePath)
			if !ok {
				out[i] = line
				continue
			}
			out[i] = proxiedURL(proxyBase, resolved)
		default:
			out[i] = line
		}
	}
	return strings.Join(out, "\n")
}

// rewriteURIAttributes substitutes every URI="..." occurrence on a tag
// line. Values already routed through the proxy are left alone, which
// makes a second rewrite pass a no-op.
func rewriteURIAttributes(line, proxyBase, basePath string) string {
	return uriAttrPattern.ReplaceAllStringFunc(line, func(attr string) string {
		value := attr[len(`URI="`) : len(attr)-1]
		if value == "" || strings.HasPrefix(value, proxyBase) {
			return attr
		}
		resolved, ok := resolveReference(value, basePath)
		if !ok {
			resolved = value
		}
		return `URI="` + proxiedURL(proxyBase, resolved) + `"`
	})
}

// isReferenceLine reports whether a line is a media or variant
// reference that should be proxied: non-empty, not a tag or comment,
// and not already pointing at the proxy.
func isReferenceLine(line, proxyBase string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	return !strings.HasPrefix(trimmed, proxyBase)
}

// resolveReference turns a playlist reference into an absolute URL.
// Absolute references pass through, scheme-relative ones are upgraded
// to https, and everything else resolves against the playlist's base
// path.
func resolveReference(ref, basePath string) (string, bool) {
	if ref == "" {
		return "", false
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, true
	}
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref, true
	}
	base, err := url.Parse(basePath)
	if err != nil {
		return "", false
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(rel).String(), true
}

// playlistBasePath returns the target URL up to and including its final
// slash, the base against which relative references resolve.
func playlistBasePath(targetURL string) string {
	if i := strings.LastIndex(targetURL, "/"); i >= 0 {
		return targetURL[:i+1]
	}
	return targetURL
}

func proxiedURL(proxyBase, target string) string {
	return proxyBase + "?url=" + url.QueryEscape(target)
}
