package relay

// Inbound caller headers are replaced wholesale, not forwarded. The
// upstream request carries this fixed browser-like set, then any
// policy overrides for the target host, then the caller's Range header
// when present. Later entries win.
func defaultUpstreamHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

func buildUpstreamHeaders(policy *HeaderPolicy, hostname, rangeHeader string) map[string]string {
	headers := defaultUpstreamHeaders()
	for key, value := range policy.Resolve(hostname) {
		headers[key] = value
	}
	if rangeHeader != "" {
		headers["Range"] = rangeHeader
	}
	return headers
}
