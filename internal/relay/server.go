package relay

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	playlistContentType  = "application/vnd.apple.mpegurl"
	playlistCacheControl = "public, max-age=300"

	relayUsage   = "GET /?url=<absolute media URL>"
	relayExample = "/?url=https%3A%2F%2Fexample.com%2Fstream%2Findex.m3u8"
)

// Response headers copied through from the upstream on opaque
// forwards, when present.
var forwardedResponseHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
}

type ServerOptions struct {
	Upstream *UpstreamClient
	Recorder Recorder
}

// NewRelayRouter builds the single-route relay. Every response,
// success or error, carries the permissive CORS set.
func NewRelayRouter(options ServerOptions) *gin.Engine {
	if options.Upstream == nil {
		options.Upstream = NewUpstreamClient(nil, DefaultUpstreamTimeout)
	}
	router := gin.Default()
	router.Any("/*any", func(c *gin.Context) {
		handleRelay(c, options)
	})
	return router
}

func handleRelay(c *gin.Context, options ServerOptions) {
	setCORSHeaders(c.Writer.Header())

	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodPost:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "method_not_allowed",
			"usage": relayUsage,
		})
		return
	}

	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_url",
			"usage":   relayUsage,
			"example": relayExample,
		})
		return
	}
	target, err := url.Parse(rawURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_url",
			"usage":   relayUsage,
			"example": relayExample,
		})
		return
	}

	started := time.Now()
	resp, err := options.Upstream.Fetch(c.Request.Context(), c.Request.Method, target, c.GetHeader("Range"))
	if err != nil {
		log.Printf("upstream fetch failed: %v", err)
		recordExchange(options.Recorder, c, target, 0, 0, started, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "fetch_failed",
			"message": err.Error(),
			"target":  target.String(),
		})
		return
	}
	defer resp.Body.Close()

	if isPlaylist(target, resp.Header.Get("Content-Type")) {
		relayPlaylist(c, options, target, resp, started)
		return
	}
	relayOpaque(c, options, target, resp, started)
}

// relayPlaylist buffers the playlist body, rewrites its references to
// route back through this proxy, and responds with a short public
// cache lifetime.
func relayPlaylist(c *gin.Context, options ServerOptions, target *url.URL, resp *http.Response, started time.Time) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("playlist read failed: %v", err)
		recordExchange(options.Recorder, c, target, resp.StatusCode, 0, started, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "playlist_read_failed",
			"message": err.Error(),
			"target":  target.String(),
		})
		return
	}

	rewritten := RewritePlaylist(string(body), proxyBaseURL(c.Request), target.String())
	c.Header("Cache-Control", playlistCacheControl)
	c.Data(http.StatusOK, playlistContentType, []byte(rewritten))
	recordExchange(options.Recorder, c, target, http.StatusOK, int64(len(rewritten)), started, nil)
}

// relayOpaque streams the upstream body through unmodified, preserving
// the upstream status (partial content included) and the range-related
// response headers.
func relayOpaque(c *gin.Context, options ServerOptions, target *url.URL, resp *http.Response, started time.Time) {
	for _, name := range forwardedResponseHeaders {
		if value := resp.Header.Get(name); value != "" {
			c.Header(name, value)
		}
	}
	c.Status(resp.StatusCode)
	written, err := io.Copy(c.Writer, resp.Body)
	if err != nil {
		// Status already sent; nothing left but to log.
		log.Printf("body relay failed after %d bytes: %v", written, err)
	}
	recordExchange(options.Recorder, c, target, resp.StatusCode, written, started, err)
}

// isPlaylist classifies the upstream response: either the target path
// carries the playlist extension or the upstream declared the HLS
// media type. Variant playlists referenced from a master playlist are
// not special-cased; their rewritten URLs re-enter this classification
// on the follow-up request.
func isPlaylist(target *url.URL, contentType string) bool {
	if strings.HasSuffix(strings.ToLower(target.Path), ".m3u8") {
		return true
	}
	return strings.Contains(strings.ToLower(contentType), "mpegurl")
}

// proxyBaseURL reconstructs this proxy's own URL from the inbound
// request so rewritten references route back here.
func proxyBaseURL(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + req.Host + req.URL.Path
}

func setCORSHeaders(headers http.Header) {
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	headers.Set("Access-Control-Allow-Headers", "Content-Type, Range, Authorization")
	headers.Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
}

// recordExchange appends one diagnostics row when recording is
// enabled. Failures are logged and swallowed; recording never affects
// the response.
func recordExchange(recorder Recorder, c *gin.Context, target *url.URL, status int, bytes int64, started time.Time, failure error) {
	if recorder == nil {
		return
	}
	exchange := Exchange{
		At:       started,
		Method:   c.Request.Method,
		Target:   target.String(),
		Status:   status,
		Bytes:    bytes,
		Duration: time.Since(started),
	}
	if failure != nil {
		exchange.Error = failure.Error()
	}
	if err := recorder.Record(c.Request.Context(), exchange); err != nil {
		log.Printf("record exchange failed: %v", err)
	}
}
