package main

import (
	"flag"
	"log"
	"time"

	"github.com/dkarun/hls-relay/internal/relay"
	"github.com/gin-gonic/gin"
)

func main() {
	listenAddr := flag.String("listen", ":8080", "Address to listen on")
	rulesPath := flag.String("rules", "", "Header policy rules JSON file (built-in table when empty)")
	upstreamTimeout := flag.Duration("upstream-timeout", relay.DefaultUpstreamTimeout, "Timeout for upstream fetches")
	recordPath := flag.String("record-path", "", "SQLite file for exchange diagnostics (disabled when empty)")
	recordTimeout := flag.Duration("record-timeout", 5*time.Second, "SQLite busy timeout")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)

	policy := relay.DefaultHeaderPolicy()
	if *rulesPath != "" {
		loaded, err := relay.NewHeaderPolicyFromFile(*rulesPath)
		if err != nil {
			log.Fatalf("header policy load failed: %v", err)
		}
		policy = loaded
	}

	var recorder relay.Recorder
	if *recordPath != "" {
		sqliteRecorder, err := relay.NewSQLiteRecorder(*recordPath, *recordTimeout)
		if err != nil {
			log.Fatalf("recorder init failed: %v", err)
		}
		defer func() {
			if closeErr := sqliteRecorder.Close(); closeErr != nil {
				log.Printf("recorder close failed: %v", closeErr)
			}
		}()
		recorder = sqliteRecorder
	}

	router := relay.NewRelayRouter(relay.ServerOptions{
		Upstream: relay.NewUpstreamClient(policy, *upstreamTimeout),
		Recorder: recorder,
	})

	if err := router.Run(*listenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
