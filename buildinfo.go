package main

import (
	"fmt"
	"html"
	"net/http"
)

var (
	Version   = "dev" // default fallback
	Commit    = "none"
	BuildTime = "unknown"
)

func landingPageHandler(w http.ResponseWriter, r *http.Request) {
	info := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head><title>Build Info</title></head>
		<body>
			<h1>Speed Daemon</h1>
			<p><strong>Version:</strong> %s</p>
			<p><strong>Commit:</strong> %s</p>
			<p><strong>Build Time:</strong> %s</p>
			<p><a href="/metrics">Metrics</a></p>
		</body>
		</html>`, html.EscapeString(Version), html.EscapeString(Commit), html.EscapeString(BuildTime))
	w.Header().Set("Content-Type", "text/html")
	_, err := w.Write([]byte(info))
	LogWriteError(err)
}
