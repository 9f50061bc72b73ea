package realtime

import (
	"fmt"
	"strings"
)

// DefaultPort is the realtime server port used when no explicit URL is
// configured.
const DefaultPort = 8090

// RewriteHost maps non-routable bind placeholders to a host a client can
// actually dial. Servers often advertise their bind address (0.0.0.0) in
// config; dialing that from a client fails.
func RewriteHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		return "localhost"
	}
	return host
}

// ResolveEndpoint picks the websocket endpoint. An explicit URL wins and is
// used as configured (http/https schemes are translated to ws/wss);
// otherwise the endpoint is built from host and port, with the host run
// through RewriteHost.
func ResolveEndpoint(explicitURL, host string, port int) string {
	if explicitURL != "" {
		return wsURL(explicitURL)
	}
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("ws://%s:%d/ws", RewriteHost(host), port)
}

func wsURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}
