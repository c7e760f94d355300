// Package config loads jardin configuration.
//
// # Gateway Configuration
//
// The gateway reads YAML. Path resolution (first match wins):
//
//  1. JARDIN_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/jardin/gateway.yaml
//  3. ~/.config/jardin/gateway.yaml
//
// Values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${JARDIN_JWT_SECRET}"
//
// A full file:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
//	database:
//	  path: "/var/lib/jardin/gateway.db"   # JARDIN_DB_PATH overrides
//
//	auth:
//	  jwt_secret: "${JARDIN_JWT_SECRET}"   # at least 32 bytes
//
//	live:
//	  ping_interval: "30s"
//	  pong_wait: "60s"
//
//	tailscale:
//	  enabled: false
//	  hostname: "jardin"
//	  auth_key: "${TS_AUTHKEY}"
//	  state_dir: "/var/lib/jardin/tsnet"
//	  ephemeral: false
//	  funnel: false
//
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "text"    # text or json
//
// Durations use time.ParseDuration syntax.
//
// # Client Configuration
//
// jardin-tui reads TOML from ~/.config/jardin/client.toml. The file is
// optional; JARDIN_API_URL and JARDIN_TOKEN override it.
//
//	[api]
//	url = "https://jardin.example.com"
//
//	[session]
//	token = "${JARDIN_TOKEN}"
//
//	[channel]
//	max_reconnect_attempts = 5
//	reconnect_delay = "2s"
//
//	[logging]
//	level = "warn"
package config
