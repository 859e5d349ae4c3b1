// Package config loads the myway client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/myway/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	store = "local"                  # or "remote"
//	log_file = "~/.local/share/myway/myway.log"
//	log_level = "info"
//
//	[local]
//	path = "~/.local/share/myway/myway.db"
//	slot = "locations"
//
//	[remote]
//	url = "127.0.0.1:7488"
//	collection = "locations"
//	api_key = ""
//	timeout = "5s"
//
//	[country]
//	endpoint = "https://countries.trevorblades.com/graphql"
//	timeout = "5s"
//
//	[geolocation]
//	provider = "ip"                  # "ip", "static" or "denied"
//	latitude = -23.5505              # static provider only
//	longitude = -46.6333
//	endpoint = ""                    # ip provider override
//
// Every field is optional. Paths get tilde expansion and string values are
// trimmed. Durations use time.ParseDuration syntax.
//
// # Store Selection
//
// The store key picks the persistence backend injected at startup. The
// remote backend also makes country and currency required on the form and
// enables the currency lookup.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, malformed
// durations and unknown enumerated values. A missing file is not an error.
package config
