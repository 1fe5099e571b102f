// Package config loads httptape.yaml (or httptape.json) and turns it into the
// objects the session controller needs.
//
// A configuration file looks like:
//
//	fixtures: testdata/fixtures
//	format: yaml
//	verbose: false
//	log:
//	  level: info
//	capture:
//	  excludeHosts: ["telemetry.*"]
//	redact:
//	  - cookies: true
//	  - hosts: ["api.example.com"]
//	    headers: [Authorization]
//	    jsonPaths: ["$.token"]
//	  - when: 'path startsWith "/admin"'
//	    replace:
//	      - from: "[0-9]{16}"
//	        to: "CARD"
//	        regexp: true
//
// Files are validated against an embedded JSON Schema before decoding, and
// ${VAR} or ${VAR:-default} references are expanded from the environment.
// An absent redact list keeps the built-in cookie redaction; a present one
// replaces it.
package config
