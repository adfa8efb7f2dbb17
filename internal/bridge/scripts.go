// File: internal/bridge/scripts.go
package bridge

import _ "embed"

//go:embed dom_map.js
var domMapScript string
