// Package api holds the OpenAPI description of the JSON surface.
package api

import _ "embed"

//go:embed openapi.yaml
var OpenAPI []byte
