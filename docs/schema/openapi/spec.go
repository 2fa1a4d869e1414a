// Package openapi embeds the claimcore HTTP API description.
package openapi

import _ "embed"

//go:embed claimcore.yaml
var apiSpec []byte

// Spec returns a copy of the embedded OpenAPI YAML.
func Spec() []byte {
	return append([]byte(nil), apiSpec...)
}
