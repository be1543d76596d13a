// Package schemas embeds the JSON Schemas used to validate configuration
// files before they are loaded.
package schemas

import _ "embed"

// RoundSchemaJSON is the JSON Schema for round YAML files.
//
//go:embed round.schema.json
var RoundSchemaJSON string
