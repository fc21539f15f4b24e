package mcpserver

import (
	"encoding/json"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the MCP registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository locates the source code.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes one way to install and start the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	Version          string     `json:"version,omitempty"`
	RuntimeHint      string     `json:"runtimeHint,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport names the wire the server speaks.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest returns the server.json for version, published both as a
// Go module and as a container image.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}
	stdio := Transport{Type: "stdio"}
	args := []Argument{{Type: "positional", Value: "mcp"}}

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/pyscan",
		Title:       "pyscan",
		Description: "Python static analysis for secrets, dangerous calls, swallowed exceptions and code metrics",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/pyscan",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       "ghcr.io/panbanda/pyscan:" + version,
				PackageArguments: args,
				Transport:        stdio,
			},
			{
				RegistryType:     "go",
				Identifier:       "github.com/panbanda/pyscan/cmd/pyscan",
				Version:          version,
				RuntimeHint:      "go run",
				PackageArguments: args,
				Transport:        stdio,
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
