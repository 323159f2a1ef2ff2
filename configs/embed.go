// Package configs provides embedded configuration templates for ragsift.
//
// Templates are embedded at build time with go:embed so they ship in
// every distribution, source builds included. `ragsift config init`
// writes them out; the hierarchy they feed is described in
// internal/config (defaults, then user config, then project config,
// then RAGSIFT_* environment variables).
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level
// configuration, written to ~/.config/ragsift/config.yaml by
// `ragsift config init`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level
// configuration, written to .ragsift.yaml in the project root by
// `ragsift config init --project`.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// CorpusTemplate is a minimal JSONL corpus document set for the local
// retrieval backend, used as the starting point for offline corpora.
//
//go:embed corpus.example.jsonl
var CorpusTemplate string
