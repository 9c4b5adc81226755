// Package configs provides the embedded configuration template for
// hybridrag. Embedding at build time keeps the template available in every
// distribution, source builds and binary releases alike.
package configs

import _ "embed"

// ConfigTemplate is the annotated starter configuration.
// Created by `hybridrag init` as ./hybridrag.yaml.
//
//go:embed hybridrag.example.yaml
var ConfigTemplate string
