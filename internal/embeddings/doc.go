// Package embeddings provides dense text embeddings via multiple providers.
//
// Supports FastEmbed (local ONNX, cgo builds only) and TEI (HTTP sidecar).
// Both embed queries and passages into the same space without instruction
// prefixes, so a query vector is directly comparable to section vectors.
package embeddings
