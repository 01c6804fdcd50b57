// Package domain contains the core business entities and errors for the
// ragpipe retrieval-augmented generation pipeline. It has no dependencies
// on infrastructure; adapters translate to and from these types.
package domain
