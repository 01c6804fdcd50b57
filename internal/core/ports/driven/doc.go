// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the embedding backend, the vector index,
// and the generation backend. Services depend on these interfaces and
// receive concrete adapters at construction, so every backend can be
// substituted with a fake in tests.
package driven
