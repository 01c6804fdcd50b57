// Package services contains the core pipeline logic: chunking documents
// into the vector index and answering questions against it. Services
// depend only on the driven ports, never on concrete adapters.
package services
