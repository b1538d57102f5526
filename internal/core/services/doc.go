// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Indexing, retrieval, planning and answer synthesis live here;
// storage, embedding and language models are reached through ports.
package services
