// Package embedding holds what the provider adapters share: request rate
// limiting, input validation, language tagging and mapping transport
// failures to domain.ErrProviderUnavailable.
//
// Provider implementations live in the ollama and openai subpackages.
package embedding
