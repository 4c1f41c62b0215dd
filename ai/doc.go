// Package ai abstracts remote text-generation providers behind a
// uniform retryable interface.
//
// Concrete providers (OpenAI, Gemini, Anthropic) are selected from a
// string-keyed registry and share one cross-cutting policy: a per-call
// timeout, bounded exponential backoff on transient failures, and no
// retry on authentication or request errors. API keys are resolved from
// a reference ("env:NAME" or "keyring:service/user"), never stored in
// configuration.
package ai
