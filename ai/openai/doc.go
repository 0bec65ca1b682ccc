// Package openai implements the ai interfaces against OpenAI-compatible
// embedding APIs via langchaingo.
//
// Any service exposing the OpenAI embeddings endpoint works: Ollama,
// LocalAI, vLLM, or OpenAI itself. Authentication defaults to a dummy
// token since local services don't check it.
package openai
