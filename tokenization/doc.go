// Package tokenization splits text into string tokens and joins them back.
//
// Tokenizers are plain values; Stage and UntokenizeStage lift them into
// pipeline stages that work on slices of sentences.
//
//	p := pipeline.Chain(source, tokenization.Stage(tokenization.Whitespace{}))
package tokenization
