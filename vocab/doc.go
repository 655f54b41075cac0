// Package vocab maps tokens to dense integer indexes and back.
//
// Every Vocab starts with the special tokens [PAD], [SOS], [EOS] and [SEP]
// at indexes 0 to 3. Lookups of unknown tokens or out-of-range indexes fail
// with a TOKEN_NOT_FOUND error.
package vocab
