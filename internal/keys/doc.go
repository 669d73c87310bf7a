// Package keys generates the fixed-width random names used for documents and stored assets.
//
// Paths are built by concatenation (albums/<key>.json, images/<key>.jpg), so every key has
// the same length and alphabet. Randomness comes from github.com/google/uuid.
package keys
