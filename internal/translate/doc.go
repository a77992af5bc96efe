// Package translate appends Simplified Chinese translations to
// newsletter content blocks via the DeepSeek chat completion API.
//
// Blocks are batched into marked segments ([P1], [P2], ...) so one
// completion request covers many blocks, and the marked response is
// split back onto the originating blocks. Blocks that are too short,
// already Chinese, or carry no prose are left untouched.
package translate
