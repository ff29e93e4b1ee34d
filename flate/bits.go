// Package flate implements the RFC 1951 DEFLATE block format: Huffman code
// construction, code-length-code compression, and bit-exact serialization of
// stored, fixed-Huffman, and dynamic-Huffman blocks. It does not implement
// decoding, or zlib/gzip framing around the blocks it writes.
package flate

import "math/bits"

// maxBitsLimit bounds the code length the Huffman generator will ever
// produce. RFC 1951 caps literal/length and distance codes at 15 bits;
// the leafCounts bookkeeping in generate needs one extra row above that.
const maxBitsLimit = 16

// reverseBits returns the low nb bits of code with their bit order reversed,
// which is how RFC 1951 requires Huffman codes to be packed: codes are
// assigned in natural (MSB-first) order but stored and emitted LSB-first.
func reverseBits(code uint16, nb byte) uint16 {
	return bits.Reverse16(code) >> (16 - nb)
}
