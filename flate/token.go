package flate

// A Token is either a literal byte or a back-reference match, packed into a
// single uint32 so that token streams can be built and scanned without
// pointer-chasing. Bit 30 selects the kind; the remaining bits hold either
// the literal byte or the match's length/offset fields.
type Token uint32

const (
	literalType = 0 << 30
	matchType   = 1 << 30

	// matchType packing, counted from bit 0: offset occupies the low 22
	// bits (biased by -1), length occupies the next 8 bits (biased by -3).
	lengthShift = 22
	offsetMask  = 1<<lengthShift - 1
	typeMask    = 1 << 30

	baseMatchLength = 3
	baseMatchOffset = 1

	maxMatchLength = 258
	maxMatchOffset = 1 << 15
)

// literalToken packs a literal byte into a Token.
func literalToken(lit byte) Token {
	return Token(literalType + uint32(lit))
}

// matchToken packs a match of the given length (actual length, not biased)
// and offset (actual offset, not biased) into a Token.
//
// The natural way to write this expression is
//
//	matchType + xlength<<lengthShift + xoffset
//
// which in Go binds as (matchType + (xlength << lengthShift)) + xoffset —
// `+` has lower precedence than `<<`, so there is no ambiguity here despite
// how easy it is to misread at a glance when the terms are renamed. This
// implementation keeps the grouping explicit.
func matchToken(length, offset uint32) Token {
	xlength := length - baseMatchLength
	xoffset := offset - baseMatchOffset
	return Token(matchType + (xlength << lengthShift) + xoffset)
}

func (t Token) isLiteral() bool { return t&typeMask == literalType }

func (t Token) literal() byte { return byte(t) }

// length returns the actual match length (not biased).
func (t Token) length() uint32 { return uint32(t>>lengthShift)&0xff + baseMatchLength }

// offset returns the actual match offset (not biased).
func (t Token) offset() uint32 { return uint32(t)&offsetMask + baseMatchOffset }

// RFC 1951 §3.2.5: length and distance extra-bit/base tables, 0-indexed by
// (length-3) and (distance-1) respectively after lengthCode/offsetCode map
// them onto a symbol.
const (
	lengthCodesStart = 257
	endBlockMarker   = 256
	maxNumLit        = 286
	offsetCodeCount  = 30
	codegenCodeCount = 19
	badCode          = 255
)

var lengthExtraBits = [32]int8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

var lengthBase = [32]uint32{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28,
	32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 255,
}

var offsetExtraBits = [30]int8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

var offsetBase = [30]uint32{
	0x000000, 0x000001, 0x000002, 0x000003, 0x000004,
	0x000006, 0x000008, 0x00000c, 0x000010, 0x000018,
	0x000020, 0x000030, 0x000040, 0x000060, 0x000080,
	0x0000c0, 0x000100, 0x000180, 0x000200, 0x000300,
	0x000400, 0x000600, 0x000800, 0x000c00, 0x001000,
	0x001800, 0x002000, 0x003000, 0x004000, 0x006000,
}

// lengthCode maps an actual match length (3..258) to its RFC 1951
// length-symbol offset from lengthCodesStart.
func lengthCode(length uint32) uint32 {
	bias := length - baseMatchLength
	if bias >= uint32(len(lengthCodesTab)) {
		bias = uint32(len(lengthCodesTab)) - 1
	}
	return uint32(lengthCodesTab[bias])
}

// offsetCode maps an actual match offset (1..32768) to its RFC 1951
// distance-symbol index.
func offsetCode(offset uint32) uint32 {
	bias := offset - baseMatchOffset
	return uint32(offsetCodesTab[bias])
}

// lengthCodesTab[length] gives the length-symbol offset for every possible
// biased length 0..255 (i.e. actual length 3..258). offsetCodesTab does the
// same for every possible biased offset 0..32767. Both are built once at
// init time from lengthBase/offsetBase rather than hand-transcribed, so
// they cannot drift out of sync with the base tables above.
var lengthCodesTab [256]uint8
var offsetCodesTab [maxMatchOffset]uint8

// numLengthCodes is the number of length-base entries that are actually
// meaningful; lengthBase/lengthExtraBits are declared [32]-sized to match
// the teacher's own padding convention, but only the first 29 entries are
// real RFC 1951 length codes.
const numLengthCodes = 29

func init() {
	var code uint32
	for length := uint32(0); length < uint32(len(lengthCodesTab)); length++ {
		for code+1 < numLengthCodes && lengthBase[code+1] <= length {
			code++
		}
		lengthCodesTab[length] = uint8(code)
	}

	code = 0
	for off := uint32(0); off < uint32(len(offsetCodesTab)); off++ {
		for code+1 < offsetCodeCount && offsetBase[code+1] <= off {
			code++
		}
		offsetCodesTab[off] = uint8(code)
	}
}

// codegenOrder is the RFC 1951 §3.2.7 permutation in which code-length-code
// lengths are transmitted in a dynamic block header: trailing zero lengths
// in this order can be dropped by declaring a shorter HCLEN.
var codegenOrder = []int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
