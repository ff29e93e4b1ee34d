package flate

// BlockType identifies which RFC 1951 block representation a BlockWriter
// chose to emit.
type BlockType string

const (
	StoredBlock  BlockType = "stored"
	FixedBlock   BlockType = "fixed"
	DynamicBlock BlockType = "dynamic"
)

// Stats reports the outcome of one WriteBlock*/WriteBlockHuff call: which
// representation was chosen and how many bits it occupied. It is a
// side-channel for callers (the CLI's summary line, tests), not part of the
// wire format.
type Stats struct {
	Type BlockType
	Bits int64
}

const maxStoreBlockSize = 65535

// BlockWriter turns a token stream into an RFC 1951 DEFLATE block, choosing
// among stored, fixed-Huffman, and dynamic-Huffman representations by
// comparing their encoded bit lengths, and serializing the winner to a Sink.
//
// A BlockWriter owns a bitWriter and the three Huffman encoders (literal,
// offset, code-length-code) that dynamic blocks need; all four are reused
// across calls via Reset rather than reallocated per block.
type BlockWriter struct {
	bw *bitWriter

	literalEncoding *huffmanEncoder
	offsetEncoding  *huffmanEncoder
	codegenEncoding *huffmanEncoder

	literalFreq [maxNumLit]int32
	offsetFreq  [offsetCodeCount]int32
	codegenFreq [codegenCodeCount]int32

	// codegen holds the RLE-compressed code-length sequence built by
	// generateCodegen, terminated by badCode.
	codegen [maxNumLit + offsetCodeCount + 1]uint8
}

// NewBlockWriter returns a BlockWriter that drains to sink.
func NewBlockWriter(sink Sink) *BlockWriter {
	w := &BlockWriter{
		bw:              newBitWriter(sink),
		literalEncoding: newHuffmanEncoder(maxNumLit),
		offsetEncoding:  newHuffmanEncoder(offsetCodeCount),
		codegenEncoding: newHuffmanEncoder(codegenCodeCount),
	}
	return w
}

// Reset rebinds w to a new sink and clears the pending bits, staged bytes
// and sticky error, so a BlockWriter can be reused across unrelated streams
// without reallocating its Huffman tables. The frequency tables and Huffman
// encoders are left as they are; every WriteBlock*/WriteBlockHuff call
// rebuilds them.
func (w *BlockWriter) Reset(sink Sink) {
	w.bw.reset(sink)
}

// Err returns the first error seen writing to the Sink, if any. Once set,
// every WriteBlock*/WriteBlockHuff call returns it without writing and Flush
// writes nothing, until Reset clears it.
func (w *BlockWriter) Err() error { return w.bw.err }

// Flush pads the current byte with zero bits and pushes any buffered bytes
// to the Sink. It must be called after the last WriteBlock*/WriteBlockHuff
// call in a stream. DEFLATE blocks are not byte-aligned, so blocks of one
// stream follow each other with no Flush between them; the WriteBlock*
// methods never flush on their own, apart from the byte alignment a stored
// block's header requires.
func (w *BlockWriter) Flush() {
	w.bw.flush()
}

// indexTokens builds literalFreq/offsetFreq histograms over tokens and
// returns the number of literal/length symbols and offset symbols actually
// in use — i.e. one past the highest symbol with non-zero frequency. The
// end-of-block marker (symbol 256) is not itself a Token — a literal Token
// only has room for a real byte value in its low 8 bits — so its count is
// added here directly rather than by scanning for a sentinel entry in
// tokens.
//
// The frequency tables are fixed-size array fields, not slices the loop
// below reassigns a view into; that is deliberate. A version of this
// function that walks a slice and narrows it as it finds trailing zeros
// shares backing storage with the caller's next reset and can silently
// read stale counts if the reset is skipped — indexing into the arrays in
// place has no such failure mode.
func (w *BlockWriter) indexTokens(tokens []Token) (numLiterals, numOffsets int) {
	for i := range w.literalFreq {
		w.literalFreq[i] = 0
	}
	for i := range w.offsetFreq {
		w.offsetFreq[i] = 0
	}

	for _, t := range tokens {
		if t.isLiteral() {
			w.literalFreq[t.literal()]++
			continue
		}
		length := t.length()
		offset := t.offset()
		w.literalFreq[lengthCodesStart+lengthCode(length)]++
		w.offsetFreq[offsetCode(offset)]++
	}
	w.literalFreq[endBlockMarker]++

	numLiterals = len(w.literalFreq)
	for numLiterals > 0 && w.literalFreq[numLiterals-1] == 0 {
		numLiterals--
	}
	numOffsets = len(w.offsetFreq)
	for numOffsets > 0 && w.offsetFreq[numOffsets-1] == 0 {
		numOffsets--
	}
	if numOffsets == 0 {
		// RFC 1951 requires at least one offset code to be present in a
		// dynamic header even if no match ever used it.
		w.offsetFreq[0] = 1
		numOffsets = 1
	}
	return numLiterals, numOffsets
}

// extraBitSize sums the extra bits every match token in tokens will need,
// independent of which Huffman code ends up assigned to it — this is the
// same for fixed and dynamic encoding, so it is computed once and added to
// both size estimates.
func extraBitSize(tokens []Token) int64 {
	var n int64
	for _, t := range tokens {
		if t.isLiteral() {
			continue
		}
		n += int64(lengthExtraBits[lengthCode(t.length())])
		n += int64(offsetExtraBits[offsetCode(t.offset())])
	}
	return n
}

func (w *BlockWriter) fixedSize(extraBits int64) int64 {
	return 3 + fixedLiteralEncoding.bitLength(w.literalFreq[:]) +
		fixedOffsetEncoding.bitLength(w.offsetFreq[:]) +
		extraBits
}

// dynamicSize builds the codegen RLE and codegen Huffman code from the
// current literal/offset encodings, and returns the total bit length of a
// dynamic block using them plus how many of the 19 codegen code lengths
// must actually be transmitted in the header.
func (w *BlockWriter) dynamicSize(extraBits int64) (size int64, numCodegens int) {
	numLiterals, numOffsets := 0, 0
	for i, f := range w.literalFreq {
		if f != 0 {
			numLiterals = i + 1
		}
	}
	for i, f := range w.offsetFreq {
		if f != 0 {
			numOffsets = i + 1
		}
	}
	return w.sizeUsingCodegen(numLiterals, numOffsets, w.literalEncoding, w.offsetEncoding, extraBits)
}

// sizeUsingCodegen builds the codegen RLE and codegen Huffman code for the
// given literal/offset encodings and returns the total dynamic-block bit
// length plus the trimmed HCLEN count. It is shared by dynamicSize (real
// match offsets) and WriteBlockHuff (the process-wide single-symbol offset
// encoder), which differ only in which encoders they hand in.
func (w *BlockWriter) sizeUsingCodegen(numLiterals, numOffsets int, litEnc, offEnc *huffmanEncoder, extraBits int64) (size int64, numCodegens int) {
	w.generateCodegen(numLiterals, numOffsets, litEnc, offEnc)

	numCodegens = len(w.codegenFreq)
	for numCodegens > 4 && w.codegenFreq[codegenOrder[numCodegens-1]] == 0 {
		numCodegens--
	}
	w.codegenEncoding.generate(w.codegenFreq[:], 7)

	size = 3 + 5 + 5 + 4 + 3*int64(numCodegens) +
		w.codegenEncoding.bitLength(w.codegenFreq[:]) +
		int64(w.codegenFreq[16])*2 +
		int64(w.codegenFreq[17])*3 +
		int64(w.codegenFreq[18])*7 +
		litEnc.bitLength(w.literalFreq[:numLiterals]) +
		offEnc.bitLength(w.offsetFreq[:numOffsets]) +
		extraBits
	return size, numCodegens
}

func (w *BlockWriter) storedSize(input []byte) (size int64, storable bool) {
	if input == nil || len(input) > maxStoreBlockSize {
		return 0, false
	}
	return int64(len(input)+5) * 8, true
}

// generateCodegen run-length-encodes the concatenated literal and offset
// code lengths per RFC 1951 §3.2.7: symbol 16 repeats the previous length
// 3-6 times, 17 repeats a zero length 3-10 times, 18 repeats a zero length
// 11-138 times, and everything else passes a literal length through
// unchanged. The result is left in w.codegen, terminated by badCode, with
// w.codegenFreq updated to match.
func (w *BlockWriter) generateCodegen(numLiterals, numOffsets int, litEnc, offEnc *huffmanEncoder) {
	for i := range w.codegenFreq {
		w.codegenFreq[i] = 0
	}

	codegen := w.codegen[:]
	for i := 0; i < numLiterals; i++ {
		codegen[i] = uint8(litEnc.codes[i].len)
	}
	for i := 0; i < numOffsets; i++ {
		codegen[numLiterals+i] = uint8(offEnc.codes[i].len)
	}
	size := numLiterals + numOffsets
	codegen[size] = badCode

	outIndex := 0
	for inIndex := 0; inIndex < size; {
		freq := codegen[inIndex]
		runLength := 1
		for inIndex+runLength < size && codegen[inIndex+runLength] == freq {
			runLength++
		}
		inIndex += runLength

		if freq == 0 {
			for runLength >= 11 {
				n := min(runLength, 138)
				codegen[outIndex] = 18
				codegen[outIndex+1] = uint8(n - 11)
				outIndex += 2
				w.codegenFreq[18]++
				runLength -= n
			}
			if runLength >= 3 {
				n := min(runLength, 10)
				codegen[outIndex] = 17
				codegen[outIndex+1] = uint8(n - 3)
				outIndex += 2
				w.codegenFreq[17]++
				runLength -= n
			}
			for ; runLength > 0; runLength-- {
				codegen[outIndex] = 0
				outIndex++
				w.codegenFreq[0]++
			}
			continue
		}

		codegen[outIndex] = freq
		outIndex++
		w.codegenFreq[freq]++
		runLength--
		for runLength >= 3 {
			n := min(runLength, 6)
			codegen[outIndex] = 16
			codegen[outIndex+1] = uint8(n - 3)
			outIndex += 2
			w.codegenFreq[16]++
			runLength -= n
		}
		for ; runLength > 0; runLength-- {
			codegen[outIndex] = freq
			outIndex++
			w.codegenFreq[freq]++
		}
	}
	codegen[outIndex] = badCode
}

func (w *BlockWriter) writeStoredHeader(length int, isEof bool) {
	var flag int32
	if isEof {
		flag = 1
	}
	w.bw.writeBits(flag, 3)
	w.bw.flush()
	w.bw.writeBits(int32(length), 16)
	w.bw.writeBits(int32(^uint16(length)), 16)
}

func (w *BlockWriter) writeFixedHeader(isEof bool) {
	var firstBits int32 = 2
	if isEof {
		firstBits = 3
	}
	w.bw.writeBits(firstBits, 3)
}

func (w *BlockWriter) writeDynamicHeader(numLiterals, numOffsets, numCodegens int, isEof bool) {
	var firstBits int32 = 4
	if isEof {
		firstBits = 5
	}
	w.bw.writeBits(firstBits, 3)
	w.bw.writeBits(int32(numLiterals-257), 5)
	w.bw.writeBits(int32(numOffsets-1), 5)
	w.bw.writeBits(int32(numCodegens-4), 4)

	for i := 0; i < numCodegens; i++ {
		value := w.codegenEncoding.codes[codegenOrder[i]].len
		w.bw.writeBits(int32(value), 3)
	}

	i := 0
	for {
		codeWord := uint32(w.codegen[i])
		i++
		if codeWord == badCode {
			break
		}
		w.bw.writeCode(w.codegenEncoding.codes[codeWord])
		switch codeWord {
		case 16:
			w.bw.writeBits(int32(w.codegen[i]), 2)
			i++
		case 17:
			w.bw.writeBits(int32(w.codegen[i]), 3)
			i++
		case 18:
			w.bw.writeBits(int32(w.codegen[i]), 7)
			i++
		}
	}
}

// writeTokens emits the literal/match tokens using the given code tables.
// leCodes must cover at least every literal/length symbol in use; oeCodes
// every offset symbol in use.
func (w *BlockWriter) writeTokens(tokens []Token, leCodes, oeCodes []hcode) {
	for _, t := range tokens {
		if t.isLiteral() {
			w.bw.writeCode(leCodes[t.literal()])
			continue
		}
		length := t.length()
		lc := lengthCode(length)
		w.bw.writeCode(leCodes[lengthCodesStart+lc])
		if extra := uint(lengthExtraBits[lc]); extra > 0 {
			w.bw.writeBits(int32((length-baseMatchLength)-lengthBase[lc]), extra)
		}

		offset := t.offset()
		oc := offsetCode(offset)
		w.bw.writeCode(oeCodes[oc])
		if extra := uint(offsetExtraBits[oc]); extra > 0 {
			w.bw.writeBits(int32((offset-baseMatchOffset)-offsetBase[oc]), extra)
		}
	}
}

// WriteBlock writes tokens as whichever of stored, fixed-Huffman, or
// dynamic-Huffman produces the fewest bits, appending input verbatim if
// stored wins. isEof marks this as the final block in the stream.
func (w *BlockWriter) WriteBlock(tokens []Token, isEof bool, input []byte) (Stats, error) {
	if w.bw.err != nil {
		return Stats{}, w.bw.err
	}
	numLiterals, numOffsets := w.indexTokens(tokens)
	extra := extraBitSize(tokens)

	storedSz, storable := w.storedSize(input)

	fixedSz := w.fixedSize(extra)

	w.literalEncoding.generate(w.literalFreq[:], 15)
	w.offsetEncoding.generate(w.offsetFreq[:], 15)
	dynamicSz, numCodegens := w.dynamicSize(extra)

	chosen := fixedSz
	chosenType := FixedBlock
	if dynamicSz < chosen {
		chosen = dynamicSz
		chosenType = DynamicBlock
	}
	if storable && storedSz < chosen {
		chosen = storedSz
		chosenType = StoredBlock
	}

	switch chosenType {
	case StoredBlock:
		w.writeStoredHeader(len(input), isEof)
		w.bw.writeBytes(input)
	case FixedBlock:
		w.writeFixedHeader(isEof)
		w.writeTokens(tokens, fixedLiteralEncoding.codes, fixedOffsetEncoding.codes)
		w.bw.writeCode(fixedLiteralEncoding.codes[endBlockMarker])
	case DynamicBlock:
		w.writeDynamicHeader(numLiterals, numOffsets, numCodegens, isEof)
		w.writeTokens(tokens, w.literalEncoding.codes, w.offsetEncoding.codes)
		w.bw.writeCode(w.literalEncoding.codes[endBlockMarker])
	}
	return Stats{Type: chosenType, Bits: chosen}, w.bw.err
}

// WriteBlockDynamic writes tokens as a dynamic-Huffman block unless a
// stored block would be smaller than the dynamic size plus 1/16 of it, in
// which case it writes a stored block instead.
//
// The test is `storedSz < dynamicSz + dynamicSz>>4`: the 1/16 slack is
// added on the dynamic side, so stored also wins when it is up to about 6%
// larger than dynamic, and dynamic is kept only when it beats stored by
// more than that. This is not the same as `storedSz + storedSz>>4 <
// dynamicSz`, which would keep dynamic unless stored were about 6% smaller;
// the two differ whenever the sizes are close.
func (w *BlockWriter) WriteBlockDynamic(tokens []Token, isEof bool, input []byte) (Stats, error) {
	if w.bw.err != nil {
		return Stats{}, w.bw.err
	}
	numLiterals, numOffsets := w.indexTokens(tokens)
	extra := extraBitSize(tokens)

	w.literalEncoding.generate(w.literalFreq[:], 15)
	w.offsetEncoding.generate(w.offsetFreq[:], 15)
	dynamicSz, numCodegens := w.dynamicSize(extra)

	storedSz, storable := w.storedSize(input)
	if storable && storedSz < dynamicSz+(dynamicSz>>4) {
		w.writeStoredHeader(len(input), isEof)
		w.bw.writeBytes(input)
		return Stats{Type: StoredBlock, Bits: storedSz}, w.bw.err
	}

	w.writeDynamicHeader(numLiterals, numOffsets, numCodegens, isEof)
	w.writeTokens(tokens, w.literalEncoding.codes, w.offsetEncoding.codes)
	w.bw.writeCode(w.literalEncoding.codes[endBlockMarker])
	return Stats{Type: DynamicBlock, Bits: dynamicSz}, w.bw.err
}

// WriteBlockHuff encodes input as literal tokens only (no match-finding, no
// distance codes at all) using a dynamic Huffman code built fresh from
// input's own byte histogram — cheaper than running the match-finder when
// the caller already knows the input won't compress well (already-compressed
// data, small inputs), while still adapting the code to this input's actual
// byte distribution rather than falling back to the RFC-fixed tables. The
// dynamic header's offset table is always the single-symbol
// process-wide huffOffset, since there are no match tokens to need a real
// one. It still falls back to stored under the same 1/16th dynamic-side
// margin as WriteBlockDynamic.
func (w *BlockWriter) WriteBlockHuff(isEof bool, input []byte) (Stats, error) {
	if w.bw.err != nil {
		return Stats{}, w.bw.err
	}
	for i := range w.literalFreq {
		w.literalFreq[i] = 0
	}
	for i := range w.offsetFreq {
		w.offsetFreq[i] = 0
	}
	for _, b := range input {
		w.literalFreq[b]++
	}
	w.literalFreq[endBlockMarker] = 1

	const numLiterals = endBlockMarker + 1
	const numOffsets = 1

	w.literalEncoding.generate(w.literalFreq[:numLiterals], 15)

	dynamicSz, numCodegens := w.sizeUsingCodegen(numLiterals, numOffsets, w.literalEncoding, huffOffset, 0)

	storedSz, storable := w.storedSize(input)
	if storable && storedSz < dynamicSz+(dynamicSz>>4) {
		w.writeStoredHeader(len(input), isEof)
		w.bw.writeBytes(input)
		return Stats{Type: StoredBlock, Bits: storedSz}, w.bw.err
	}

	w.writeDynamicHeader(numLiterals, numOffsets, numCodegens, isEof)
	encoding := w.literalEncoding.codes[:numLiterals]
	for _, b := range input {
		w.bw.writeCode(encoding[b])
	}
	w.bw.writeCode(encoding[endBlockMarker])
	return Stats{Type: DynamicBlock, Bits: dynamicSz}, w.bw.err
}
