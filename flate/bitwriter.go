package flate

// bitWriter accumulates bits LSB-first into a 64-bit word and drains whole
// bytes out of it into a staging buffer, which itself only reaches out to
// the underlying Sink in large chunks. Both levels of batching exist so that
// writeBits, which runs once per emitted symbol, never touches the Sink
// directly.
//
// The accumulator is kept genuinely 64-bit (not 32-bit) because a single
// writeBits call can add up to 16 bits at once (a stored block's raw length
// field; Huffman codes are at most 15 bits and extra-bit fields at most 13)
// while the accumulator can already be holding up to 47 unflushed bits, and
// 47+16 still fits in 64; 32-bit
// accumulators used by the same technique must flush far more eagerly, and
// getting that threshold wrong is a well-known source of corrupted output.
type bitWriter struct {
	sink Sink
	err  error

	bits  uint64
	nbits uint

	buf    [248]byte
	nbytes int
}

func newBitWriter(sink Sink) *bitWriter {
	return &bitWriter{sink: sink}
}

func (w *bitWriter) reset(sink Sink) {
	w.sink = sink
	w.err = nil
	w.bits = 0
	w.nbits = 0
	w.nbytes = 0
}

// writeBits appends the low nb bits of b, LSB-first, to the bit stream.
// b's high bits above nb must be zero.
func (w *bitWriter) writeBits(b int32, nb uint) {
	if w.err != nil {
		return
	}
	w.bits |= uint64(b) << w.nbits
	w.nbits += nb
	if w.nbits >= 48 {
		w.drainBits()
	}
}

// writeCode emits a Huffman code, whose bits are already stored in
// emission (reversed) order by the encoder.
func (w *bitWriter) writeCode(c hcode) {
	if w.err != nil {
		return
	}
	w.bits |= uint64(c.code) << w.nbits
	w.nbits += uint(c.len)
	if w.nbits >= 48 {
		w.drainBits()
	}
}

// drainBits moves whole bytes out of the 64-bit accumulator into the
// staging buffer. It runs whenever nbits has reached 48, which, given
// writeBits/writeCode never add more than 16 bits in a single call, can
// never overflow the 64-bit accumulator before drainBits gets a chance to
// run.
func (w *bitWriter) drainBits() {
	bits := w.bits
	w.bits >>= 48
	w.nbits -= 48
	n := w.nbytes
	w.buf[n+0] = byte(bits)
	w.buf[n+1] = byte(bits >> 8)
	w.buf[n+2] = byte(bits >> 16)
	w.buf[n+3] = byte(bits >> 24)
	w.buf[n+4] = byte(bits >> 32)
	w.buf[n+5] = byte(bits >> 40)
	w.nbytes += 6
	if w.nbytes >= 240 {
		w.flushBuffer()
	}
}

// flushBuffer writes the staging buffer to the Sink and resets it. It does
// not touch the unflushed bit accumulator.
func (w *bitWriter) flushBuffer() {
	if w.err != nil {
		w.nbytes = 0
		return
	}
	if _, err := w.sink.Write(w.buf[:w.nbytes]); err != nil {
		w.err = err
	}
	w.nbytes = 0
}

// writeBytes copies bytes verbatim into the stream. The bit accumulator
// must be byte-aligned (nbits % 8 == 0) before calling this, which holds
// for every call site: stored-block bodies and headers are only ever
// written right after a flush to a byte boundary.
func (w *bitWriter) writeBytes(bytes []byte) {
	if w.err != nil {
		return
	}
	if w.nbits%8 != 0 {
		panic("flate: writeBytes with unfinished bits")
	}
	for w.nbits != 0 {
		w.buf[w.nbytes] = byte(w.bits)
		w.bits >>= 8
		w.nbits -= 8
		w.nbytes++
		if w.nbytes >= 240 {
			w.flushBuffer()
		}
	}
	for len(bytes) > 0 {
		if w.nbytes >= 240 {
			w.flushBuffer()
			if w.err != nil {
				return
			}
		}
		n := copy(w.buf[w.nbytes:], bytes)
		w.nbytes += n
		bytes = bytes[n:]
	}
}

// flush drains any remaining whole bytes, zero-pads the final partial byte
// out to a byte boundary, and pushes the staging buffer to the Sink.
func (w *bitWriter) flush() {
	if w.err != nil {
		w.nbits = 0
		w.nbytes = 0
		return
	}
	n := w.nbits
	for n > 0 {
		w.buf[w.nbytes] = byte(w.bits)
		w.bits >>= 8
		if n > 8 {
			n -= 8
		} else {
			n = 0
		}
		w.nbytes++
		if w.nbytes >= 240 {
			w.flushBuffer()
		}
	}
	w.bits = 0
	w.nbits = 0
	w.flushBuffer()
}
