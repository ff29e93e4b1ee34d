package flate

import "testing"

func TestLiteralTokenRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		tok := literalToken(byte(b))
		if !tok.isLiteral() {
			t.Fatalf("literalToken(%d) not recognized as literal", b)
		}
		if got := tok.literal(); got != byte(b) {
			t.Fatalf("literalToken(%d).literal() = %d", b, got)
		}
	}
}

func TestMatchTokenRoundTrip(t *testing.T) {
	cases := []struct {
		length, offset uint32
	}{
		{3, 1},
		{258, 1},
		{3, maxMatchOffset},
		{10, 12345},
		{258, maxMatchOffset},
	}
	for _, c := range cases {
		tok := matchToken(c.length, c.offset)
		if tok.isLiteral() {
			t.Fatalf("matchToken(%d,%d) recognized as literal", c.length, c.offset)
		}
		if got := tok.length(); got != c.length {
			t.Errorf("matchToken(%d,%d).length() = %d", c.length, c.offset, got)
		}
		if got := tok.offset(); got != c.offset {
			t.Errorf("matchToken(%d,%d).offset() = %d", c.length, c.offset, got)
		}
	}
}

func TestLengthCodeMonotonic(t *testing.T) {
	var prev uint32
	for length := uint32(3); length <= 258; length++ {
		code := lengthCode(length)
		if code < prev {
			t.Fatalf("lengthCode(%d) = %d, decreased from %d", length, code, prev)
		}
		prev = code
	}
	if got := lengthCode(258); got != 28 {
		t.Errorf("lengthCode(258) = %d, want 28", got)
	}
	if got := lengthCode(3); got != 0 {
		t.Errorf("lengthCode(3) = %d, want 0", got)
	}
}

func TestOffsetCodeMonotonic(t *testing.T) {
	var prev uint32
	for offset := uint32(1); offset <= maxMatchOffset; offset++ {
		code := offsetCode(offset)
		if code < prev {
			t.Fatalf("offsetCode(%d) = %d, decreased from %d", offset, code, prev)
		}
		prev = code
	}
	if got := offsetCode(1); got != 0 {
		t.Errorf("offsetCode(1) = %d, want 0", got)
	}
	if got := offsetCode(maxMatchOffset); got != 29 {
		t.Errorf("offsetCode(maxMatchOffset) = %d, want 29", got)
	}
}
