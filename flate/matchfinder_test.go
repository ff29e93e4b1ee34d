package flate

import (
	"bytes"
	"compress/flate"
	"io"
	"math/rand"
	"testing"
)

// decodeTokens writes tokens as a single block through
// BlockWriter.WriteBlockDynamic (dynamic, or stored where that wins under its
// fallback margin) and decodes the result with the standard library's flate
// reader — this package never implements decoding itself, so every
// round-trip test borrows compress/flate the way the teacher's own
// flate_test.go borrows it.
func decodeTokens(t *testing.T, tokens []Token, input []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := NewBlockWriter(&buf)
	if _, err := bw.WriteBlockDynamic(tokens, true, input); err != nil {
		t.Fatalf("WriteBlockDynamic: %v", err)
	}
	bw.Flush()

	r := flate.NewReader(&buf)
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	return got
}

func TestMatchFinderRoundTrip(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		[]byte("the quick brown fox jumps over the lazy dog, the quick brown fox jumps again"),
		bytes.Repeat([]byte("abcabcabcabcabcabc"), 500),
	}
	for i, input := range inputs {
		mf := NewMatchFinder()
		tokens := mf.FindMatches(nil, input)
		got := decodeTokens(t, tokens, input)
		if !bytes.Equal(got, input) {
			t.Errorf("case %d: round trip mismatch: got %d bytes, want %d", i, len(got), len(input))
		}
	}
}

func TestMatchFinderShortInputs(t *testing.T) {
	// Lengths right around the minimum match length exercise the loop
	// bound that decides how far the 4-byte hash probe is allowed to run;
	// getting it wrong reads past the end of src.
	for n := 0; n <= 9; n++ {
		input := bytes.Repeat([]byte{'x'}, n)
		mf := NewMatchFinder()
		tokens := mf.FindMatches(nil, input)
		got := decodeTokens(t, tokens, input)
		if !bytes.Equal(got, input) {
			t.Errorf("n=%d: round trip mismatch: got %d bytes, want %d", n, len(got), len(input))
		}
	}
}

func TestMatchFinderRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		n := rng.Intn(4000)
		input := make([]byte, n)
		rng.Read(input)
		mf := NewMatchFinder()
		tokens := mf.FindMatches(nil, input)
		got := decodeTokens(t, tokens, input)
		if !bytes.Equal(got, input) {
			t.Fatalf("trial %d (n=%d): round trip mismatch", trial, n)
		}
	}
}

func TestMatchFinderCrossBlock(t *testing.T) {
	mf := NewMatchFinder()
	first := bytes.Repeat([]byte("0123456789"), 50)
	second := bytes.Repeat([]byte("0123456789"), 50)

	var buf bytes.Buffer
	bw := NewBlockWriter(&buf)

	tokensFirst := mf.FindMatches(nil, first)
	if _, err := bw.WriteBlockDynamic(tokensFirst, false, first); err != nil {
		t.Fatalf("WriteBlockDynamic (first): %v", err)
	}

	tokensSecond := mf.FindMatches(nil, second)
	if _, err := bw.WriteBlockDynamic(tokensSecond, true, second); err != nil {
		t.Fatalf("WriteBlockDynamic (second): %v", err)
	}
	bw.Flush()

	r := flate.NewReader(&buf)
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decoding two-block stream: %v", err)
	}
	want := append(append([]byte{}, first...), second...)
	if !bytes.Equal(got, want) {
		t.Fatalf("two-block round trip mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestMatchFinderResetIndependence(t *testing.T) {
	data := []byte("reset should make this call independent of any prior call")

	mf := NewMatchFinder()
	mf.FindMatches(nil, []byte("unrelated priming data to populate the table"))
	mf.Reset()

	tokens := mf.FindMatches(nil, data)
	got := decodeTokens(t, tokens, data)
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch after Reset")
	}
}
