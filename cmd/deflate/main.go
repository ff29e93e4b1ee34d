// Command deflate compresses a single file into a bare RFC 1951 DEFLATE
// block, demonstrating the flate package end to end: match-finding, block
// selection, and bit-exact serialization. It does not write zlib or gzip
// framing around the block, and it refuses input larger than one block.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-compress/deflatecore/flate"
)

var (
	mode    string
	outPath string
	verbose bool

	log = logrus.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deflate <input-file>",
		Short: "Compress a single file into one RFC 1951 DEFLATE block",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeflate,
	}
	cmd.Flags().StringVar(&mode, "mode", "auto", "block mode: auto, dynamic, or huffman")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: <input>.defl)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log debug-level detail")
	return cmd
}

func runDeflate(cmd *cobra.Command, args []string) error {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	inPath := args[0]

	input, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	if len(input) > 65535 {
		return fmt.Errorf("%s is %d bytes; this command only writes a single block (max 65535 bytes)", inPath, len(input))
	}

	if outPath == "" {
		outPath = inPath + ".defl"
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	log.WithFields(logrus.Fields{
		"input": inPath,
		"bytes": len(input),
		"mode":  mode,
	}).Debug("starting compression")

	stats, err := compress(out, input, mode)
	if err != nil {
		log.WithError(err).Error("compression failed")
		return err
	}

	log.WithFields(logrus.Fields{
		"output":     outPath,
		"block_type": stats.Type,
		"bits":       stats.Bits,
	}).Info("wrote block")
	return nil
}

func compress(w io.Writer, input []byte, mode string) (flate.Stats, error) {
	bw := flate.NewBlockWriter(w)
	switch mode {
	case "huffman":
		stats, err := bw.WriteBlockHuff(true, input)
		if err != nil {
			return stats, err
		}
		bw.Flush()
		return stats, bw.Err()
	case "dynamic":
		mf := flate.NewMatchFinder()
		tokens := mf.FindMatches(nil, input)
		stats, err := bw.WriteBlockDynamic(tokens, true, input)
		if err != nil {
			return stats, err
		}
		bw.Flush()
		return stats, bw.Err()
	case "auto":
		mf := flate.NewMatchFinder()
		tokens := mf.FindMatches(nil, input)
		stats, err := bw.WriteBlock(tokens, true, input)
		if err != nil {
			return stats, err
		}
		bw.Flush()
		return stats, bw.Err()
	default:
		return flate.Stats{}, fmt.Errorf("unknown mode %q: want auto, dynamic, or huffman", mode)
	}
}
