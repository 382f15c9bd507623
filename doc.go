// Package streamsim computes SimHash similarity fingerprints over streams of
// arbitrary length in bounded memory.
//
// A fingerprint is a fixed-width bit string (128 bits by default). Inputs
// that share most of their features produce fingerprints at a small Hamming
// distance, so near-duplicate detection reduces to comparing distances.
// Fingerprints can be computed once per stream or once per fixed-size byte
// block, which localises changes inside large files.
//
// # Basic Usage
//
// Fingerprinting a whole stream:
//
//	eng, err := streamsim.New(streamsim.WithMode(streamsim.ModeText), streamsim.WithNGram(3))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, err := eng.Fingerprint(ctx, strings.NewReader("the quick brown fox"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := eng.Fingerprint(ctx, strings.NewReader("the quick brown dog"))
//	d, _ := a.Distance(b)
//	fmt.Printf("%s %s distance=%d\n", a, b, d)
//
// Per-block fingerprints of a large file:
//
//	eng, err := streamsim.New(streamsim.WithBlockSize(1 << 20))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, err := os.Open("disk.img")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for blk, err := range eng.Blocks(ctx, f) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(blk.Index, blk.Start, blk.End, blk.Fingerprint)
//	}
//
// # Algorithm
//
// The input is split into features (byte n-grams, case-folded word
// n-grams, or bit windows, see Mode). Every feature is hashed to BitLen
// pseudorandom bits and votes +w on each of its 1 bits and -w on each of its
// 0 bits, where w is the feature's weight. The fingerprint has bit i set iff
// the total vote for bit i is positive.
//
// In block mode a feature belongs to the block containing its last byte.
// Blocks that receive no feature produce no record.
//
// Output never depends on the read chunk size: extractors consume one byte
// at a time and carry partial windows and partial UTF-8 sequences across
// reads.
//
// # Package Structure
//
//   - Public API: engine.go (New, Fingerprint, Blocks), stream.go (Stream)
//   - Configuration: options.go (Option, With* functions), mode.go, size.go
//   - Hashing: hash.go (HashAlgorithm, per-stream feature hashers)
//   - Results: fingerprint.go (Fingerprint, Distance, Block, Record)
//   - Parallel runs: batch.go (Batch)
//   - Internals: internal/feature (extractors), internal/vote (bit voting),
//     internal/segment (block routing), internal/bits (bit helpers)
//   - Collaborators: source/ (decompressing opener), format/ (TSV, JSON)
package streamsim
