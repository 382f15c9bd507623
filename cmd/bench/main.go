// Bench measures streamsim fingerprinting throughput and memory usage on
// synthetic input.
//
// Usage:
//
//	go run ./cmd/bench -size 256MiB -mode bytes -hash xxh3 -block 1MiB
//
// Flags:
//
//	-size      Input size (default: 64MiB)
//	-mode      Feature mode: bytes, text or bits (default: bytes)
//	-hash      Feature hash: blake2b, xxh3, murmur3 or xxhash (default: blake2b)
//	-bitlen    Fingerprint width in bits (default: 128)
//	-ngram     N-gram size (default: 7)
//	-block     Block size, empty for whole-stream mode
//	-chunk     Read size per chunk (default: 1MiB)
//	-text      Generate word-like text instead of random bytes
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"os"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tamirms/streamsim"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// syntheticReader produces n pseudo-random bytes, or space-separated
// lowercase words when text is set, without holding them in memory.
type syntheticReader struct {
	rng       *mrand.Rand
	remaining int64
	text      bool
}

func (r *syntheticReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	for i := range p {
		if r.text {
			if r.rng.IntN(6) == 0 {
				p[i] = ' '
			} else {
				p[i] = byte('a' + r.rng.IntN(26))
			}
		} else {
			p[i] = byte(r.rng.Uint32())
		}
	}
	r.remaining -= int64(len(p))
	return len(p), nil
}

func main() {
	sizeFlag := flag.String("size", "64MiB", "input size")
	modeFlag := flag.String("mode", "bytes", "feature mode: bytes, text or bits")
	hashFlag := flag.String("hash", "blake2b", "feature hash: blake2b, xxh3, murmur3 or xxhash")
	bitlenFlag := flag.Int("bitlen", streamsim.DefaultBitLen, "fingerprint width in bits")
	ngramFlag := flag.Int("ngram", streamsim.DefaultNGram, "n-gram size")
	blockFlag := flag.String("block", "", "block size (empty for whole-stream mode)")
	chunkFlag := flag.String("chunk", "1MiB", "read size per chunk")
	textFlag := flag.Bool("text", false, "generate word-like text instead of random bytes")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	flag.Parse()

	if err := run(*sizeFlag, *modeFlag, *hashFlag, *bitlenFlag, *ngramFlag, *blockFlag, *chunkFlag, *textFlag, *cpuprofile, *memprofile); err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
}

func run(sizeStr, modeStr, hashStr string, bitlen, ngram int, blockStr, chunkStr string, text bool, cpuprofile, memprofile string) error {
	size, err := streamsim.ParseSize(sizeStr)
	if err != nil {
		return fmt.Errorf("size: %w", err)
	}
	chunk, err := streamsim.ParseSize(chunkStr)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	mode, err := streamsim.ParseMode(modeStr)
	if err != nil {
		return err
	}
	hash, err := streamsim.ParseHashAlgorithm(hashStr)
	if err != nil {
		return err
	}
	opts := []streamsim.Option{
		streamsim.WithMode(mode),
		streamsim.WithHashAlgorithm(hash),
		streamsim.WithBitLen(bitlen),
		streamsim.WithNGram(ngram),
		streamsim.WithChunkSize(int(chunk)),
	}
	if blockStr != "" {
		block, err := streamsim.ParseSize(blockStr)
		if err != nil {
			return fmt.Errorf("block: %w", err)
		}
		opts = append(opts, streamsim.WithBlockSize(block))
	}
	eng, err := streamsim.New(opts...)
	if err != nil {
		return err
	}

	runtime.GC()
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()

	// 10ms sampling via runtime/metrics avoids ReadMemStats stop-the-world
	// pauses distorting CPU profiles.
	var peakAlloc atomic.Uint64
	var peakRSS atomic.Uint64
	peakAlloc.Store(baseline.Alloc)
	peakRSS.Store(baselineRSS)
	done := make(chan struct{})
	go func() {
		samples := []metrics.Sample{{Name: "/memory/classes/heap/objects:bytes"}}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				storeMax(&peakAlloc, samples[0].Value.Uint64())
				storeMax(&peakRSS, getMaxRSS())
			}
		}
	}()

	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
	}

	src := &syntheticReader{rng: mrand.New(mrand.NewPCG(1, 2)), remaining: size, text: text}
	start := time.Now()
	var records int
	var last streamsim.Fingerprint
	for rec, err := range eng.Open(context.Background(), src).All() {
		if err != nil {
			close(done)
			return err
		}
		records++
		last = rec.Fingerprint
	}
	elapsed := time.Since(start)

	if cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}
	close(done)

	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	storeMax(&peakAlloc, final.Alloc)
	storeMax(&peakRSS, getMaxRSS())
	peakHeap := peakAlloc.Load() - min(baseline.Alloc, peakAlloc.Load())
	peakRSSMem := peakRSS.Load() - baselineRSS

	blockDesc := "whole stream"
	if eng.BlockSize() > 0 {
		blockDesc = humanize.IBytes(uint64(eng.BlockSize()))
	}
	throughput := float64(size) / elapsed.Seconds()

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦══════════════════════════╗\n")
	fmt.Printf("║ Mode                ║ %-24s ║\n", fmt.Sprintf("%s/%s/%d", eng.Mode(), eng.HashAlgorithm(), eng.BitLen()))
	fmt.Printf("║ Blocks              ║ %-24s ║\n", blockDesc)
	fmt.Printf("╠═════════════════════╬══════════════════════════╣\n")
	fmt.Printf("║ Input               ║ %-24s ║\n", humanize.IBytes(uint64(size)))
	fmt.Printf("║ Records             ║ %-24s ║\n", humanize.Comma(int64(records)))
	fmt.Printf("║ Time                ║ %-24s ║\n", fmt.Sprintf("%.2f sec", elapsed.Seconds()))
	fmt.Printf("║ Throughput          ║ %-24s ║\n", humanize.IBytes(uint64(throughput))+"/s")
	fmt.Printf("║ Peak heap memory    ║ %-24s ║\n", humanize.IBytes(peakHeap))
	fmt.Printf("║ Peak RSS memory     ║ %-24s ║\n", humanize.IBytes(peakRSSMem))
	fmt.Printf("║ Last fingerprint    ║ %-24.24s ║\n", last.Hex())
	fmt.Printf("╚═════════════════════╩══════════════════════════╝\n")
	return nil
}

func storeMax(v *atomic.Uint64, n uint64) {
	for {
		old := v.Load()
		if n <= old || v.CompareAndSwap(old, n) {
			return
		}
	}
}
