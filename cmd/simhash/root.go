package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tamirms/streamsim"
	"github.com/tamirms/streamsim/format"
	"github.com/tamirms/streamsim/internal/config"
)

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"mode":       "mode",
	"bitlen":     "bitlen",
	"ngram":      "ngram",
	"step":       "step",
	"nbits":      "nbits",
	"step-bits":  "step_bits",
	"block-size": "block_size",
	"chunk-size": "chunk_size",
	"hash":       "hash",
	"mmap":       "mmap",
	"recursive":  "recursive",
	"json":       "json",
	"jobs":       "jobs",
	"fail-fast":  "fail_fast",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var progress bool
	v := config.NewViper()
	ctx := newCommandContext(v, &configFlag)

	rootCmd := &cobra.Command{
		Use:   "simhash [flags] paths...",
		Short: "Streamed SimHash for files, stdin and directories",
		Long: `Print a SimHash fingerprint for every input, or one per block with
--block-size. Paths may be files, directories, glob patterns or "-" for
standard input. Compressed inputs (.gz, .bz2, .xz, .lzma, .zst) are
decompressed on the fly.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			return ctx.ensure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runFingerprint(cmd, ctx, args, progress)
		},
	}

	d := config.Default()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFlag, "config", "c", "", "TOML configuration file")
	pf.String("mode", d.Mode, "feature mode: bytes, text or bits")
	pf.Int("bitlen", d.BitLen, "fingerprint width in bits (64, 128, 256...)")
	pf.Int("ngram", d.NGram, "token (text) or byte (bytes) n-gram size")
	pf.Int("step", d.Step, "bytes mode: keep every step-th window")
	pf.Int("nbits", d.NBits, "bits mode: window length in bits")
	pf.Int("step-bits", d.StepBits, "bits mode: window slide in bits")
	pf.String("block-size", d.BlockSize, "emit one fingerprint per block of this size (e.g. 64K, 1M, 256KiB)")
	pf.String("chunk-size", d.ChunkSize, "read size per chunk")
	pf.String("hash", d.Hash, "feature hash: blake2b, xxh3, murmur3 or xxhash")
	pf.Bool("mmap", d.Mmap, "read files through a memory mapping")
	pf.BoolP("recursive", "r", d.Recursive, "recurse into directories")
	pf.IntP("jobs", "j", d.Jobs, "inputs fingerprinted in parallel")
	pf.Bool("fail-fast", d.FailFast, "stop at the first unreadable input")
	pf.String("log-level", d.Log.Level, "log level: debug, info, warn or error")
	pf.String("log-format", d.Log.Format, "log format: console, json or auto")

	rootCmd.Flags().Bool("json", d.JSON, "emit JSON lines instead of TSV")
	rootCmd.Flags().BoolVar(&progress, "progress", false, "show read progress on stderr (single job only)")

	bindFlags(v, pf)
	bindFlags(v, rootCmd.Flags())

	rootCmd.AddCommand(newCompareCommand(ctx))
	rootCmd.AddCommand(newDistanceCommand())
	rootCmd.AddCommand(newConfigCommand())
	return rootCmd
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			// Only fails for a nil flag.
			_ = v.BindPFlag(key, f)
		}
	})
}

func runFingerprint(cmd *cobra.Command, ctx *commandContext, args []string, progress bool) error {
	cfg := ctx.cfg
	eng, err := ctx.engine()
	if err != nil {
		return err
	}
	paths, err := ctx.inputs(args)
	if err != nil {
		return err
	}
	if progress && cfg.Jobs > 1 {
		ctx.logger.Warn("progress display needs --jobs=1; disabled", "jobs", cfg.Jobs)
		progress = false
	}

	var out format.Writer
	if cfg.JSON {
		out = format.NewJSON(cmd.OutOrStdout())
	} else {
		out = format.NewTSV(cmd.OutOrStdout())
	}

	ctx.logger.Debug("fingerprinting",
		"inputs", len(paths),
		"mode", eng.Mode().String(),
		"bitlen", eng.BitLen(),
		"block_size", streamsim.FormatSize(eng.BlockSize()),
		"jobs", cfg.Jobs)

	failed := 0
	records := 0
	err = eng.Batch(cmd.Context(), paths, ctx.opener(cmd, progress), cfg.Jobs, func(r streamsim.Result) error {
		if !r.Done {
			records++
			if err := out.Write(format.Entry{Path: r.Name, Mode: eng.Mode(), Record: r.Record}); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if r.Record.Block != nil {
				// Flush per block so piped output keeps up with the input.
				if err := out.Flush(); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
			return nil
		}
		if r.Err != nil {
			if cfg.FailFast {
				return fmt.Errorf("%s: %w", r.Name, r.Err)
			}
			failed++
			ctx.logger.Error("skipping input", "path", r.Name, "records", records, "error", r.Err)
		} else {
			ctx.logger.Debug("input done", "path", r.Name, "records", records)
		}
		records = 0
		return nil
	})
	if ferr := out.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("write output: %w", ferr)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs could not be read", failed, len(paths))
	}
	return nil
}
