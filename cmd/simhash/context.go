package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamirms/streamsim"
	"github.com/tamirms/streamsim/internal/config"
	"github.com/tamirms/streamsim/internal/logging"
	"github.com/tamirms/streamsim/source"
)

// commandContext lazily loads configuration, the logger and the engine
// shared by the subcommands.
type commandContext struct {
	viper      *viper.Viper
	configFlag *string

	loadOnce sync.Once
	cfg      *config.Config
	opts     []streamsim.Option
	logger   *slog.Logger
	loadErr  error
}

func newCommandContext(v *viper.Viper, configFlag *string) *commandContext {
	return &commandContext{viper: v, configFlag: configFlag}
}

func (c *commandContext) ensure(cmd *cobra.Command) error {
	c.loadOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(c.viper, path)
		if err != nil {
			c.loadErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Writer: cmd.ErrOrStderr(),
		})
		if err != nil {
			c.loadErr = err
			return
		}
		opts, err := cfg.Options()
		if err != nil {
			c.loadErr = fmt.Errorf("invalid configuration: %w", err)
			return
		}
		c.cfg = cfg
		c.logger = logger.With("run_id", uuid.NewString())
		c.opts = append(opts, streamsim.WithLogger(c.logger))
	})
	return c.loadErr
}

// engine builds an engine from the loaded configuration plus extra.
func (c *commandContext) engine(extra ...streamsim.Option) (*streamsim.Engine, error) {
	opts := append(append([]streamsim.Option{}, c.opts...), extra...)
	eng, err := streamsim.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return eng, nil
}

// inputs expands path arguments per the configuration.
func (c *commandContext) inputs(args []string) ([]string, error) {
	paths, err := source.Expand(args, c.cfg.Recursive)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files match %q", args)
	}
	return paths, nil
}

// opener returns the source opener used by Batch. With progress set, every
// input draws a progress bar on the command's stderr.
func (c *commandContext) opener(cmd *cobra.Command, progress bool) streamsim.Opener {
	var opts []source.Option
	if c.cfg.Mmap {
		opts = append(opts, source.WithMmap())
	}
	opts = append(opts, source.WithStdin(cmd.InOrStdin()))

	return func(_ context.Context, name string) (io.ReadCloser, error) {
		rc, err := source.Open(name, opts...)
		if err != nil {
			return nil, err
		}
		if !progress {
			return rc, nil
		}
		return newProgressReader(rc, name, cmd.ErrOrStderr()), nil
	}
}

// progressReader counts decompressed bytes into a progress bar.
type progressReader struct {
	io.Reader
	rc  io.ReadCloser
	bar *progressbar.ProgressBar
}

func newProgressReader(rc io.ReadCloser, name string, w io.Writer) *progressReader {
	size := int64(-1)
	if source.Detect(name) == source.None && name != source.Stdin {
		if info, err := os.Stat(name); err == nil {
			size = info.Size()
		}
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	return &progressReader{Reader: io.TeeReader(rc, bar), rc: rc, bar: bar}
}

func (p *progressReader) Close() error {
	_ = p.bar.Finish()
	return p.rc.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
