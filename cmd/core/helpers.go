package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/docup/config"
	"github.com/projecteru2/docup/history"
	"github.com/projecteru2/docup/upload"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// InitHistory opens the upload history store.
func InitHistory(ctx context.Context, conf *config.Config) (*history.History, error) {
	h, err := history.New(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}
	return h, nil
}

// InitUploader builds the uploader, recording into the history unless
// withHistory is false.
func InitUploader(ctx context.Context, conf *config.Config, withHistory bool) (*upload.Uploader, error) {
	var opts []upload.Option
	if withHistory {
		h, err := InitHistory(ctx, conf)
		if err != nil {
			return nil, err
		}
		opts = append(opts, upload.WithHistory(h))
	}
	u, err := upload.New(conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("init uploader: %w", err)
	}
	return u, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
