package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/docup/cmd/core"
	"github.com/projecteru2/docup/render"
	"github.com/projecteru2/docup/upload"
	"github.com/projecteru2/docup/validate"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) Upload(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	useTUI, _ := cmd.Flags().GetBool("tui")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	output, _ := cmd.Flags().GetString("output")
	showText, _ := cmd.Flags().GetBool("text")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u, err := cmdcore.InitUploader(ctx, conf, !noHistory)
	if err != nil {
		return err
	}
	defer u.Close()

	var outcomes []upload.Outcome
	if useTUI && cmdcore.IsTerminal(os.Stdout) {
		outcomes, err = runTUI(ctx, cancel, u, args)
		if err != nil {
			return err
		}
	} else {
		r, err := newRenderer(ctx, u, output)
		if err != nil {
			return err
		}
		unsubscribe := u.Subscribe(r.Render)
		logger := log.WithFunc("cmd.upload")
		outcomes = u.UploadAll(ctx, args, func(index, total int, path string) {
			if total > 1 && output != "json" {
				logger.Infof(ctx, "[%d/%d] %s", index, total, path)
			}
		})
		unsubscribe()
	}
	return report(ctx, outcomes, showText && output != "json")
}

func runTUI(ctx context.Context, cancel context.CancelFunc, u *upload.Uploader, paths []string) ([]upload.Outcome, error) {
	tui := render.NewTUI(u.Catalog(), cancel)
	unsubscribe := u.Subscribe(tui.Render)
	defer unsubscribe()

	var outcomes []upload.Outcome
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer tui.Quit()
		outcomes = u.UploadAll(ctx, paths, tui.SetFile)
	}()

	runErr := tui.Run()
	if runErr != nil {
		cancel()
	}
	<-done
	if runErr != nil {
		return nil, fmt.Errorf("run progress view: %w", runErr)
	}
	return outcomes, nil
}

func newRenderer(ctx context.Context, u *upload.Uploader, output string) (render.Renderer, error) {
	switch output {
	case "auto":
		if cmdcore.IsTerminal(os.Stdout) {
			return render.NewBar(os.Stdout, u.Catalog(), render.DefaultBarWidth), nil
		}
		return render.NewLog(ctx, u.Catalog()), nil
	case "bar":
		return render.NewBar(os.Stdout, u.Catalog(), render.DefaultBarWidth), nil
	case "log":
		return render.NewLog(ctx, u.Catalog()), nil
	case "json":
		return render.NewJSON(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown output %q (want auto, bar, log, json)", output)
	}
}

func report(ctx context.Context, outcomes []upload.Outcome, showText bool) error {
	logger := log.WithFunc("cmd.report")
	failed := 0
	for _, o := range outcomes {
		var verr *validate.Error
		switch {
		case errors.As(o.Err, &verr):
			failed++
			logger.Warnf(ctx, "%s rejected: %s", o.Path, strings.Join(verr.Problems, "; "))
		case o.Err != nil:
			failed++
			logger.Warnf(ctx, "%s failed: %v", o.Path, o.Err)
		default:
			logger.Infof(ctx, "%s uploaded as %s (%s, %s), scan passed: %t",
				o.Path, o.Result.Filename, cmdcore.FormatSize(o.Result.Size), o.Result.MimeType, o.Result.SecurityScanPassed)
			if showText && o.Result.RecognizedText != "" {
				fmt.Printf("--- %s ---\n%s\n", o.Path, o.Result.RecognizedText)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, len(outcomes))
	}
	return nil
}

func (h Handler) Info(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	u, err := cmdcore.InitUploader(ctx, conf, false)
	if err != nil {
		return err
	}
	defer u.Close()

	info, err := u.Info(ctx)
	if err != nil {
		return fmt.Errorf("fetch upload info: %w", err)
	}
	if info.MaxFileSize != "" || len(info.AllowedTypes) > 0 {
		log.WithFunc("cmd.info").Infof(ctx, "max file size %s, allowed types %s, features %s",
			info.MaxFileSize, strings.Join(info.AllowedTypes, ", "), strings.Join(info.Features, ", "))
	}
	return cmdcore.PrintJSON(os.Stdout, json.RawMessage(info.Raw))
}

func (h Handler) Validate(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	rules, err := conf.ValidationRules()
	if err != nil {
		return err
	}

	results := validate.Files(ctx, args, rules, conf.PoolSize)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FILE\tSTATUS\tPROBLEMS")
	failed := 0
	for _, r := range results {
		status, detail := "ok", ""
		switch {
		case r.Err != nil:
			status, detail = "error", r.Err.Error()
		case len(r.Problems) > 0:
			status, detail = "rejected", strings.Join(r.Problems, "; ")
		}
		if !r.OK() {
			failed++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, status, detail)
	}
	_ = w.Flush()
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(results))
	}
	return nil
}
