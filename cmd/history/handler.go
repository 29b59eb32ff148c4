package history

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/docup/cmd/core"
	"github.com/projecteru2/docup/history"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) initHistory(cmd *cobra.Command) (context.Context, *history.History, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	hist, err := cmdcore.InitHistory(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return ctx, hist, nil
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, hist, err := h.initHistory(cmd)
	if err != nil {
		return err
	}
	records, err := hist.List(ctx)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return cmdcore.PrintJSON(os.Stdout, records)
	}
	if len(records) == 0 {
		log.WithFunc("cmd.history.list").Info(ctx, "no uploads recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILE\tTYPE\tSIZE\tSCAN\tDURATION\tFINISHED")
	for _, rec := range records {
		id := rec.ID
		if len(id) > 8 { //nolint:mnd
			id = id[:8]
		}
		var typ, size, scan string
		if rec.Result != nil {
			typ, size = rec.Result.MimeType, cmdcore.FormatSize(rec.Result.Size)
			scan = "failed"
			if rec.Result.SecurityScanPassed {
				scan = "passed"
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, rec.File, typ, size, scan,
			rec.Duration().Round(time.Millisecond),
			rec.FinishedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func (h Handler) Show(cmd *cobra.Command, args []string) error {
	ctx, hist, err := h.initHistory(cmd)
	if err != nil {
		return err
	}
	rec, err := hist.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return cmdcore.PrintJSON(os.Stdout, rec)
}

func (h Handler) Prune(cmd *cobra.Command, _ []string) error {
	ctx, hist, err := h.initHistory(cmd)
	if err != nil {
		return err
	}
	keep, _ := cmd.Flags().GetInt("keep")
	if keep < 1 {
		return fmt.Errorf("--keep must be at least 1, got %d (use `history clear` to remove all)", keep)
	}
	removed, err := hist.Prune(ctx, keep)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	log.WithFunc("cmd.history.prune").Infof(ctx, "removed %d record(s)", removed)
	return nil
}

func (h Handler) Clear(cmd *cobra.Command, _ []string) error {
	ctx, hist, err := h.initHistory(cmd)
	if err != nil {
		return err
	}
	removed, err := hist.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	log.WithFunc("cmd.history.clear").Infof(ctx, "removed %d record(s)", removed)
	return nil
}
