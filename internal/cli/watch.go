package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/datamate/internal/app"
	"github.com/five82/datamate/internal/catalog"
	"github.com/five82/datamate/internal/state"
)

func newWatchCmd(root *rootFlags) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print cleansing task counts whenever they change",
		Long: "Poll cleansing tasks and print one line each time the per-status counts\n" +
			"change or the API starts failing. Runs until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, root, interval)
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "poll interval (default: poll_interval from config)")
	return cmd
}

func runWatch(cmd *cobra.Command, root *rootFlags, interval time.Duration) error {
	if interval < 0 {
		return fmt.Errorf("--interval must not be negative, got %s", interval)
	}
	e, err := root.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	if interval == 0 {
		interval = e.cfg.PollInterval
	}

	printer := &changePrinter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	board := app.NewBoardPoller(e.client, &state.Store{}, app.BoardOptions{
		Interval: interval,
		Logger:   e.log.WithName("watch"),
		OnUpdate: printer.observe,
	})
	if err := board.Start(cmd.Context()); err != nil {
		return err
	}
	defer board.Stop()

	<-board.Done()
	return nil
}

// changePrinter writes a line when the status counts or the error change.
type changePrinter struct {
	out    io.Writer
	errOut io.Writer

	lastCounts string
	lastErr    string
}

func (p *changePrinter) observe(snap state.Snapshot) {
	stamp := snap.LastUpdated.Format("15:04:05")

	if snap.LastError != nil {
		msg := snap.LastError.Error()
		p.lastCounts = ""
		if msg != p.lastErr {
			p.lastErr = msg
			fmt.Fprintf(p.errOut, "%s  error: %s (failures %d)\n", stamp, msg, snap.ConsecutiveFailures)
		}
		return
	}
	p.lastErr = ""

	counts := formatCounts(snap)
	if counts == p.lastCounts {
		return
	}
	p.lastCounts = counts
	fmt.Fprintf(p.out, "%s  %s\n", stamp, counts)
}

func formatCounts(snap state.Snapshot) string {
	parts := []string{fmt.Sprintf("total %d", snap.Total)}
	for _, f := range catalog.CleansingFacets.Facets() {
		for _, opt := range f.Options {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ToLower(opt.Label), snap.Count(opt.Value)))
		}
	}
	return strings.Join(parts, "  ")
}
