package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/five82/datamate/internal/catalog"
	"github.com/five82/datamate/internal/config"
	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/logging"
	"github.com/five82/datamate/internal/prefs"
	"github.com/five82/datamate/internal/state"
	"github.com/five82/datamate/internal/ui"
)

// Options configure the console.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/datamate/prefs.toml
	APIURL     string // overrides api_url from the config file
	Resource   string // tab to open; empty uses the saved preference
	Debug      bool
}

// Run boots the console until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	resource, err := resolveResource(opts.Resource, userPrefs.Resource)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Dir: cfg.LogDir, Debug: opts.Debug})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	client, err := datamate.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	logger.Info("console starting",
		"api", client.BaseURL(),
		"resource", resource,
		"poll_interval", cfg.PollInterval.String(),
	)

	store := &state.Store{}
	board := NewBoardPoller(client, store, BoardOptions{
		Interval: cfg.PollInterval,
		Logger:   logger.WithName("board"),
	})
	if err := board.Start(ctx); err != nil {
		return fmt.Errorf("start board poller: %w", err)
	}
	defer board.Stop()

	err = ui.Run(ui.Options{
		Context:   ctx,
		Lister:    client,
		Store:     store,
		Board:     board,
		Config:    cfg,
		ThemeName: userPrefs.Theme,
		Resource:  resource,
		PageSizes: userPrefs.PageSizes,
		PrefsPath: opts.PrefsPath,
		Logger:    logger.WithName("ui"),
	})
	logger.Info("console stopped")
	return err
}

// resolveResource prefers an explicit choice over the saved one. An unknown
// saved resource falls back to the first tab; an unknown explicit one is an
// error.
func resolveResource(explicit, saved string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		r, ok := catalog.Lookup(explicit)
		if !ok {
			return "", fmt.Errorf("unknown resource %q (want one of %s)", explicit, strings.Join(catalog.Keys(), ", "))
		}
		return r.Key, nil
	}
	if r, ok := catalog.Lookup(saved); ok {
		return r.Key, nil
	}
	return catalog.All()[0].Key, nil
}
