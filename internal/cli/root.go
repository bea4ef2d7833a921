// Package cli implements the datamate command line: the console itself,
// one-shot listing, a plain-text cleansing watch and a log reader.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/five82/datamate/internal/app"
	"github.com/five82/datamate/internal/config"
	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/logging"
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configPath string
	prefsPath  string
	apiURL     string
	debug      bool
}

// env is what a subcommand needs to talk to the API.
type env struct {
	cfg    config.Config
	client *datamate.Client
	log    logr.Logger
	close  func() error
}

// NewRootCmd creates the top-level "datamate" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var resource string

	root := &cobra.Command{
		Use:   "datamate",
		Short: "Terminal console for ML dataset pipelines",
		Long: "datamate browses datasets, annotation and cleansing tasks, operators and\n" +
			"knowledge bases, and keeps a live board of running cleansing jobs.",
		Args: cobra.NoArgs,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: flags.configPath,
				PrefsPath:  flags.prefsPath,
				APIURL:     flags.apiURL,
				Resource:   resource,
				Debug:      flags.debug,
			})
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default: ~/.config/datamate/prefs.toml)")
	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "pipeline API root, overrides api_url")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "verbose logging")
	root.Flags().StringVarP(&resource, "resource", "r", "", "tab to open on start")

	root.AddCommand(newListCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newLogsCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// setup loads the config and builds the client and logger for a subcommand.
func (f *rootFlags) setup() (*env, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(f.apiURL); v != "" {
		cfg.APIURL = v
	}

	logger, closeLog, err := logging.New(logging.Options{Dir: cfg.LogDir, Debug: f.debug})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := datamate.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	return &env{cfg: cfg, client: client, log: logger, close: closeLog}, nil
}
