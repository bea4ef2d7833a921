package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/five82/datamate/internal/config"
	"github.com/five82/datamate/internal/logging"
	"github.com/five82/datamate/internal/logtail"
)

var (
	errorLine = lipgloss.NewStyle().Foreground(lipgloss.Color("#c94f6d"))
	warnLine  = lipgloss.NewStyle().Foreground(lipgloss.Color("#dbc074"))
	debugLine = lipgloss.NewStyle().Foreground(lipgloss.Color("#738091"))
)

func newLogsCmd(root *rootFlags) *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the console log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := zapcore.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("--level: %w", err)
			}
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			path := filepath.Join(cfg.LogDir, logging.FileName)
			raw, err := logtail.Read(path, lines)
			if err != nil {
				return err
			}
			entries := logtail.Filter(raw, threshold)
			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", path)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(out, styleFor(e.Level).Render(e.Format()))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 200, "number of lines to read from the end, 0 for all")
	cmd.Flags().StringVarP(&level, "level", "l", "debug", "lowest level to show (debug, info, warn, error)")
	return cmd
}

func styleFor(level zapcore.Level) lipgloss.Style {
	switch {
	case level >= zapcore.ErrorLevel:
		return errorLine
	case level == zapcore.WarnLevel:
		return warnLine
	case level < zapcore.InfoLevel:
		return debugLine
	default:
		return lipgloss.NewStyle()
	}
}
