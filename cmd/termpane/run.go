package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/termpane/internal/appconfig"
	"pkt.systems/termpane/tui"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var shell string
	var cwd string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the terminal session host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if shell != "" {
				cfg.Shell.Command = shell
			}
			if cwd != "" {
				cfg.Shell.Cwd = cwd
			}

			// The UI owns the terminal, so logs must not hit stderr while
			// it runs. Structured log output can be redirected via LOG_FILE.
			logger := pslog.Ctx(cmd.Context())
			if target := strings.TrimSpace(os.Getenv("LOG_FILE")); target != "" {
				f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				logger = pslog.NewWithOptions(f, pslog.Options{
					Mode:    pslog.ModeStructured,
					NoColor: cfg.Logging.NoColor,
				})
			} else {
				logger = pslog.NewWithOptions(io.Discard, pslog.Options{
					Mode:    pslog.ModeStructured,
					NoColor: true,
				})
			}

			app, err := tui.NewApp(cfg, logger)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&shell, "shell", "", "shell to run in each session")
	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for new sessions")
	return cmd
}
