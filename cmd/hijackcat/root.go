package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the hijackcat command.
func NewRootCmd() *cobra.Command {
	var (
		cfgPath   string
		delimiter string
		maxPrefix int
		noRaw     bool
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "hijackcat",
		Short: "Read a handshake line from stdin, then pass the rest through",
		Long: `hijackcat takes over stdin until the handshake delimiter arrives,
logs the handshake and its sha256, and hands stdin back to a plain copy to
stdout. Bytes read past the delimiter are not lost.

On a terminal, stdin is switched to raw mode while the handshake is read.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("delim") {
				cfg.Delimiter = delimiter
			}
			if flags.Changed("max") {
				cfg.MaxPrefix = maxPrefix
			}
			if flags.Changed("no-raw") {
				cfg.NoRaw = noRaw
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			delim, level, err := cfg.Validate()
			if err != nil {
				return err
			}
			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
				Prefix: "hijackcat",
				Level:  level,
			})

			in := cmd.InOrStdin()
			s := newSession(in, delim, cfg.MaxPrefix, cfg.NoRaw, logger)
			return s.run(cmd.Context(), in, cmd.OutOrStdout())
		},
	}

	def := DefaultConfig()
	cmd.Flags().StringVar(&cfgPath, "config", "", "TOML config file")
	cmd.Flags().StringVar(&delimiter, "delim", def.Delimiter, "handshake delimiter (Go escapes allowed)")
	cmd.Flags().IntVar(&maxPrefix, "max", def.MaxPrefix, "maximum handshake length in bytes, 0 for unlimited")
	cmd.Flags().BoolVar(&noRaw, "no-raw", def.NoRaw, "leave terminal input mode alone")
	cmd.Flags().StringVar(&logLevel, "log-level", def.LogLevel, "debug, info, warn or error")

	return cmd
}
