package main

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"focusdeck/internal/config"
	"focusdeck/internal/platform"
	"focusdeck/internal/session"
)

// options are the resolved inputs every command starts from.
type options struct {
	configPath string
	configDir  string
	config     *config.Config
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	opts := &options{}

	root := &cobra.Command{
		Use:          "focusdeck",
		Short:        "Focus timer with a mirrored always-on-top display and ambient music",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(v)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default <config dir>/focusdeck/config.yaml)")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	root.Flags().Bool("remote", false, "serve the companion WebSocket mirror and metrics")
	root.Flags().String("listen", "", "remote server address")
	root.Flags().String("player", "", "audio player binary (ffplay, mpv, paplay, afplay)")

	mustBind(v, "logging.level", flags.Lookup("log-level"))
	mustBind(v, "remote.enabled", root.Flags().Lookup("remote"))
	mustBind(v, "remote.listen", root.Flags().Lookup("listen"))
	mustBind(v, "audio.player", root.Flags().Lookup("player"))

	root.AddCommand(newHistoryCommand(opts), newVersionCommand())
	return root
}

func (opts *options) load(v *viper.Viper) error {
	dir, err := platform.ConfigDir()
	if err != nil {
		return err
	}
	opts.configDir = dir
	if opts.configPath == "" {
		opts.configPath = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.Load(v, opts.configPath)
	if err != nil {
		return err
	}
	cfg.Resolve(dir)
	opts.config = cfg
	return nil
}

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent focus sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := session.Open(opts.config.Paths.SessionDB)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			total, err := store.TotalFocusMinutes(ctx)
			if err != nil {
				return err
			}

			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(out, "WHEN\tFOCUS\tBREAK\tID")
			for _, entry := range entries {
				fmt.Fprintf(out, "%s\t%d min\t%d min\t%s\n",
					entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.DurationMinutes, entry.BreakMinutes, entry.ID)
			}
			if err := out.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d sessions shown, %d focus minutes in total\n", len(entries), total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of sessions to show")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// The version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "focusdeck", version)
		},
	}
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}
