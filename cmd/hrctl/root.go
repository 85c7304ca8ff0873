package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrdesk/viewsync"
)

const envPrefix = "HRCTL_"

type rootOptions struct {
	configFile string
	baseURL    string
	token      string
	locale     string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "hrctl",
		Short:         "Browse and edit HR backend resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.loadEnv()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (env HRCTL_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Backend base URL (env HRCTL_BASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token (env HRCTL_TOKEN)")
	cmd.PersistentFlags().StringVar(&opts.locale, "locale", "", "Locale of messages, e.g. en or ar (env HRCTL_LOCALE)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newListCmd(opts), newGetCmd(opts), newDeleteCmd(opts))
	return cmd
}

// loadEnv reads .env files and fills options not given as flags from
// HRCTL_* variables.
func (o *rootOptions) loadEnv() error {
	var existing []string
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return errors.Wrap(err, "could not load env files")
		}
	}
	for name, target := range map[string]*string{
		"CONFIG":   &o.configFile,
		"BASE_URL": &o.baseURL,
		"TOKEN":    &o.token,
		"LOCALE":   &o.locale,
	} {
		if *target == "" {
			*target = os.Getenv(envPrefix + name)
		}
	}
	return nil
}

func (o *rootOptions) config() (viewsync.Config, error) {
	cfg := viewsync.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = viewsync.LoadConfig(o.configFile); err != nil {
			return cfg, err
		}
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.locale != "" {
		cfg.Locale = o.locale
	}
	if o.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func (o *rootOptions) client() (*viewsync.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("no backend configured, set --base-url or HRCTL_BASE_URL")
	}
	if o.token == "" {
		return nil, errors.WithStack(viewsync.ErrNoPrincipal)
	}
	session := viewsync.NewSession(o.token)
	session.OnAuthFailure(
		func(err *viewsync.APIError) {
			fmt.Fprintf(os.Stderr, "authorization failed (%s), check the token\n", err.Kind())
		},
	)
	c, err := viewsync.NewClient(
		&cfg,
		viewsync.WithSession(session),
		viewsync.WithNotifier(
			viewsync.NotifierFunc(
				func(kind viewsync.NotificationKind, message string) {
					fmt.Fprintf(os.Stderr, "[%s] %s\n", kind, message)
				},
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
