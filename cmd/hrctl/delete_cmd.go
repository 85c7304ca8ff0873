package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrdesk/viewsync"
)

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := findResource(args[0])
			if err != nil {
				return err
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), root)
			defer cancel()

			out := viewsync.NewMutations(c, def.bind(c)).Delete(ctx, args[1])
			return out.Err
		},
	}
}

const defaultTimeout = 30 * time.Second

func withTimeout(ctx context.Context, root *rootOptions) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := defaultTimeout
	if cfg, err := root.config(); err == nil && cfg.Timeout.Duration > 0 {
		timeout = cfg.Timeout.Duration
	}
	return context.WithTimeout(ctx, timeout)
}
