package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrdesk/viewsync"
)

func newGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show a single entity",
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

			v := viewsync.NewDetailView(c, def.bind(c))
			v.SetID(args[1])
			snap, err := waitDetail(ctx, v)
			if err != nil {
				return err
			}
			switch snap.State {
			case viewsync.StateNotFound:
				fmt.Fprintln(cmd.OutOrStdout(), c.Localize(viewsync.MessageNotFound))
				return nil
			case viewsync.StateErrored:
				return snap.Err
			}
			return writeJSON(snap.Entity)
		},
	}
}

func detailSettled(s viewsync.DetailSnapshot[record]) bool {
	switch s.State {
	case viewsync.StateReady:
		return !s.Fetching
	case viewsync.StateErrored, viewsync.StateNotFound, viewsync.StateIdle:
		return true
	}
	return false
}

func waitDetail(ctx context.Context, v *viewsync.DetailView[record]) (viewsync.DetailSnapshot[record], error) {
	done := make(chan viewsync.DetailSnapshot[record], 1)
	unsubscribe := v.Subscribe(
		func(s viewsync.DetailSnapshot[record]) {
			if detailSettled(s) {
				select {
				case done <- s:
				default:
				}
			}
		},
	)
	defer unsubscribe()
	v.Open()
	defer v.Close()
	if s := v.Snapshot(); detailSettled(s) {
		return s, nil
	}
	select {
	case s := <-done:
		return s, nil
	case <-ctx.Done():
		return viewsync.DetailSnapshot[record]{}, errors.Wrap(ctx.Err(), "waiting for entity")
	}
}
