package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrdesk/viewsync"
	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/querystring"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		query     string
		search    string
		searchKey string
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List a page of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := findResource(args[0])
			if err != nil {
				return err
			}
			values, err := url.ParseQuery(query)
			if err != nil {
				return errors.Wrap(err, "invalid --query")
			}
			if search != "" {
				values.Set(apimodel.ParamSearchQuery, search)
				if searchKey != "" {
					values.Set(apimodel.ParamSearchKey, searchKey)
				}
			}
			c, err := root.client()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd.Context(), root)
			defer cancel()

			v := viewsync.NewListView(c, def.bind(c), querystring.NewMemoryLocation(values.Encode()))
			snap, err := waitList(ctx, v)
			if err != nil {
				return err
			}
			if snap.Err != nil {
				return snap.Err
			}
			if err = writeJSON(snap.Entities); err != nil {
				return err
			}
			p := snap.Metadata.Pagination
			fmt.Fprintf(
				cmd.ErrOrStderr(), "%s: page %d of %d (%d records)\n",
				def.name, snap.Filters.Page, snap.Metadata.LastPage(), p.TotalRecords,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Query string of the list view, e.g. \"page=2&pageSize=20\"")
	cmd.Flags().StringVar(&search, "search", "", "Search text")
	cmd.Flags().StringVar(&searchKey, "search-key", "SearchByName", "Field searched by --search")
	return cmd
}

func listSettled(s viewsync.ListSnapshot[record]) bool {
	switch s.State {
	case viewsync.StateReady:
		return !s.Fetching
	case viewsync.StateErrored, viewsync.StateIdle:
		return true
	}
	return false
}

// waitList opens v and waits until it settled
func waitList(ctx context.Context, v *viewsync.ListView[record]) (viewsync.ListSnapshot[record], error) {
	done := make(chan viewsync.ListSnapshot[record], 1)
	unsubscribe := v.Subscribe(
		func(s viewsync.ListSnapshot[record]) {
			if listSettled(s) {
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
	if s := v.Snapshot(); listSettled(s) {
		return s, nil
	}
	select {
	case s := <-done:
		return s, nil
	case <-ctx.Done():
		return viewsync.ListSnapshot[record]{}, errors.Wrap(ctx.Err(), "waiting for list")
	}
}
