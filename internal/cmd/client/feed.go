package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	feedclient "github.com/spaceone/rest-feeds/internal/client"
	"github.com/spaceone/rest-feeds/pkg/feedapi"
	logpkg "github.com/spaceone/rest-feeds/pkg/log"
)

// NewFeedCommand constructs the `feed` command group and subcommands.
func NewFeedCommand(baseURL BaseURLFunc) *cobra.Command {
	feedCmd := &cobra.Command{Use: "feed", Short: "Feed operations"}

	feedCmd.AddCommand(
		newFeedCreateCommand(baseURL),
		newFeedAppendCommand(baseURL),
		newFeedListCommand(baseURL),
		newFeedStatsCommand(baseURL),
		newFeedEntriesCommand(baseURL),
		newFeedSubscribeCommand(baseURL),
	)

	return feedCmd
}

// newFeedCreateCommand constructs the `feed create` subcommand.
func newFeedCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			mode, _ := cmd.Flags().GetString("mode")
			pageLimit, _ := cmd.Flags().GetInt("page-limit")
			body := map[string]any{"feed": name, "mode": mode, "page_limit": pageLimit}
			if err := postJSON(cmd.Context(), baseURL()+"/v1/feeds/create", body, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created:", name)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Feed name")
	createCmd.Flags().String("mode", "data", "Feed mode: data|event")
	createCmd.Flags().Int("page-limit", 0, "Items per page (0 = server default)")
	_ = createCmd.MarkFlagRequired("name")
	return createCmd
}

// newFeedAppendCommand constructs the `feed append` subcommand.
func newFeedAppendCommand(baseURL BaseURLFunc) *cobra.Command {
	appendCmd := &cobra.Command{
		Use:   "append",
		Short: "Append an item to a feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			feed, _ := cmd.Flags().GetString("feed")
			itemType, _ := cmd.Flags().GetString("type")
			id, _ := cmd.Flags().GetString("id")
			op, _ := cmd.Flags().GetString("operation")
			key, _ := cmd.Flags().GetString("idempotency-key")
			data, _ := cmd.Flags().GetString("data")

			body := map[string]any{
				"feed":            feed,
				"type":            itemType,
				"id":              id,
				"operation":       op,
				"idempotency_key": key,
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data must be valid JSON")
				}
				body["data"] = json.RawMessage(data)
			}
			var resp struct {
				Position uint64 `json:"position"`
			}
			if err := postJSON(cmd.Context(), baseURL()+"/v1/feeds/append", body, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "position:", resp.Position)
			return nil
		},
	}
	appendCmd.Flags().String("feed", "", "Feed name")
	appendCmd.Flags().String("type", "", "Item type, e.g. com.example.order")
	appendCmd.Flags().String("id", "", "Logical item id")
	appendCmd.Flags().String("operation", "", "Operation: put|delete (default put)")
	appendCmd.Flags().String("idempotency-key", "", "Idempotency key (server-assigned if empty)")
	appendCmd.Flags().String("data", "", "JSON payload")
	_ = appendCmd.MarkFlagRequired("feed")
	_ = appendCmd.MarkFlagRequired("id")
	return appendCmd
}

// newFeedListCommand constructs the `feed list` subcommand.
func newFeedListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered feeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp map[string]any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/feeds", &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	return listCmd
}

// newFeedStatsCommand constructs the `feed stats` subcommand.
func newFeedStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show feed statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			feed, _ := cmd.Flags().GetString("feed")
			var resp map[string]any
			if err := getJSON(cmd.Context(), baseURL()+"/v1/feeds/stats?feed="+url.QueryEscape(feed), &resp); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	statsCmd.Flags().String("feed", "", "Feed name")
	_ = statsCmd.MarkFlagRequired("feed")
	return statsCmd
}

// newFeedEntriesCommand constructs the `feed entries` subcommand: a single
// page fetch without a cursor.
func newFeedEntriesCommand(baseURL BaseURLFunc) *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Fetch one feed page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			feed, _ := cmd.Flags().GetString("feed")
			offset, _ := cmd.Flags().GetUint64("offset")
			filter, _ := cmd.Flags().GetString("filter")

			target := fmt.Sprintf("%s/feeds/%s?offset=%d", baseURL(), url.PathEscape(feed), offset)
			if filter != "" {
				target += "&filter=" + url.QueryEscape(filter)
			}
			var page feedapi.Page
			if err := getJSON(cmd.Context(), target, &page); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}
	entriesCmd.Flags().String("feed", "", "Feed name")
	entriesCmd.Flags().Uint64("offset", 0, "Exclusive start position")
	entriesCmd.Flags().String("filter", "", "CEL filter (server-side)")
	_ = entriesCmd.MarkFlagRequired("feed")
	return entriesCmd
}

// newFeedSubscribeCommand constructs the `feed subscribe` subcommand: the
// full polling consumer with a durable cursor.
func newFeedSubscribeCommand(baseURL BaseURLFunc) *cobra.Command {
	subscribeCmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Follow a feed, printing items as they arrive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			feed, _ := cmd.Flags().GetString("feed")
			cursorDir, _ := cmd.Flags().GetString("cursor-dir")
			pollMs, _ := cmd.Flags().GetInt("poll-interval-ms")
			waitMs, _ := cmd.Flags().GetInt("wait-ms")

			var store feedclient.CursorStore = feedclient.NewMemoryCursorStore()
			if cursorDir != "" {
				ps, err := feedclient.OpenCursorStore(cursorDir)
				if err != nil {
					return err
				}
				defer ps.Close()
				store = ps
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			handler := feedclient.HandlerFunc(func(_ context.Context, item feedapi.Item) error {
				return enc.Encode(item)
			})

			poller, err := feedclient.NewPoller(baseURL()+"/feeds/"+url.PathEscape(feed), feedclient.Options{
				Handler:      handler,
				Store:        store,
				PollInterval: time.Duration(pollMs) * time.Millisecond,
				LongPollWait: time.Duration(waitMs) * time.Millisecond,
				Logger:       logpkg.NewNullLogger(),
			})
			if err != nil {
				return err
			}
			return poller.Run(cmd.Context())
		},
	}
	subscribeCmd.Flags().String("feed", "", "Feed name")
	subscribeCmd.Flags().String("cursor-dir", "", "Directory for the durable cursor (in-memory if empty)")
	subscribeCmd.Flags().Int("poll-interval-ms", 5000, "Idle delay between polls of an empty feed")
	subscribeCmd.Flags().Int("wait-ms", 0, "Server-side long-poll window (0 = off)")
	_ = subscribeCmd.MarkFlagRequired("feed")
	return subscribeCmd
}
