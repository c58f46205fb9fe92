package feedsvc

import (
	"fmt"
	"time"

	"github.com/spaceone/rest-feeds/internal/feed"
	"github.com/spaceone/rest-feeds/pkg/feedapi"
)

// BuildPage turns a resolved entry batch into the wire page. The self link
// always echoes the requested offset, even when zero. The next link exists
// iff the page carries items, and encodes the highest position in the page:
// no next means the client should idle before retrying the same offset,
// while any non-empty page invites an immediate re-fetch.
func BuildPage(feedPath string, requestedOffset uint64, entries []feed.Entry) feedapi.Page {
	page := feedapi.Page{
		Links: feedapi.Links{
			Self: offsetLink(feedPath, requestedOffset),
		},
		Items: make([]feedapi.Item, 0, len(entries)),
	}
	for _, e := range entries {
		page.Items = append(page.Items, toItem(e))
	}
	if len(entries) > 0 {
		page.Links.Next = offsetLink(feedPath, entries[len(entries)-1].Position)
	}
	return page
}

func offsetLink(feedPath string, offset uint64) string {
	return fmt.Sprintf("%s?offset=%d", feedPath, offset)
}

func toItem(e feed.Entry) feedapi.Item {
	item := feedapi.Item{
		Position: e.Position,
		Meta: feedapi.ItemMeta{
			Type:           e.Type,
			ID:             e.ID,
			Created:        e.Created.UTC().Format(time.RFC3339),
			IdempotencyKey: e.IdempotencyKey,
		},
		Data: e.Data,
	}
	if e.Operation == feed.OpDelete {
		item.Meta.Operation = feedapi.OperationDelete
	}
	return item
}
