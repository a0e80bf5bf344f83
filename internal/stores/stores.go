// Package stores holds the reactive state layer: each store owns a cached
// collection slice, issues remote queries and writes through the docstore
// port, and replaces its cache wholesale after every mutation (write, await,
// refetch). Remote errors are logged and returned unchanged; missing
// preconditions (no signed-in identity, unknown local record, empty input)
// short-circuit silently.
package stores

import (
	"context"
	"log/slog"

	"moni/internal/events"
)

// publishChange emits a change event when an events client is configured.
// Publish failures never fail the action; the write already succeeded.
func publishChange(ctx context.Context, cli *events.Client, collection, id string, action events.Action) {
	if cli == nil {
		return
	}
	if err := cli.PublishChange(ctx, collection, id, action); err != nil {
		slog.WarnContext(ctx, "Failed to publish change event",
			"collection", collection, "id", id, "action", action, "error", err)
	}
}
