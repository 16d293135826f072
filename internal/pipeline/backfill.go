package pipeline

import (
	"context"
	"fmt"
)

// BackfillDocuments retries the upload for orders recorded without a
// document reference. It stops at the first cancellation and reports
// how many documents were filled in.
func (p *Pipeline) BackfillDocuments(ctx context.Context, limit int) (int, error) {
	if p.blobStore == nil {
		return 0, nil
	}

	pending, err := p.store.PendingDocuments(limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending documents: %w", err)
	}

	filled := 0
	for _, order := range pending {
		if ctx.Err() != nil {
			return filled, ctx.Err()
		}

		data, err := p.fetchDocument(ctx, order.SourceURL)
		if err != nil {
			p.logger.Warn("backfill download failed",
				"order_id", order.ID, "url", order.SourceURL, "error", err)
			continue
		}

		ref, err := p.blobStore.Upload(ctx, data, documentPath("backfill", order.SourceURL))
		if err != nil {
			p.logger.Warn("backfill upload failed",
				"order_id", order.ID, "url", order.SourceURL, "error", err)
			continue
		}

		if err := p.store.SetDocumentRef(order.ID, ref); err != nil {
			p.logger.Error("failed to record document ref",
				"order_id", order.ID, "error", err)
			continue
		}
		filled++
	}

	p.logger.Info("document backfill finished", "pending", len(pending), "filled", filled)
	return filled, nil
}
