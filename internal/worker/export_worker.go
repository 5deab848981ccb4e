// Package worker drains the ledger audit queue into the export target.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"trackify/internal/amqp"
)

// RowAppender is the export target contract, satisfied by the Google
// Sheets exporter.
type RowAppender interface {
	AppendRow(ctx context.Context, eventType string, transactionID int64, userID, description string, amountCents int64, category string) error
}

// ExportWorker consumes ledger events and mirrors them to the export
// target. It is fully decoupled from the request path: the ledger stays
// correct if the worker is down, events just wait in the queue.
type ExportWorker struct {
	client   *amqp.Client
	exporter RowAppender
}

func NewExportWorker(client *amqp.Client, exporter RowAppender) *ExportWorker {
	return &ExportWorker{
		client:   client,
		exporter: exporter,
	}
}

// Run consumes until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context) error {
	if w.client == nil {
		slog.InfoContext(ctx, "AMQP not configured, export worker idle")
		<-ctx.Done()
		return ctx.Err()
	}
	return w.client.ConsumeLedgerEvents(ctx, func(ev *amqp.LedgerEvent) error {
		return w.handle(ctx, ev)
	})
}

func (w *ExportWorker) handle(ctx context.Context, ev *amqp.LedgerEvent) error {
	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, dropping event",
			"type", ev.Type, "transaction_id", ev.TransactionID)
		return nil
	}

	switch ev.Type {
	case amqp.EventRecorded, amqp.EventDeleted:
		if err := w.exporter.AppendRow(ctx, ev.Type, ev.TransactionID, ev.UserID,
			ev.Description, ev.AmountCents, ev.Category); err != nil {
			return fmt.Errorf("export event %s/%d: %w", ev.Type, ev.TransactionID, err)
		}
		return nil
	default:
		slog.WarnContext(ctx, "Unknown ledger event type", "type", ev.Type)
		return nil
	}
}
