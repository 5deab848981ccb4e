package worker

import (
	"context"
	"errors"
	"testing"

	"trackify/internal/amqp"
)

type fakeAppender struct {
	rows []string
	err  error
}

func (f *fakeAppender) AppendRow(_ context.Context, eventType string, transactionID int64, userID, description string, amountCents int64, category string) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, eventType)
	return nil
}

func TestHandleRecordedEvent(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(nil, appender)

	ev := &amqp.LedgerEvent{Type: amqp.EventRecorded, TransactionID: 1, UserID: "u1", AmountCents: 500, Category: "income"}
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(appender.rows) != 1 || appender.rows[0] != amqp.EventRecorded {
		t.Fatalf("unexpected rows %v", appender.rows)
	}
}

func TestHandleExportFailureRequeues(t *testing.T) {
	appender := &fakeAppender{err: errors.New("sheet unavailable")}
	w := NewExportWorker(nil, appender)

	ev := &amqp.LedgerEvent{Type: amqp.EventDeleted, TransactionID: 2, UserID: "u1"}
	if err := w.handle(context.Background(), ev); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}

func TestHandleUnknownTypeDropped(t *testing.T) {
	appender := &fakeAppender{}
	w := NewExportWorker(nil, appender)

	ev := &amqp.LedgerEvent{Type: "transaction.mystery"}
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("unknown types should be dropped, not requeued: %v", err)
	}
	if len(appender.rows) != 0 {
		t.Fatalf("unknown event was exported: %v", appender.rows)
	}
}

func TestHandleNoExporterConfigured(t *testing.T) {
	w := NewExportWorker(nil, nil)
	ev := &amqp.LedgerEvent{Type: amqp.EventRecorded, TransactionID: 3}
	if err := w.handle(context.Background(), ev); err != nil {
		t.Fatalf("missing exporter should drop, not error: %v", err)
	}
}
