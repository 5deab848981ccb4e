package amqp

import (
	"strings"
	"testing"
	"time"
)

func TestLedgerEventJSONRoundTrip(t *testing.T) {
	ev := &LedgerEvent{
		Type:          EventRecorded,
		TransactionID: 42,
		UserID:        "usr_abc",
		Description:   "salary",
		AmountCents:   250000,
		Category:      "income",
		Timestamp:     time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if *got != *ev {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, ev)
	}
}

func TestLedgerEventFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDeletedEventOmitsRowFields(t *testing.T) {
	ev := &LedgerEvent{Type: EventDeleted, TransactionID: 7, UserID: "usr_x", Timestamp: time.Now().UTC()}
	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(body)
	for _, field := range []string{"description", "amount_cents", "category"} {
		if strings.Contains(s, `"`+field+`"`) {
			t.Fatalf("deleted event should omit %q: %s", field, s)
		}
	}
}
