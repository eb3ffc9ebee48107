package export

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crmhub_backend/internal/reconcile"
	"crmhub_backend/platform/logger"
)

type fakeCRM struct {
	leads    []reconcile.Lead
	contacts []reconcile.Contact
	leadsErr error
}

func (f *fakeCRM) FetchShippedLeads(_ context.Context) ([]reconcile.Lead, error) {
	return f.leads, f.leadsErr
}

func (f *fakeCRM) FetchContacts(_ context.Context) ([]reconcile.Contact, error) {
	return f.contacts, nil
}

type fakeSink struct {
	requestID string
	rows      []reconcile.Row
	err       error
}

func (f *fakeSink) Push(_ context.Context, requestID string, rows []reconcile.Row) error {
	if f.err != nil {
		return f.err
	}
	f.requestID = requestID
	f.rows = rows
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func testService(crm *fakeCRM, sink *fakeSink, notifier *fakeNotifier) *Service {
	log := logger.New("development")
	return NewService(crm, sink, notifier, reconcile.NewEngine(log), log)
}

func sampleData() ([]reconcile.Lead, []reconcile.Contact) {
	price := 500.0
	contactID := int64(100)
	shipped := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	customerID := int64(7)
	leads := []reconcile.Lead{
		{ID: 1, Price: &price, ContactID: &contactID, ShipmentAt: &shipped},
	}
	contacts := []reconcile.Contact{
		{ID: 100, CustomerID: &customerID},
	}
	return leads, contacts
}

func TestRunDeliversRows(t *testing.T) {
	leads, contacts := sampleData()
	crm := &fakeCRM{leads: leads, contacts: contacts}
	sink := &fakeSink{}
	notifier := &fakeNotifier{}

	if err := testService(crm, sink, notifier).Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.requestID == "" {
		t.Fatalf("request id must be set")
	}
	if len(sink.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(sink.rows))
	}
	if sink.rows[0].LeadID != 1 || sink.rows[0].Price != 500 {
		t.Fatalf("unexpected row: %+v", sink.rows[0])
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("success must not notify, got %v", notifier.messages)
	}
}

func TestRunFetchFailureNotifies(t *testing.T) {
	crm := &fakeCRM{leadsErr: errors.New("boom")}
	sink := &fakeSink{}
	notifier := &fakeNotifier{}

	if err := testService(crm, sink, notifier).Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("failure must reach the operator, got %d messages", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "boom") {
		t.Fatalf("message must carry the cause: %q", notifier.messages[0])
	}
	if sink.requestID != "" {
		t.Fatalf("nothing should be pushed after a fetch failure")
	}
}

func TestRunSinkFailureNotifies(t *testing.T) {
	leads, contacts := sampleData()
	crm := &fakeCRM{leads: leads, contacts: contacts}
	sink := &fakeSink{err: errors.New("sink down")}
	notifier := &fakeNotifier{}

	if err := testService(crm, sink, notifier).Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("failure must reach the operator")
	}
}
