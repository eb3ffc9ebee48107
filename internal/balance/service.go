package balance

import (
	"context"
	"fmt"
	"strconv"

	"crmhub_backend/platform/logger"
)

// BalanceStore reads and writes the custom-field-backed customer balances.
// A customer without a value for the field reads as 0.
type BalanceStore interface {
	CustomerFieldAmount(ctx context.Context, customerID, fieldID int64) (float64, error)
	UpdateCustomerField(ctx context.Context, customerID, fieldID int64, value string) error
}

// Notifier delivers operator-channel messages.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Fields names the CRM custom fields the orchestrator touches.
type Fields struct {
	CleanPrice   int64
	BonusBalance int64
}

// LedgerEntry is one decoded bonus-ledger webhook event.
type LedgerEntry struct {
	EntryID      int64
	CustomerID   int64
	Price        float64
	Bonus        float64
	DocumentType string
}

// Service is the balance update orchestrator.
type Service struct {
	store    BalanceStore
	notifier Notifier
	fields   Fields
	crmURL   string
	log      *logger.Logger
}

// NewService creates the orchestrator. crmURL is the CRM web UI base used in
// operator notification links.
func NewService(store BalanceStore, notifier Notifier, fields Fields, crmURL string, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		fields:   fields,
		crmURL:   crmURL,
		log:      log,
	}
}

// Apply folds one ledger entry into the customer's clean purchase balance and
// writes the result back to the CRM. Every failure is reported to the operator
// channel with full context and returned to the caller; the caller's HTTP
// response is not affected.
func (s *Service) Apply(ctx context.Context, entry LedgerEntry) error {
	docType, err := ParseDocumentType(entry.DocumentType)
	if err != nil {
		return s.report(ctx, entry, err)
	}

	previous, err := s.store.CustomerFieldAmount(ctx, entry.CustomerID, s.fields.CleanPrice)
	if err != nil {
		return s.report(ctx, entry, fmt.Errorf("fetch balance: %w", err))
	}

	result, err := ComputeNewBalance(docType, entry.Price, entry.Bonus, previous)
	if err != nil {
		return s.report(ctx, entry, err)
	}

	value := strconv.FormatFloat(result.NewBalance, 'f', -1, 64)
	if err := s.store.UpdateCustomerField(ctx, entry.CustomerID, s.fields.CleanPrice, value); err != nil {
		return s.report(ctx, entry, fmt.Errorf("write balance: %w", err))
	}

	s.log.Info("balance updated",
		"customer_id", entry.CustomerID,
		"entry_id", entry.EntryID,
		"document_type", string(docType),
		"purified", result.Purified,
		"new_balance", result.NewBalance,
	)

	s.notifySuccess(ctx, entry, result)
	return nil
}

func (s *Service) notifySuccess(ctx context.Context, entry LedgerEntry, result Result) {
	// Remaining bonus balance is read only to enrich the operator message;
	// a read failure must not undo a completed update.
	bonusLine := ""
	if bonus, err := s.store.CustomerFieldAmount(ctx, entry.CustomerID, s.fields.BonusBalance); err == nil {
		bonusLine = fmt.Sprintf("\nБонусный баланс: %.2f руб.", bonus)
	}

	text := fmt.Sprintf(
		"В покупателя id <a href=\"%s/customers/detail/%d\">%d</a> добавлен чистый выкуп %.2f руб.\n"+
			"Новый баланс: %.2f руб.%s\n"+
			"Запись в логе бонусов id <a href=\"%s/catalogs/detail/%d\">%d</a>.",
		s.crmURL, entry.CustomerID, entry.CustomerID, result.Purified,
		result.NewBalance, bonusLine,
		s.crmURL, entry.EntryID, entry.EntryID,
	)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error("operator notification failed", "error", err)
	}
}

func (s *Service) report(ctx context.Context, entry LedgerEntry, cause error) error {
	s.log.Error("balance update failed",
		"customer_id", entry.CustomerID,
		"entry_id", entry.EntryID,
		"error", cause,
	)

	text := fmt.Sprintf(
		"Ошибка при добавлении чистого выкупа в покупателя id <a href=\"%s/customers/detail/%d\">%d</a>.\n"+
			"Запись в логе бонусов id <a href=\"%s/catalogs/detail/%d\">%d</a>.\n"+
			"Ошибка: %s",
		s.crmURL, entry.CustomerID, entry.CustomerID,
		s.crmURL, entry.EntryID, entry.EntryID,
		cause.Error(),
	)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error("operator notification failed", "error", err)
	}

	return cause
}
