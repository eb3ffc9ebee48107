// Package balance implements the customer balance update orchestrator.
// A bonus-ledger webhook carries one ledger entry (shipment, return or
// correction); the orchestrator folds it into the customer's running clean
// purchase balance stored in the CRM.
package balance

import (
	"fmt"
	"math"
	"strings"

	"crmhub_backend/platform/apperr"
)

// DocumentType classifies a ledger entry.
type DocumentType string

const (
	DocumentShipment   DocumentType = "shipment"
	DocumentReturn     DocumentType = "return"
	DocumentCorrection DocumentType = "correction"
)

// ParseDocumentType maps the raw CRM enum value onto a DocumentType.
// The CRM stores the labels in Russian; the English slugs are accepted too.
func ParseDocumentType(raw string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "shipment", "отгрузка":
		return DocumentShipment, nil
	case "return", "возврат":
		return DocumentReturn, nil
	case "correction", "корректировка":
		return DocumentCorrection, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unknown document type %q", raw))
}

// Result holds the outcome of a balance transition.
type Result struct {
	Purified   float64
	NewBalance float64
}

// ComputeNewBalance applies one document-type transition to the previous
// balance. Purified is the purchase amount net of the bonus adjustment; the
// sign convention flips between shipments and returns.
func ComputeNewBalance(docType DocumentType, price, bonus, previous float64) (Result, error) {
	switch docType {
	case DocumentShipment:
		purified := price - math.Abs(bonus)
		if bonus < 0 {
			purified = price + math.Abs(bonus)
		}
		return Result{Purified: purified, NewBalance: previous + purified}, nil
	case DocumentReturn:
		purified := price + math.Abs(bonus)
		if bonus < 0 {
			purified = price - math.Abs(bonus)
		}
		return Result{Purified: purified, NewBalance: previous - purified}, nil
	case DocumentCorrection:
		return Result{Purified: price, NewBalance: previous + price}, nil
	}
	return Result{}, apperr.Validation(fmt.Sprintf("unknown document type %q", docType))
}
