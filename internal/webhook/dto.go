package webhook

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"crmhub_backend/internal/balance"
	"crmhub_backend/platform/apperr"
)

// The CRM delivers catalog-element events form-encoded, with the element's
// custom fields addressed positionally:
//
//	catalogs[add][0][id]                                      ledger entry id
//	catalogs[add][0][custom_fields][0][values][0][value]      customer id
//	catalogs[add][0][custom_fields][1][values][0][value]      price
//	catalogs[add][0][custom_fields][2][values][0][value]      bonus
//	catalogs[add][0][custom_fields][3][values][0][value]      document type
const ledgerPrefix = "catalogs[add][0]"

func ledgerFieldKey(index int) string {
	return fmt.Sprintf("%s[custom_fields][%d][values][0][value]", ledgerPrefix, index)
}

// parseLedgerForm decodes one bonus-ledger event from the webhook form body.
func parseLedgerForm(form url.Values) (balance.LedgerEntry, error) {
	var entry balance.LedgerEntry

	rawID := form.Get(ledgerPrefix + "[id]")
	if rawID == "" {
		return entry, apperr.BadRequest("ledger event missing element id")
	}
	entryID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return entry, apperr.BadRequest("malformed ledger element id")
	}

	customerID, err := strconv.ParseInt(form.Get(ledgerFieldKey(0)), 10, 64)
	if err != nil {
		return entry, apperr.BadRequest("malformed customer id")
	}

	price, err := parseAmount(form.Get(ledgerFieldKey(1)))
	if err != nil {
		return entry, apperr.BadRequest("malformed price")
	}

	bonus := 0.0
	if raw := form.Get(ledgerFieldKey(2)); raw != "" {
		bonus, err = parseAmount(raw)
		if err != nil {
			return entry, apperr.BadRequest("malformed bonus")
		}
	}

	docType := strings.TrimSpace(form.Get(ledgerFieldKey(3)))
	if docType == "" {
		return entry, apperr.BadRequest("ledger event missing document type")
	}

	entry.EntryID = entryID
	entry.CustomerID = customerID
	entry.Price = price
	entry.Bonus = bonus
	entry.DocumentType = docType
	return entry, nil
}

func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
}

// marketOrderRequest is the marketplace's new-order notification body.
type marketOrderRequest struct {
	Order struct {
		ID int64 `json:"id" validate:"required"`
	} `json:"order"`
}

// visitRequest carries landing-page attribution parameters. Everything is
// optional; an empty hit is still a row.
type visitRequest struct {
	UTMSource   string `form:"utm_source" json:"utm_source" validate:"max=255"`
	UTMMedium   string `form:"utm_medium" json:"utm_medium" validate:"max=255"`
	UTMCampaign string `form:"utm_campaign" json:"utm_campaign" validate:"max=255"`
	UTMContent  string `form:"utm_content" json:"utm_content" validate:"max=255"`
	UTMTerm     string `form:"utm_term" json:"utm_term" validate:"max=255"`
	YclID       string `form:"yclid" json:"yclid" validate:"max=255"`
	CmID        string `form:"cm_id" json:"cm_id" validate:"max=255"`
	Block       string `form:"block" json:"block" validate:"max=255"`
}
