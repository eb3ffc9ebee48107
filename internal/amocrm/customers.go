package amocrm

import (
	"context"
	"fmt"

	"crmhub_backend/internal/reconcile"
)

// CustomerFieldAmount reads one numeric custom field off a customer card.
// A customer without the field carries a zero balance, not an error.
func (c *Client) CustomerFieldAmount(ctx context.Context, customerID, fieldID int64) (float64, error) {
	var dto customerDTO
	path := fmt.Sprintf("%s/customers/%d", apiPrefix, customerID)
	if err := c.getJSON(ctx, path, nil, &dto); err != nil {
		return 0, err
	}

	raw, ok := dto.CustomFieldsValues.Value(fieldID)
	if !ok {
		return 0, nil
	}
	return reconcile.ToAmount(raw), nil
}

// UpdateCustomerField patches a single custom field value on a customer card.
func (c *Client) UpdateCustomerField(ctx context.Context, customerID, fieldID int64, value string) error {
	path := fmt.Sprintf("%s/customers/%d", apiPrefix, customerID)
	body := map[string]any{"custom_fields_values": setField(fieldID, value)}
	return c.sendJSON(ctx, "PATCH", path, body, nil)
}
