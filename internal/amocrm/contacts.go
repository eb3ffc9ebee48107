package amocrm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"crmhub_backend/internal/reconcile"
	"crmhub_backend/platform/apperr"
)

// FetchContacts pages through all contacts with their linked customers and
// decodes them into the reconciliation model.
func (c *Client) FetchContacts(ctx context.Context) ([]reconcile.Contact, error) {
	var all []reconcile.Contact

	for page := 1; ; page++ {
		c.log.Info("fetching contacts page", "page", page)

		query := url.Values{}
		query.Set("with", "customers")
		query.Set("limit", strconv.Itoa(c.pageLimit))
		query.Set("page", strconv.Itoa(page))

		var result contactsPage
		if err := c.getJSON(ctx, apiPrefix+"/contacts", query, &result); err != nil {
			if isNotFound(err) {
				break
			}
			return nil, err
		}

		items := result.Embedded.Contacts
		if len(items) == 0 {
			break
		}

		for _, dto := range items {
			all = append(all, c.decodeContact(dto))
		}

		if len(items) < c.pageLimit {
			break
		}
	}

	return all, nil
}

func (c *Client) decodeContact(dto contactDTO) reconcile.Contact {
	contact := reconcile.Contact{
		ID:         dto.ID,
		CustomerID: dto.firstCustomerID(),
	}
	if raw, ok := dto.CustomFieldsValues.Value(c.fields.GetFieldAttestedAt()); ok {
		contact.AttestedAt = reconcile.ToInstant(raw)
	}
	return contact
}

// FindContactByPhone looks a contact up by its phone digits. Exactly one
// match is required: none maps to NotFound, several to Conflict so the
// caller can hand the ambiguity to an operator instead of guessing.
func (c *Client) FindContactByPhone(ctx context.Context, phoneDigits string) (int64, error) {
	query := url.Values{}
	query.Set("query", phoneDigits)

	var result contactsPage
	if err := c.getJSON(ctx, apiPrefix+"/contacts", query, &result); err != nil {
		return 0, err
	}

	matches := result.Embedded.Contacts
	switch len(matches) {
	case 0:
		return 0, apperr.NotFound("no contact matches phone").WithOp("contacts.search")
	case 1:
		return matches[0].ID, nil
	default:
		return 0, apperr.Conflict(fmt.Sprintf("%d contacts match phone", len(matches))).WithOp("contacts.search")
	}
}

// CreateContact creates a contact with the given name and phone.
func (c *Client) CreateContact(ctx context.Context, name, phone string) (int64, error) {
	payload := []map[string]any{
		{
			"name": name,
			"custom_fields_values": []map[string]any{
				{
					"field_id": c.fields.GetFieldContactPhone(),
					"values":   []map[string]any{{"value": phone, "enum_code": "WORK"}},
				},
			},
		},
	}

	var result createdContactsResponse
	if err := c.sendJSON(ctx, "POST", apiPrefix+"/contacts", payload, &result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Contacts) == 0 {
		return 0, fmt.Errorf("contact creation returned no contact")
	}
	return result.Embedded.Contacts[0].ID, nil
}
