package amocrm

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"crmhub_backend/internal/reconcile"
)

// FetchShippedLeads pages through the shipped pipeline/status leads with
// their contacts and decodes them into the reconciliation model.
func (c *Client) FetchShippedLeads(ctx context.Context) ([]reconcile.Lead, error) {
	var all []reconcile.Lead

	for page := 1; ; page++ {
		c.log.Info("fetching leads page", "page", page)

		query := url.Values{}
		query.Set("filter[pipeline_id][]", strconv.FormatInt(c.fields.GetShippedPipelineID(), 10))
		query.Set("filter[statuses][0][pipeline_id]", strconv.FormatInt(c.fields.GetShippedPipelineID(), 10))
		query.Set("filter[statuses][0][status_id]", strconv.FormatInt(c.fields.GetShippedStatusID(), 10))
		query.Set("with", "contacts")
		query.Set("limit", strconv.Itoa(c.pageLimit))
		query.Set("page", strconv.Itoa(page))

		var result leadsPage
		if err := c.getJSON(ctx, apiPrefix+"/leads", query, &result); err != nil {
			if isNotFound(err) {
				break
			}
			return nil, err
		}

		items := result.Embedded.Leads
		if len(items) == 0 {
			break
		}

		for _, dto := range items {
			all = append(all, c.decodeLead(dto))
		}

		if len(items) < c.pageLimit {
			break
		}
	}

	return all, nil
}

func (c *Client) decodeLead(dto leadDTO) reconcile.Lead {
	lead := reconcile.Lead{
		ID:        dto.ID,
		Price:     dto.Price,
		CreatedAt: reconcile.ToInstant(dto.CreatedAt),
		ClosedAt:  reconcile.ToInstant(dto.ClosedAt),
		ContactID: dto.mainContactID(),
	}
	if raw, ok := dto.CustomFieldsValues.Value(c.fields.GetFieldShipmentAt()); ok {
		lead.ShipmentAt = reconcile.ToInstant(raw)
	}
	return lead
}

// CreateLead creates an order lead bound to the contact, carrying the
// marketplace order id in a custom field.
func (c *Client) CreateLead(ctx context.Context, contactID int64, orderID string) (int64, error) {
	payload := []map[string]any{
		{
			"name":                "Заказ с маркета",
			"pipeline_id":         c.fields.GetOrderPipelineID(),
			"status_id":           c.fields.GetOrderStatusID(),
			"created_by":          0,
			"responsible_user_id": c.fields.GetResponsibleUserID(),
			"custom_fields_values": CustomFields{
				{FieldID: c.fields.GetFieldOrderID(), Values: []FieldValue{{Value: orderID}}},
			},
			"_embedded": map[string]any{
				"tags":     []map[string]any{{"id": c.fields.GetOrderTagID()}},
				"contacts": []map[string]any{{"id": contactID}},
			},
		},
	}

	var result createdLeadsResponse
	if err := c.sendJSON(ctx, "POST", apiPrefix+"/leads", payload, &result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Leads) == 0 {
		return 0, fmt.Errorf("lead creation returned no lead")
	}
	return result.Embedded.Leads[0].ID, nil
}

// AddLeadNote attaches a common note to the lead.
func (c *Client) AddLeadNote(ctx context.Context, leadID int64, text string) error {
	payload := []map[string]any{
		{
			"note_type": "common",
			"params":    map[string]any{"text": text},
		},
	}
	return c.sendJSON(ctx, "POST", fmt.Sprintf("%s/leads/%d/notes", apiPrefix, leadID), payload, nil)
}

// CatalogItem is one ordered product to link into a lead.
type CatalogItem struct {
	ElementID int64
	Quantity  int
}

// LinkCatalogElements binds ordered catalog elements with quantities to a lead.
func (c *Client) LinkCatalogElements(ctx context.Context, leadID int64, items []CatalogItem) error {
	if len(items) == 0 {
		return nil
	}

	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, map[string]any{
			"to_entity_id":   item.ElementID,
			"to_entity_type": "catalog_elements",
			"metadata": map[string]any{
				"quantity":   item.Quantity,
				"catalog_id": c.fields.GetProductCatalogID(),
			},
		})
	}

	return c.sendJSON(ctx, "POST", fmt.Sprintf("%s/leads/%d/link", apiPrefix, leadID), payload, nil)
}
