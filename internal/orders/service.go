// Package orders turns marketplace orders into CRM contacts, leads and
// linked catalog products.
package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"crmhub_backend/internal/amocrm"
	"crmhub_backend/internal/market"
	"crmhub_backend/platform/apperr"
	"crmhub_backend/platform/logger"
	"crmhub_backend/platform/phone"
)

type MarketSource interface {
	GetOrder(ctx context.Context, orderID int64) (*market.Order, error)
	GetBuyer(ctx context.Context, orderID int64) (*market.Buyer, error)
}

type CRM interface {
	BaseURL() string
	FindContactByPhone(ctx context.Context, phoneDigits string) (int64, error)
	CreateContact(ctx context.Context, name, phoneNumber string) (int64, error)
	CreateLead(ctx context.Context, contactID int64, orderID string) (int64, error)
	AddLeadNote(ctx context.Context, leadID int64, text string) error
	LinkCatalogElements(ctx context.Context, leadID int64, items []amocrm.CatalogItem) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ProductResolver maps a marketplace SKU to a CRM catalog element id.
// Unknown SKUs resolve to zero and are skipped with a note instead.
type ProductResolver interface {
	ElementID(shopSKU string) int64
}

type Service struct {
	market   MarketSource
	crm      CRM
	notifier Notifier
	products ProductResolver
	log      *logger.Logger
}

func NewService(marketSrc MarketSource, crm CRM, notifier Notifier, products ProductResolver, log *logger.Logger) *Service {
	return &Service{
		market:   marketSrc,
		crm:      crm,
		notifier: notifier,
		products: products,
		log:      log,
	}
}

// HandleOrder processes one new marketplace order: find or create the
// buyer's contact, open an order lead on it, note the order contents and
// link the ordered products.
func (s *Service) HandleOrder(ctx context.Context, orderID int64) error {
	order, err := s.market.GetOrder(ctx, orderID)
	if err != nil {
		return s.report(ctx, orderID, fmt.Errorf("fetch order: %w", err))
	}

	buyer, err := s.market.GetBuyer(ctx, orderID)
	if err != nil {
		return s.report(ctx, orderID, fmt.Errorf("fetch buyer: %w", err))
	}

	normalized := phone.NormalizeE164(buyer.Phone)
	digits := phone.NationalDigits(buyer.Phone)

	contactID, err := s.crm.FindContactByPhone(ctx, digits)
	switch {
	case err == nil:
	case apperr.GetKind(err) == apperr.KindNotFound:
		name := strings.TrimSpace(buyer.FirstName + " " + buyer.LastName)
		if name == "" {
			name = "Покупатель с маркета"
		}
		contactID, err = s.crm.CreateContact(ctx, name, normalized)
		if err != nil {
			return s.report(ctx, orderID, fmt.Errorf("create contact: %w", err))
		}
		s.log.Info("contact created for order", "order_id", orderID, "contact_id", contactID)
	case apperr.GetKind(err) == apperr.KindConflict:
		return s.report(ctx, orderID, fmt.Errorf("ambiguous phone %s: %w", normalized, err))
	default:
		return s.report(ctx, orderID, fmt.Errorf("search contact: %w", err))
	}

	leadID, err := s.crm.CreateLead(ctx, contactID, strconv.FormatInt(order.ID, 10))
	if err != nil {
		return s.report(ctx, orderID, fmt.Errorf("create lead: %w", err))
	}

	if err := s.crm.AddLeadNote(ctx, leadID, orderNote(order, buyer)); err != nil {
		s.log.Error("failed to note lead", "lead_id", leadID, "error", err)
	}

	if err := s.crm.LinkCatalogElements(ctx, leadID, s.resolveItems(order)); err != nil {
		s.log.Error("failed to link products", "lead_id", leadID, "error", err)
	}

	s.notifySuccess(ctx, order, contactID, leadID)
	return nil
}

func (s *Service) resolveItems(order *market.Order) []amocrm.CatalogItem {
	var items []amocrm.CatalogItem
	for _, item := range order.Items {
		elementID := s.products.ElementID(item.ShopSKU)
		if elementID == 0 {
			s.log.Warn("unknown marketplace SKU", "sku", item.ShopSKU, "order_id", order.ID)
			continue
		}
		items = append(items, amocrm.CatalogItem{ElementID: elementID, Quantity: item.Count})
	}
	return items
}

func orderNote(order *market.Order, buyer *market.Buyer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Заказ Яндекс Маркет №%d\n", order.ID)
	fmt.Fprintf(&b, "Покупатель: %s %s, %s\n", buyer.FirstName, buyer.LastName, buyer.Phone)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s x%d по %.2f\n", item.OfferName, item.Count, item.Price)
	}
	return b.String()
}

func (s *Service) notifySuccess(ctx context.Context, order *market.Order, contactID, leadID int64) {
	text := fmt.Sprintf(
		"🛒 <b>Новый заказ с маркета №%d</b>\nСделка: %s/leads/detail/%d\nКонтакт: %s/contacts/detail/%d",
		order.ID, s.crm.BaseURL(), leadID, s.crm.BaseURL(), contactID,
	)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error("failed to notify operator", "error", err)
	}
}

func (s *Service) report(ctx context.Context, orderID int64, cause error) error {
	s.log.Error("order processing failed", "order_id", orderID, "error", cause)
	text := fmt.Sprintf("❌ <b>Заказ с маркета №%d не обработан</b>\nОшибка: %v", orderID, cause)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Error("failed to notify operator", "error", err)
	}
	return cause
}
