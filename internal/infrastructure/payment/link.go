package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// LinkBuilder produces checkout URLs for the external payment gateway.
// The gateway resolves the order by id, so the link carries no amount.
type LinkBuilder struct {
	baseURL string
}

func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *LinkBuilder) PaymentLink(_ context.Context, order *domain.Order) (string, error) {
	if order == nil || strings.TrimSpace(order.ID) == "" {
		return "", fmt.Errorf("payment link: missing order id")
	}
	if b.baseURL == "" {
		return "", fmt.Errorf("payment link: base url is not configured")
	}
	return b.baseURL + "/checkout/" + url.PathEscape(order.ID), nil
}
