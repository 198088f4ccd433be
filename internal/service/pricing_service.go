package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/pkg/config"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
)

// PriceCalculator quotes a demand set. The core matcher never prices
// anything; quoting happens on the checkout path only.
type PriceCalculator interface {
	QuoteSessions(ctx context.Context, items []models.DemandItem) (*models.PriceQuote, error)
}

// HTTPPricingClient talks to the external pricing collaborator.
type HTTPPricingClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPPricingClient builds a client against the configured base URL.
func NewHTTPPricingClient(cfg config.PricingConfig, logger *zap.Logger) *HTTPPricingClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPPricingClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type quoteRequest struct {
	Items []quoteItem `json:"items"`
}

type quoteItem struct {
	SubjectID    string             `json:"subjectId"`
	TeachingType models.SessionType `json:"teachingType"`
	Sessions     int                `json:"sessions"`
}

// QuoteSessions posts the demand set to the pricing service.
func (c *HTTPPricingClient) QuoteSessions(ctx context.Context, items []models.DemandItem) (*models.PriceQuote, error) {
	payload := quoteRequest{Items: make([]quoteItem, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, quoteItem{
			SubjectID:    item.SubjectID,
			TeachingType: item.TeachingType,
			Sessions:     item.RequestedSessions,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal quote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pricing service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("pricing service returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, appErrors.Wrap(fmt.Errorf("pricing status %d", resp.StatusCode),
			appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pricing service error")
	}

	var quote models.PriceQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("decode quote response: %w", err)
	}
	return &quote, nil
}
