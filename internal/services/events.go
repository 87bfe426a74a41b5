package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	RoutingKeySaleRecorded = "sale.recorded"
	RoutingKeyStockLow     = "stock.low"
)

// EventPublisher sends inventory events to a broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// SaleRecordedEvent is published after each committed basket line.
type SaleRecordedEvent struct {
	EventID           string          `json:"eventId"`
	SaleID            uint            `json:"saleId"`
	ProductID         uint            `json:"productId"`
	ProductCode       string          `json:"productCode"`
	QuantitySold      int             `json:"quantitySold"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	RemainingQuantity int             `json:"remainingQuantity"`
	SoldBy            string          `json:"soldBy"`
	SaleDate          time.Time       `json:"saleDate"`
}

// StockLowEvent is published when a sale leaves a product at or below the threshold.
type StockLowEvent struct {
	EventID   string `json:"eventId"`
	ProductID uint   `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// publishEvent never fails the caller; broker problems are only logged.
func publishEvent(publisher EventPublisher, routingKey string, event interface{}) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("failed to marshal event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	if err := publisher.Publish(routingKey, body); err != nil {
		zap.L().Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func newEventID() string {
	return uuid.New().String()
}

// LogInventoryEvent writes a consumed inventory event to the audit log.
// Unknown routing keys and malformed bodies are rejected.
func LogInventoryEvent(routingKey string, body []byte) error {
	switch routingKey {
	case RoutingKeySaleRecorded:
		var event SaleRecordedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("decode %s: %w", routingKey, err)
		}
		zap.L().Info("audit: sale recorded",
			zap.Uint("sale_id", event.SaleID),
			zap.Uint("product_id", event.ProductID),
			zap.Int("quantity_sold", event.QuantitySold),
			zap.Int("remaining", event.RemainingQuantity),
			zap.String("sold_by", event.SoldBy))
	case RoutingKeyStockLow:
		var event StockLowEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("decode %s: %w", routingKey, err)
		}
		zap.L().Warn("audit: stock low",
			zap.Uint("product_id", event.ProductID),
			zap.String("name", event.Name),
			zap.Int("quantity", event.Quantity),
			zap.Int("threshold", event.Threshold))
	default:
		return fmt.Errorf("unknown inventory event %q", routingKey)
	}
	return nil
}
