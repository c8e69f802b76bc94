package trading

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// importSchema describes the JSON document accepted by the import command:
// an array of trade records with dates as YYYY-MM-DD.
const importSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": [
      "exchange_product_id", "exchange_product_name", "oil_id",
      "delivery_basis_id", "delivery_basis_name", "delivery_type_id",
      "volume", "total", "count", "date"
    ],
    "properties": {
      "id":                    {"type": "integer", "minimum": 0},
      "exchange_product_id":   {"type": "string", "minLength": 1, "maxLength": 11},
      "exchange_product_name": {"type": "string"},
      "oil_id":                {"type": "string", "minLength": 1, "maxLength": 4},
      "delivery_basis_id":     {"type": "string", "minLength": 1, "maxLength": 3},
      "delivery_basis_name":   {"type": "string"},
      "delivery_type_id":      {"type": "string", "minLength": 1, "maxLength": 1},
      "volume":                {"type": "integer"},
      "total":                 {"type": "integer"},
      "count":                 {"type": "integer"},
      "date":                  {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
    }
  }
}`

var importSchemaLoader = gojsonschema.NewStringLoader(importSchema)

type importRecord struct {
	ID                  int64  `json:"id"`
	ExchangeProductID   string `json:"exchange_product_id"`
	ExchangeProductName string `json:"exchange_product_name"`
	OilID               string `json:"oil_id"`
	DeliveryBasisID     string `json:"delivery_basis_id"`
	DeliveryBasisName   string `json:"delivery_basis_name"`
	DeliveryTypeID      string `json:"delivery_type_id"`
	Volume              int64  `json:"volume"`
	Total               int64  `json:"total"`
	Count               int64  `json:"count"`
	Date                string `json:"date"`
}

// ParseImport validates doc against the import schema and decodes it.
func ParseImport(doc []byte) ([]Trade, error) {
	result, err := gojsonschema.Validate(importSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}

	var records []importRecord
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, fmt.Errorf("failed to decode trades: %w", err)
	}

	trades := make([]Trade, 0, len(records))
	for i, rec := range records {
		date, err := ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrValidation, i, err)
		}
		trades = append(trades, Trade{
			ID:                  rec.ID,
			ExchangeProductID:   rec.ExchangeProductID,
			ExchangeProductName: rec.ExchangeProductName,
			OilID:               strings.ToUpper(rec.OilID),
			DeliveryBasisID:     strings.ToUpper(rec.DeliveryBasisID),
			DeliveryBasisName:   rec.DeliveryBasisName,
			DeliveryTypeID:      strings.ToUpper(rec.DeliveryTypeID),
			Volume:              rec.Volume,
			Total:               rec.Total,
			Count:               rec.Count,
			Date:                date,
		})
	}
	return trades, nil
}
