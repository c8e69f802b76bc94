package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImport(t *testing.T) {
	doc := []byte(`[
		{
			"exchange_product_id": "A592ACH005A",
			"exchange_product_name": "Бензин (АИ-92-К5)",
			"oil_id": "a592",
			"delivery_basis_id": "ach",
			"delivery_basis_name": "Ачинский НПЗ",
			"delivery_type_id": "a",
			"volume": 60,
			"total": 3900000,
			"count": 1,
			"date": "2025-07-01"
		}
	]`)

	trades, err := ParseImport(doc)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "A592", trades[0].OilID)
	assert.Equal(t, "ACH", trades[0].DeliveryBasisID)
	assert.Equal(t, "A", trades[0].DeliveryTypeID)
	assert.Equal(t, int64(3900000), trades[0].Total)
	assert.Equal(t, day("2025-07-01"), trades[0].Date)
}

func TestParseImportRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an array", `{"oil_id": "A592"}`},
		{"missing fields", `[{"oil_id": "A592"}]`},
		{"oil id too long", `[{"exchange_product_id": "A", "exchange_product_name": "n", "oil_id": "A5921",
			"delivery_basis_id": "ACH", "delivery_basis_name": "n", "delivery_type_id": "A",
			"volume": 1, "total": 1, "count": 1, "date": "2025-07-01"}]`},
		{"bad date", `[{"exchange_product_id": "A", "exchange_product_name": "n", "oil_id": "A592",
			"delivery_basis_id": "ACH", "delivery_basis_name": "n", "delivery_type_id": "A",
			"volume": 1, "total": 1, "count": 1, "date": "01.07.2025"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImport([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestParseImportMalformedJSON(t *testing.T) {
	_, err := ParseImport([]byte(`[{`))
	assert.Error(t, err)
}
