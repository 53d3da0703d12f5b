package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestNotFoundPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	engine.NotFound(rec, httptest.NewRequest(http.MethodGet, "/product/999", nil), nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "nenalezena")
}

func TestMoneyFormatting(t *testing.T) {
	money := Funcs()["money"].(func(d decimal.Decimal) string)
	assert.Equal(t, "30.00 Kč", money(decimal.RequireFromString("30")))
	assert.Equal(t, "1234.50 Kč", money(decimal.RequireFromString("1234.5")))
}
