package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
	"github.com/saludtotal/farmacia-ventas/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculate_UnaLineaSinDescuento(t *testing.T) {
	totals, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("12.00"), Quantity: 2, Discount: decimal.Zero},
	}, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, "24.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", totals.Discount.StringFixed(2))
	assert.Equal(t, "0.00", totals.Tax.StringFixed(2))
	assert.Equal(t, "24.00", totals.Total.StringFixed(2))
	require.Len(t, totals.Lines, 1)
	assert.Equal(t, "24.00", totals.Lines[0].Total.StringFixed(2))
}

func TestCalculate_DescuentosDeLineaYGlobal(t *testing.T) {
	totals, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("10.50"), Quantity: 3, Discount: d("1.50")},
		{UnitPrice: d("4.25"), Quantity: 2, Discount: decimal.Zero},
	}, d("2.00"))
	require.NoError(t, err)

	assert.Equal(t, "40.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "3.50", totals.Discount.StringFixed(2))
	assert.Equal(t, "36.50", totals.Total.StringFixed(2))
	assert.Equal(t, "30.00", totals.Lines[0].Total.StringFixed(2))
}

// La identidad total = subtotal − descuento + impuesto y total ≥ 0 se cumplen para cualquier entrada válida.
func TestCalculate_IdentidadDelTotal(t *testing.T) {
	inputs := [][]pricing.Line{
		{{UnitPrice: d("0.01"), Quantity: 1, Discount: d("0.01")}},
		{{UnitPrice: d("0.10"), Quantity: 3, Discount: decimal.Zero}, {UnitPrice: d("0.20"), Quantity: 7, Discount: d("0.05")}},
		{{UnitPrice: d("99.99"), Quantity: 100, Discount: d("999.99")}},
	}
	for _, lines := range inputs {
		totals, err := pricing.Calculate(lines, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, totals.Total.Equal(totals.Subtotal.Sub(totals.Discount).Add(totals.Tax)))
		assert.False(t, totals.Total.IsNegative())
	}
	// 0.1 × 3 exacto, sin error de punto flotante
	totals, _ := pricing.Calculate(inputs[1], decimal.Zero)
	assert.Equal(t, "1.65", totals.Total.String())
}

func TestCalculate_DescuentoGlobalMayorQueSubtotal(t *testing.T) {
	_, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("5.00"), Quantity: 1, Discount: decimal.Zero},
	}, d("5.01"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidDiscount))
}

func TestCalculate_DescuentoDeLineaMayorQueSuSubtotal(t *testing.T) {
	_, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("5.00"), Quantity: 1, Discount: d("6.00")},
		{UnitPrice: d("50.00"), Quantity: 1, Discount: decimal.Zero},
	}, decimal.Zero)

	assert.True(t, errors.Is(err, domain.ErrInvalidDiscount))
}

func TestCalculate_EntradasInvalidas(t *testing.T) {
	_, err := pricing.Calculate([]pricing.Line{{UnitPrice: d("1"), Quantity: 0}}, decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "cantidad cero")

	_, err = pricing.Calculate([]pricing.Line{{UnitPrice: d("1"), Quantity: 1, Discount: d("-1")}}, decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "descuento negativo")

	_, err = pricing.Calculate([]pricing.Line{{UnitPrice: d("1"), Quantity: 1}}, d("-0.5"))
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "descuento global negativo")
}

func TestCalculate_FraccionDeCentavo(t *testing.T) {
	_, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("12.00"), Quantity: 1, Discount: d("0.005")},
	}, decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "descuento de línea con 3 decimales")

	_, err = pricing.Calculate([]pricing.Line{
		{UnitPrice: d("12.00"), Quantity: 1, Discount: decimal.Zero},
	}, d("0.001"))
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "descuento global con 3 decimales")

	totals, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("12.00"), Quantity: 1, Discount: d("0.500")},
	}, decimal.Zero)
	require.NoError(t, err, "ceros a la derecha no son fracción de centavo")
	assert.Equal(t, "11.50", totals.Total.StringFixed(2))
}

// Con precios de catálogo de más de 2 decimales los importes ya redondeados siguen cuadrando.
func TestCalculate_PrecioSeRedondeaAntesDeSumar(t *testing.T) {
	totals, err := pricing.Calculate([]pricing.Line{
		{UnitPrice: d("3.335"), Quantity: 3, Discount: d("0.01")},
		{UnitPrice: d("0.004"), Quantity: 7, Discount: decimal.Zero},
	}, d("0.05"))
	require.NoError(t, err)

	assert.Equal(t, "3.34", totals.Lines[0].UnitPrice.String())
	assert.Equal(t, "10.02", totals.Lines[0].Subtotal.String())
	assert.True(t, totals.Lines[1].Subtotal.IsZero())
	assert.Equal(t, "10.02", totals.Subtotal.String())
	assert.Equal(t, "9.96", totals.Total.String())

	rounded := func(x decimal.Decimal) decimal.Decimal { return x.Round(2) }
	assert.True(t, rounded(totals.Total).Equal(rounded(totals.Subtotal).Sub(rounded(totals.Discount)).Add(rounded(totals.Tax))),
		"la identidad vale sobre los montos a 2 decimales")
}
