package siat

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
)

// DefaultQRSize lado en píxeles de la imagen QR.
const DefaultQRSize = 250

const dataURLPrefix = "data:image/png;base64,"

// QRPayload arma el contenido del QR: NIT|numeroFactura|autorización|yyyy-MM-dd|total|CUF.
func QRPayload(nit, invoiceNumber, authorizationCode string, emittedAt time.Time, total decimal.Decimal, cuf string) string {
	return strings.Join([]string{
		nit,
		invoiceNumber,
		authorizationCode,
		emittedAt.Format("2006-01-02"),
		money(total),
		cuf,
	}, "|")
}

// QRGenerator genera la imagen PNG del QR (corrección de errores nivel M).
type QRGenerator struct {
	size int
}

// NewQRGenerator crea el generador; size <= 0 usa DefaultQRSize.
func NewQRGenerator(size int) *QRGenerator {
	if size <= 0 {
		size = DefaultQRSize
	}
	return &QRGenerator{size: size}
}

// PNG devuelve la imagen cuadrada de lado size con un margen blanco de un módulo.
func (g *QRGenerator) PNG(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("siat: codificar QR: %w", err)
	}
	modules := code.Bounds().Dx()
	px := g.size / (modules + 2)
	if px < 1 {
		return nil, fmt.Errorf("siat: %d px no alcanzan para un QR de %d módulos", g.size, modules)
	}
	inner := px * modules
	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return nil, fmt.Errorf("siat: escalar QR: %w", err)
	}

	canvas := image.NewGray(image.Rect(0, 0, g.size, g.size))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	offset := (g.size - inner) / 2
	draw.Draw(canvas, image.Rect(offset, offset, offset+inner, offset+inner), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("siat: PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL devuelve el PNG como data URL lista para incrustar.
func (g *QRGenerator) DataURL(payload string) (string, error) {
	img, err := g.PNG(payload)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(img), nil
}

func money(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
