package siat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"
)

// Esquema de la factura electrónica de compra-venta.
const (
	RootElement          = "facturaElectronicaCompraVenta"
	SchemaLocation       = "facturaElectronicaCompraVenta.xsd"
	NamespaceXSIInstance = "http://www.w3.org/2001/XMLSchema-instance"
	EmissionLayout       = "2006-01-02 15:04:05"
)

// XMLBuilderService construye el XML de la factura con etree.
type XMLBuilderService struct {
	indent int
}

// NewXMLBuilderService crea el builder (indentación de 2 espacios).
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{indent: 2}
}

// Build genera el documento:
//
//	facturaElectronicaCompraVenta
//	  cabecera: cuf, cufd, numeroFactura, fechaEmision, emisor, cliente
//	  detalle: item*
//	  montos: montoTotal, montoDescuento, montoTotalSujetoIva
func (s *XMLBuilderService) Build(doc InvoiceDocument) (*etree.Document, error) {
	if doc.CUF == "" || doc.InvoiceNumber == "" {
		return nil, fmt.Errorf("siat: CUF y número de factura son obligatorios")
	}
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("siat: la factura debe tener al menos una línea")
	}

	x := etree.NewDocument()
	x.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := x.CreateElement(RootElement)
	root.CreateAttr("xmlns:xsi", NamespaceXSIInstance)
	root.CreateAttr("xsi:noNamespaceSchemaLocation", SchemaLocation)

	cab := root.CreateElement("cabecera")
	text(cab, "cuf", doc.CUF)
	text(cab, "cufd", doc.CUFD)
	text(cab, "numeroFactura", doc.InvoiceNumber)
	text(cab, "fechaEmision", doc.EmittedAt.Format(EmissionLayout))

	emisor := cab.CreateElement("emisor")
	text(emisor, "nit", doc.Issuer.NIT)
	text(emisor, "razonSocial", doc.Issuer.RazonSocial)

	cliente := cab.CreateElement("cliente")
	text(cliente, "nombreRazonSocial", doc.Customer.Name)
	text(cliente, "numeroDocumento", doc.Customer.DocumentNumber)
	if c := strings.TrimSpace(doc.Customer.Complement); c != "" {
		text(cliente, "complemento", c)
	}

	detalle := root.CreateElement("detalle")
	for i, l := range doc.Lines {
		item := detalle.CreateElement("item")
		text(item, "numeroItem", strconv.Itoa(i+1))
		text(item, "descripcion", l.Description)
		text(item, "cantidad", strconv.Itoa(l.Quantity))
		text(item, "precioUnitario", money(l.UnitPrice))
		text(item, "montoTotal", money(l.Total))
	}

	montos := root.CreateElement("montos")
	text(montos, "montoTotal", money(doc.Subtotal))
	text(montos, "montoDescuento", money(doc.Discount))
	text(montos, "montoTotalSujetoIva", money(doc.Total))

	x.Indent(s.indent)
	return x, nil
}

// BuildString genera el XML serializado.
func (s *XMLBuilderService) BuildString(doc InvoiceDocument) (string, error) {
	x, err := s.Build(doc)
	if err != nil {
		return "", err
	}
	out, err := x.WriteToString()
	if err != nil {
		return "", fmt.Errorf("siat: serializar XML: %w", err)
	}
	return out, nil
}

// text agrega un elemento hijo con texto normalizado (NFC).
func text(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(norm.NFC.String(strings.TrimSpace(value)))
}
