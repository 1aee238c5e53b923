package siat

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// InvoiceEncoder genera QR, XML y hash de una factura.
type InvoiceEncoder struct {
	xml *XMLBuilderService
	qr  *QRGenerator
}

// NewInvoiceEncoder construye el encoder.
func NewInvoiceEncoder(xmlBuilder *XMLBuilderService, qrGen *QRGenerator) *InvoiceEncoder {
	return &InvoiceEncoder{xml: xmlBuilder, qr: qrGen}
}

// Encode produce los artefactos de la factura.
func (e *InvoiceEncoder) Encode(doc InvoiceDocument) (*EncodedInvoice, error) {
	x, err := e.xml.Build(doc)
	if err != nil {
		return nil, err
	}
	xmlStr, err := x.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("siat: serializar XML: %w", err)
	}
	hash, err := documentHash(x)
	if err != nil {
		return nil, err
	}

	payload := QRPayload(doc.Issuer.NIT, doc.InvoiceNumber, doc.AuthorizationCode, doc.EmittedAt, doc.Total, doc.CUF)
	img, err := e.qr.DataURL(payload)
	if err != nil {
		return nil, err
	}

	return &EncodedInvoice{
		QRPayload:    payload,
		QRImage:      img,
		XML:          xmlStr,
		DocumentHash: hash,
	}, nil
}

// documentHash calcula SHA-256 (hex) de la forma canónica C14N del elemento raíz.
func documentHash(x *etree.Document) (string, error) {
	rootDoc := etree.NewDocument()
	rootDoc.SetRoot(x.Root().Copy())
	raw, err := rootDoc.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("siat: serializar raíz: %w", err)
	}
	canonical, err := canonicalizeXML(raw)
	if err != nil {
		return "", fmt.Errorf("siat: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
