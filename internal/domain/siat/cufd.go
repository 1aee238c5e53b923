package siat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// CUFDLength longitud del CUFD generado localmente.
const CUFDLength = 32

var cufdPattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

// CUFDProvider entrega el CUFD (Código Único de Facturación Diaria) vigente para una fecha.
// En producción el CUFD lo emite el SIN; LocalCUFDProvider lo deriva localmente.
type CUFDProvider interface {
	CUFD(ctx context.Context, at time.Time) (string, error)
}

// LocalCUFDProvider deriva el CUFD del NIT y la fecha (determinista por día).
type LocalCUFDProvider struct {
	NIT string
}

// NewLocalCUFDProvider crea el proveedor local.
func NewLocalCUFDProvider(nit string) *LocalCUFDProvider {
	return &LocalCUFDProvider{NIT: nit}
}

// CUFD implementa CUFDProvider.
func (p *LocalCUFDProvider) CUFD(_ context.Context, at time.Time) (string, error) {
	return GenerateCUFD(p.NIT, at), nil
}

// GenerateCUFD devuelve los primeros 32 caracteres hexadecimales, en mayúsculas, del
// SHA-256 de NIT + "-" + yyyyMMdd. La fecha se toma en la zona de 'day'.
func GenerateCUFD(nit string, day time.Time) string {
	sum := sha256.Sum256([]byte(nit + "-" + day.Format("20060102")))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:CUFDLength]
}

// IsValidCUFD indica si el CUFD tiene la forma correcta y fue generado el mismo día
// calendario que 'now' (en la zona de 'now').
func IsValidCUFD(cufd string, generatedAt, now time.Time) bool {
	if !cufdPattern.MatchString(cufd) {
		return false
	}
	gy, gm, gd := generatedAt.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return gy == ny && gm == nm && gd == nd
}
