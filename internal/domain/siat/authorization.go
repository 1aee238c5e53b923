package siat

import (
	"context"
	"fmt"
	"time"
)

// AuthorizationCodeLength longitud del código de autorización.
const AuthorizationCodeLength = 15

// AuthorizationCodeSource entrega el código de autorización de una factura.
type AuthorizationCodeSource interface {
	NextAuthorizationCode(ctx context.Context) (string, error)
}

// TimestampAuthorizationCodes deriva el código de los 15 dígitos de menor orden del
// tiempo Unix en milisegundos, con ceros a la izquierda.
// Dos facturas en el mismo milisegundo comparten código; reemplazar por el código que
// asigne la autoridad cuando exista esa integración.
type TimestampAuthorizationCodes struct {
	Now func() time.Time
}

// NewTimestampAuthorizationCodes crea la fuente basada en el reloj del sistema.
func NewTimestampAuthorizationCodes() *TimestampAuthorizationCodes {
	return &TimestampAuthorizationCodes{Now: time.Now}
}

// NextAuthorizationCode implementa AuthorizationCodeSource.
func (s *TimestampAuthorizationCodes) NextAuthorizationCode(_ context.Context) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ms := now().UnixMilli() % 1_000_000_000_000_000
	return fmt.Sprintf("%0*d", AuthorizationCodeLength, ms), nil
}
