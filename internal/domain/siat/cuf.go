// Package siat: códigos fiscales de la facturación electrónica boliviana (SIN/SIAT).
//
// CUF (Código Único de Facturación), 44 dígitos:
//
//	NIT(13) + FechaHora(17, yyyyMMddHHmmssSSS) + Sucursal(4) + Modalidad(1) + TipoEmision(1) + Control(8)
//
// Control = relleno aleatorio de 6 dígitos + dígito verificador módulo 11 (2 dígitos).
package siat

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

// Longitudes de los campos del CUF.
const (
	CUFLength     = 44
	cufBaseLength = 36
	nitWidth      = 13
	branchWidth   = 4
	fillerRange   = 1_000_000
)

var cufPattern = regexp.MustCompile(`^\d{44}$`)

// CUFParams datos para generar el CUF.
type CUFParams struct {
	NIT          string    // NIT del emisor, solo dígitos (máx. 13)
	Branch       int       // Código de sucursal (0..9999)
	Mode         int       // Modalidad de facturación (un dígito)
	EmissionType int       // Tipo de emisión (un dígito)
	Timestamp    time.Time // Fecha y hora de emisión, ya en la zona horaria fiscal
}

// CUFGenerator genera códigos CUF.
type CUFGenerator struct {
	filler func() int
}

// NewCUFGenerator crea el generador con relleno aleatorio.
func NewCUFGenerator() *CUFGenerator {
	return &CUFGenerator{filler: func() int { return rand.IntN(fillerRange) }}
}

// NewCUFGeneratorWithFiller permite fijar el relleno (tests).
func NewCUFGeneratorWithFiller(filler func() int) *CUFGenerator {
	return &CUFGenerator{filler: filler}
}

// Generate arma el CUF de 44 dígitos.
func (g *CUFGenerator) Generate(p CUFParams) (string, error) {
	base, err := CUFBase(p)
	if err != nil {
		return "", err
	}
	check, err := CheckDigit(base)
	if err != nil {
		return "", err
	}
	fill := g.filler() % fillerRange
	if fill < 0 {
		fill = -fill
	}
	return fmt.Sprintf("%s%06d%02d", base, fill, check), nil
}

// CUFBase arma los primeros 36 dígitos del CUF (sin bloque de control).
func CUFBase(p CUFParams) (string, error) {
	nit := strings.TrimSpace(p.NIT)
	if nit == "" || len(nit) > nitWidth || !onlyDigits(nit) {
		return "", fmt.Errorf("siat: NIT inválido %q (solo dígitos, máx. %d)", p.NIT, nitWidth)
	}
	if p.Branch < 0 || p.Branch > 9999 {
		return "", fmt.Errorf("siat: sucursal fuera de rango: %d", p.Branch)
	}
	if p.Mode < 0 || p.Mode > 9 {
		return "", fmt.Errorf("siat: modalidad debe ser un dígito: %d", p.Mode)
	}
	if p.EmissionType < 0 || p.EmissionType > 9 {
		return "", fmt.Errorf("siat: tipo de emisión debe ser un dígito: %d", p.EmissionType)
	}
	if p.Timestamp.IsZero() {
		return "", fmt.Errorf("siat: fecha de emisión obligatoria")
	}

	base := strings.Repeat("0", nitWidth-len(nit)) + nit +
		FormatTimestamp(p.Timestamp) +
		fmt.Sprintf("%0*d", branchWidth, p.Branch) +
		fmt.Sprintf("%d%d", p.Mode, p.EmissionType)
	if len(base) != cufBaseLength {
		return "", fmt.Errorf("siat: base del CUF con longitud %d, se esperaba %d", len(base), cufBaseLength)
	}
	return base, nil
}

// FormatTimestamp formatea la fecha de emisión como yyyyMMddHHmmssSSS.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102150405") + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

// CheckDigit calcula el dígito verificador módulo 11: pesos 2..7 cíclicos desde el dígito
// de la derecha; resto 0 → 0, resto 1 → 1, si no 11 − resto.
func CheckDigit(base string) (int, error) {
	sum := 0
	weight := 2
	for i := len(base) - 1; i >= 0; i-- {
		c := base[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("siat: carácter no numérico %q en la base del CUF", c)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}
	switch r := sum % 11; r {
	case 0, 1:
		return r, nil
	default:
		return 11 - r, nil
	}
}

// IsValidCUF valida solo la forma: exactamente 44 dígitos. No recalcula el verificador.
func IsValidCUF(cuf string) bool {
	return cufPattern.MatchString(cuf)
}

func onlyDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
