package afip

import (
	"fmt"
	"unicode"
)

// pesos del dígito verificador de la CUIT/CUIL (módulo 11), sobre los 10 primeros dígitos.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// prefijos válidos: personas humanas (20, 23, 24, 27) y jurídicas (30, 33, 34).
var cuitPrefixes = map[string]bool{"20": true, "23": true, "24": true, "27": true, "30": true, "33": true, "34": true}

// ValidateCUIT valida prefijo, largo y dígito verificador.
// taxID puede ser "30-71234567-1", "30.71234567.1" o "30712345671".
func ValidateCUIT(taxID string) error {
	digits := extractDigits(taxID)
	if len(digits) != 11 {
		return fmt.Errorf("afip: la CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	if !cuitPrefixes[string(digits[:2])] {
		return fmt.Errorf("afip: prefijo de CUIT inválido %q", digits[:2])
	}
	expected, err := ComputeCUITCheckDigit(string(digits[:10]))
	if err != nil {
		return err
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador de la CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// ComputeCUITCheckDigit calcula el dígito verificador para los 10 primeros dígitos.
// Un resto que da 10 no tiene dígito: AFIP reasigna el prefijo en ese caso.
func ComputeCUITCheckDigit(taxID string) (byte, error) {
	digits := extractDigits(taxID)
	if len(digits) < 10 {
		return 0, fmt.Errorf("afip: se requieren 10 dígitos para calcular el verificador, se encontraron %d", len(digits))
	}
	var sum int
	for i, d := range digits[:10] {
		sum += int(d-'0') * cuitWeights[i]
	}
	dv := 11 - sum%11
	switch dv {
	case 11:
		return '0', nil
	case 10:
		return 0, fmt.Errorf("afip: %s no admite dígito verificador", digits[:10])
	}
	return byte('0' + dv), nil
}

// Identification devuelve el tipo de documento AFIP y el número normalizado.
// Sin CUIT válida ni DNI, el receptor queda como consumidor final sin identificar.
func Identification(taxID string) (docType int, docNumber string) {
	digits := extractDigits(taxID)
	switch {
	case len(digits) == 11 && ValidateCUIT(taxID) == nil:
		return DocTypeCUIT, string(digits)
	case len(digits) == 7 || len(digits) == 8:
		return DocTypeDNI, string(digits)
	}
	return DocTypeUnidentified, "0"
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
