package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
//
// Clasificación:
//   - Validación (terminal, el caller corrige la entrada): ErrInvalidInput, ErrPriceNotConfigured, ErrInvalidTransition.
//   - ErrNotFound: producto, oferta, orden o nivel de precio inexistente.
//   - ErrInsufficientStock: terminal; nunca se recorta la cantidad en silencio.
//   - ErrConcurrencyConflict: la re-validación al confirmar falló; el caller puede reintentar todo el checkout.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrPriceNotConfigured  = errors.New("producto sin precio configurado")
	ErrInvalidTransition   = errors.New("transición de estado inválida")
)

// Invalid envuelve ErrInvalidInput con el detalle del campo rechazado.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsValidation indica si err pertenece a la clase de errores de validación.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrPriceNotConfigured) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsRetryable indica si el caller puede reintentar la operación completa sin corregir la entrada.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
