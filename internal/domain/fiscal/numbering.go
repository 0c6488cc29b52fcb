package fiscal

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// SequenceAllocator entrega el próximo número para la clave (punto de venta, tipo de comprobante).
// La implementación es del store: un único incremento atómico dentro de la transacción
// de la transición, de modo que un rollback libera el número.
type SequenceAllocator interface {
	AllocateSequenceNumber(salesPointID, voucherTypeID string) (int64, error)
}

// AllocateSequenceNumber valida la clave, delega la asignación en el store y valida el resultado.
func AllocateSequenceNumber(alloc SequenceAllocator, salesPointID, voucherTypeID string) (int64, error) {
	var errs domain.ValidationErrors
	if salesPointID == "" {
		errs.Add("salesPointId", "punto de venta requerido")
	}
	if voucherTypeID == "" {
		errs.Add("voucherType", "tipo de comprobante requerido")
	}
	if alloc == nil {
		errs.Add("sequenceNumber", "no hay asignador de numeración configurado")
	}
	if err := errs.Err(); err != nil {
		return 0, err
	}
	n, err := alloc.AllocateSequenceNumber(salesPointID, voucherTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrNumberingConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("asignar número (%s/%s): %w", salesPointID, voucherTypeID, err)
	}
	if n <= 0 {
		return 0, domain.NewNumberingConflictError(nil, "el store devolvió un número inválido %d para %s/%s", n, salesPointID, voucherTypeID)
	}
	return n, nil
}

var caePattern = regexp.MustCompile(`^[0-9]{14}$`)

// ensureAuthorizable: admiten CAE los comprobantes emitidos con número, también los anulados
// después de emitidos (el número ya fue consumido). Los compensatorios no.
func ensureAuthorizable(doc entity.Document) error {
	if doc.Reversal || (!doc.State.Issued() && doc.State != entity.StateAnnulled) {
		return domain.NewInvalidTransitionError("el comprobante en estado %s no admite pedido de CAE", doc.State)
	}
	if doc.SequenceNumber <= 0 {
		return domain.NewValidationError("sequenceNumber", "el comprobante no tiene número asignado")
	}
	return nil
}

// BuildAuthorizationRequest arma el pedido de CAE de un comprobante emitido.
func BuildAuthorizationRequest(doc entity.Document, vt entity.VoucherType) (entity.FiscalAuthorizationRequest, error) {
	if err := ensureAuthorizable(doc); err != nil {
		return entity.FiscalAuthorizationRequest{}, err
	}
	return entity.FiscalAuthorizationRequest{
		DocumentID:     doc.ID,
		Flow:           doc.Flow,
		SalesPointID:   doc.SalesPointID,
		VoucherTypeID:  vt.ID,
		VoucherCode:    vt.Code,
		SequenceNumber: doc.SequenceNumber,
		IssuedAt:       doc.IssuedAt,
		CustomerRef:    doc.CustomerRef,
		Totals:         doc.Totals.Rounded(),
		Lines:          append([]entity.DocumentLine(nil), doc.Lines...),
	}, nil
}

// RecordAuthorization registra el CAE y su vencimiento. El campo es de una sola escritura:
// repetir el mismo CAE no hace nada; uno distinto es una transición inválida.
func RecordAuthorization(doc entity.Document, auth entity.FiscalAuthorization) (entity.Document, error) {
	if err := ensureAuthorizable(doc); err != nil {
		return entity.Document{}, err
	}
	var errs domain.ValidationErrors
	if !caePattern.MatchString(auth.CAE) {
		errs.Add("cae", "CAE inválido %q: se esperan 14 dígitos", auth.CAE)
	}
	if auth.ExpiresAt.IsZero() {
		errs.Add("caeExpiresAt", "vencimiento del CAE requerido")
	}
	if err := errs.Err(); err != nil {
		return entity.Document{}, err
	}
	if doc.Authorized() {
		if doc.CAE == auth.CAE && doc.CAEExpiresAt.Equal(auth.ExpiresAt) {
			return doc.Clone(), nil
		}
		return entity.Document{}, domain.NewInvalidTransitionError("el comprobante %s ya tiene CAE %s", doc.ID, doc.CAE)
	}
	out := doc.Clone()
	out.CAE = auth.CAE
	out.CAEExpiresAt = auth.ExpiresAt
	return out, nil
}
