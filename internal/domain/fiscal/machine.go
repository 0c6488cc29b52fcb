package fiscal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
)

// StockLevels existencia actual por artículo, leída por el caller (con bloqueo de fila).
type StockLevels map[string]decimal.Decimal

// Env datos externos que la máquina de estados necesita para una transición.
type Env struct {
	Customer       *entity.Customer
	VoucherType    *entity.VoucherType
	Stock          StockLevels
	AllowBackorder bool
	Allocator      SequenceAllocator
	Now            time.Time
	NewID          func() string
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

func (e Env) newID() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

// Result resultado de una transición. Compensating solo existe en anulaciones.
type Result struct {
	Document     entity.Document
	Compensating *entity.Document
	Intents      []entity.InventoryMovementIntent
}

// Create da de alta un comprobante. Los tipos diferibles nacen como Orden; el resto se
// emite en el acto (misma validación y numeración que facturar).
func Create(draft entity.Document, env Env) (Result, error) {
	vt := env.VoucherType
	if vt == nil || vt.ID == "" {
		return Result{}, domain.NewValidationError("voucherType", "tipo de comprobante requerido")
	}
	now := env.now()

	doc := draft.Clone()
	if doc.ID == "" {
		doc.ID = env.newID()
	}
	doc.Flow = vt.Flow
	doc.Kind = entity.KindOrder
	doc.State = entity.StateOrder
	doc.VoucherTypeID = vt.ID
	doc.CustomerExempt = false
	doc.Exemption = nil
	doc.SequenceNumber = 0
	doc.CAE = ""
	doc.CAEExpiresAt = time.Time{}
	doc.LinkedDocumentRef = ""
	doc.Reversal = false
	doc.CreatedAt = now
	doc.UpdatedAt = now

	var errs domain.ValidationErrors
	for i, l := range doc.Lines {
		if l.ArticleID == "" {
			errs.Add(linePrefix(i)+"articleId", "artículo requerido")
			continue
		}
		nl, err := recomputeLine(linePrefix(i), l)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				errs = append(errs, de.Details...)
				continue
			}
			return Result{}, err
		}
		doc.Lines[i] = nl
	}
	if err := errs.Err(); err != nil {
		return Result{}, err
	}
	if err := checkArticleRates(doc.Lines); err != nil {
		return Result{}, err
	}
	doc.Totals = Aggregate(doc.Lines, doc.Tributes)

	// La exención se aplica con snapshot para que sea reversible.
	if env.Customer != nil && env.Customer.Exempt {
		exempt, err := SetExemption(doc, true)
		if err != nil {
			return Result{}, err
		}
		doc = exempt
	}

	if vt.Deferrable {
		return Result{Document: doc}, nil
	}
	return facturar(doc, env)
}

// Transition aplica la acción sobre el documento. Ante cualquier error el documento
// recibido no cambia y no se emiten intents.
func Transition(doc entity.Document, action entity.Action, env Env) (Result, error) {
	switch action {
	case entity.ActionFacturar:
		return facturar(doc, env)
	case entity.ActionAnular:
		return anular(doc, env)
	}
	return Result{}, domain.NewInvalidTransitionError("acción %q no permitida desde %s", action, doc.State)
}

// facturar: Orden → Tique/Factura.
func facturar(doc entity.Document, env Env) (Result, error) {
	if doc.Reversal || doc.State != entity.StateOrder {
		return Result{}, domain.NewInvalidTransitionError("no se puede facturar un comprobante en estado %s", doc.State)
	}
	vt := env.VoucherType
	cust := env.Customer

	var errs domain.ValidationErrors
	if len(doc.Lines) == 0 {
		errs.Add("lines", "el comprobante debe tener al menos una línea")
	}
	if cust == nil || cust.ID == "" {
		errs.Add("customerRef", "cliente no resuelto")
	} else if doc.CustomerRef != "" && doc.CustomerRef != cust.ID {
		errs.Add("customerRef", "el cliente %s no corresponde al comprobante", cust.ID)
	}
	if vt == nil || vt.ID == "" {
		errs.Add("voucherType", "tipo de comprobante no resuelto")
	} else {
		if doc.VoucherTypeID != "" && doc.VoucherTypeID != vt.ID {
			errs.Add("voucherType", "el tipo de comprobante %s no corresponde al documento", vt.ID)
		}
		if vt.IssuedKind != entity.KindTicket && vt.IssuedKind != entity.KindInvoice {
			errs.Add("voucherType", "el tipo %s no emite tique ni factura", vt.ID)
		}
	}
	if doc.SalesPointID == "" {
		errs.Add("salesPointId", "punto de venta requerido")
	}
	if err := errs.Err(); err != nil {
		return Result{}, err
	}

	out := doc.Clone()
	if cust.Exempt != out.CustomerExempt {
		synced, err := SetExemption(out, cust.Exempt)
		if err != nil {
			return Result{}, err
		}
		out = synced
	}
	out.CustomerRef = cust.ID

	for i, l := range out.Lines {
		nl, err := recomputeLine(linePrefix(i), l)
		if err != nil {
			return Result{}, err
		}
		if !nl.Quantity.IsPositive() {
			errs.Add(linePrefix(i)+"quantity", "la cantidad debe ser mayor a cero para facturar")
		}
		out.Lines[i] = nl
	}
	if err := errs.Err(); err != nil {
		return Result{}, err
	}

	if vt.DecrementsStock() && !env.AllowBackorder {
		if err := checkStock(out.Lines, env.Stock); err != nil {
			return Result{}, err
		}
	}

	number, err := AllocateSequenceNumber(env.Allocator, out.SalesPointID, vt.ID)
	if err != nil {
		return Result{}, err
	}

	now := env.now()
	out.VoucherTypeID = vt.ID
	out.Flow = vt.Flow
	out.Kind = vt.IssuedKind
	out.State = entity.DocumentState(vt.IssuedKind)
	out.SequenceNumber = number
	out.IssuedAt = now
	out.UpdatedAt = now
	out.Totals = Aggregate(out.Lines, out.Tributes)

	return Result{
		Document: out,
		Intents:  stockIntents(out.Lines, *vt, entity.ReasonCommit, out.ID),
	}, nil
}

// anular: Tique/Factura → Anulado, con comprobante compensatorio vinculado.
func anular(doc entity.Document, env Env) (Result, error) {
	if doc.Reversal {
		return Result{}, domain.NewInvalidTransitionError("el comprobante compensatorio %s no se puede anular", doc.ID)
	}
	if !doc.State.Issued() {
		return Result{}, domain.NewInvalidTransitionError("no se puede anular un comprobante en estado %s", doc.State)
	}
	vt := env.VoucherType
	if vt == nil || vt.ID == "" {
		return Result{}, domain.NewValidationError("voucherType", "tipo de comprobante no resuelto")
	}
	if doc.VoucherTypeID != vt.ID {
		return Result{}, domain.NewValidationError("voucherType", "el tipo de comprobante %s no corresponde al documento", vt.ID)
	}
	if !vt.Annullable {
		return Result{}, domain.NewInvalidTransitionError("el tipo de comprobante %s no admite anulación", vt.ID)
	}

	now := env.now()
	comp := doc.Clone()
	comp.ID = env.newID()
	comp.Reversal = true
	comp.LinkedDocumentRef = doc.ID
	comp.SequenceNumber = 0
	comp.CAE = ""
	comp.CAEExpiresAt = time.Time{}
	comp.IssuedAt = now
	comp.CreatedAt = now
	comp.UpdatedAt = now

	orig := doc.Clone()
	orig.State = entity.StateAnnulled
	orig.LinkedDocumentRef = comp.ID
	orig.UpdatedAt = now

	return Result{
		Document:     orig,
		Compensating: &comp,
		Intents:      stockIntents(comp.Lines, *vt, entity.ReasonAnnul, comp.ID),
	}, nil
}

// checkStock suma las cantidades por artículo y las compara con la existencia.
func checkStock(lines []entity.DocumentLine, stock StockLevels) error {
	requested := make(map[string]decimal.Decimal)
	firstLine := make(map[string]int)
	var order []string
	for i, l := range lines {
		if _, ok := requested[l.ArticleID]; !ok {
			order = append(order, l.ArticleID)
			firstLine[l.ArticleID] = i
		}
		requested[l.ArticleID] = requested[l.ArticleID].Add(l.Quantity)
	}
	var details []domain.FieldError
	for _, articleID := range order {
		available := stock[articleID]
		if requested[articleID].GreaterThan(available) {
			details = append(details, domain.FieldError{
				Field:   linePrefix(firstLine[articleID]) + "quantity",
				Message: "artículo " + articleID + ": solicitado " + requested[articleID].String() + ", disponible " + available.String(),
			})
		}
	}
	if len(details) > 0 {
		return domain.NewInsufficientStockError(details)
	}
	return nil
}

// stockIntents un intent por línea. Emitir en ventas descuenta y en compras ingresa;
// anular invierte el signo.
func stockIntents(lines []entity.DocumentLine, vt entity.VoucherType, reason entity.MovementReason, docRef string) []entity.InventoryMovementIntent {
	if !vt.MovesStock() {
		return nil
	}
	sign := decimal.NewFromInt(1)
	if vt.DecrementsStock() {
		sign = sign.Neg()
	}
	if reason == entity.ReasonAnnul {
		sign = sign.Neg()
	}
	intents := make([]entity.InventoryMovementIntent, 0, len(lines))
	for _, l := range lines {
		if l.Quantity.IsZero() {
			continue
		}
		intents = append(intents, entity.InventoryMovementIntent{
			ArticleID:   l.ArticleID,
			Delta:       l.Quantity.Mul(sign),
			Reason:      reason,
			DocumentRef: docRef,
		})
	}
	return intents
}
