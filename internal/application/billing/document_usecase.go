package billing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/comprobantes-api/internal/application/dto"
	"github.com/jhoicas/comprobantes-api/internal/application/inventory"
	"github.com/jhoicas/comprobantes-api/internal/domain"
	"github.com/jhoicas/comprobantes-api/internal/domain/entity"
	"github.com/jhoicas/comprobantes-api/internal/domain/fiscal"
	"github.com/jhoicas/comprobantes-api/internal/domain/repository"
	"github.com/jhoicas/comprobantes-api/pkg/logger"
)

// Config opciones del caso de uso.
type Config struct {
	AllowBackorder bool // permite emitir sin stock suficiente
}

// DocumentUseCase orquesta el motor de comprobantes: carga datos de catálogo, ejecuta la
// transición y persiste cambio de estado + efecto en stock en una sola transacción.
// El CAE se pide después del commit.
type DocumentUseCase struct {
	txRunner        BillingTxRunner
	inventoryUC     InventoryUseCase
	docRepo         repository.DocumentRepository
	customerRepo    repository.CustomerRepository
	articleRepo     repository.ArticleRepository
	voucherTypeRepo repository.VoucherTypeRepository
	tributeRepo     repository.TributeRepository
	salesPointRepo  repository.SalesPointRepository
	authorizer      FiscalAuthorizer
	cfg             Config
	log             *logger.Logger
	now             func() time.Time
}

// NewDocumentUseCase construye el caso de uso. authorizer puede ser nil: los comprobantes
// quedan emitidos sin CAE hasta RetryAuthorization.
func NewDocumentUseCase(
	txRunner BillingTxRunner,
	inventoryUC InventoryUseCase,
	docRepo repository.DocumentRepository,
	customerRepo repository.CustomerRepository,
	articleRepo repository.ArticleRepository,
	voucherTypeRepo repository.VoucherTypeRepository,
	tributeRepo repository.TributeRepository,
	salesPointRepo repository.SalesPointRepository,
	authorizer FiscalAuthorizer,
	cfg Config,
	log *logger.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		txRunner:        txRunner,
		inventoryUC:     inventoryUC,
		docRepo:         docRepo,
		customerRepo:    customerRepo,
		articleRepo:     articleRepo,
		voucherTypeRepo: voucherTypeRepo,
		tributeRepo:     tributeRepo,
		salesPointRepo:  salesPointRepo,
		authorizer:      authorizer,
		cfg:             cfg,
		log:             log,
		now:             time.Now,
	}
}

// seqAllocator adapta el SequenceRepository atado a la tx al puerto del motor.
type seqAllocator struct {
	ctx  context.Context
	repo repository.SequenceRepository
}

func (a seqAllocator) AllocateSequenceNumber(salesPointID, voucherTypeID string) (int64, error) {
	return a.repo.Next(a.ctx, salesPointID, voucherTypeID)
}

// Create da de alta un comprobante. Los tipos diferibles quedan en Orden; el resto se emite
// en el acto y, tras el commit, se solicita el CAE.
func (uc *DocumentUseCase) Create(ctx context.Context, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	var errs domain.ValidationErrors
	if in.VoucherTypeID == "" {
		errs.Add("voucherType", "tipo de comprobante requerido")
	}
	if in.SalesPointID == "" {
		errs.Add("salesPointId", "punto de venta requerido")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	vt, err := uc.voucherType(ctx, in.VoucherTypeID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkSalesPoint(ctx, in.SalesPointID); err != nil {
		return nil, err
	}

	var customer *entity.Customer
	if in.CustomerID != "" {
		customer, err = uc.customerRepo.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, domain.NewValidationError("customerRef", "cliente %s no encontrado", in.CustomerID)
		}
	}

	lines := make([]entity.DocumentLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		line, err := uc.resolveLine(ctx, i, l)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	tributes, err := uc.resolveTributes(ctx, in.TributeIDs)
	if err != nil {
		return nil, err
	}

	draft := entity.Document{
		CustomerRef:  in.CustomerID,
		SalesPointID: in.SalesPointID,
		Lines:        lines,
		Tributes:     tributes,
	}

	var res fiscal.Result
	err = uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
	) error {
		env := fiscal.Env{
			Customer:       customer,
			VoucherType:    vt,
			AllowBackorder: uc.cfg.AllowBackorder,
			Allocator:      seqAllocator{ctx: ctx, repo: seqRepo},
			Now:            uc.now(),
		}
		if !vt.Deferrable && vt.DecrementsStock() && !uc.cfg.AllowBackorder {
			levels, err := inventory.StockLevelsForUpdate(ctx, stockRepo, draft.Lines)
			if err != nil {
				return err
			}
			env.Stock = levels
		}
		var err error
		res, err = fiscal.Create(draft, env)
		if err != nil {
			return err
		}
		if err := docRepo.Create(ctx, &res.Document); err != nil {
			return err
		}
		return uc.inventoryUC.ApplyIntentsInTx(ctx, stockRepo, movRepo, res.Intents, env.Now)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("voucher_type", vt.ID).Msg("alta de comprobante rechazada")
		return nil, err
	}

	doc := res.Document
	uc.log.Info().
		Str("document_id", doc.ID).
		Str("state", string(doc.State)).
		Int64("sequence_number", doc.SequenceNumber).
		Msg("comprobante creado")

	if doc.State.Issued() {
		return uc.authorize(ctx, doc, *vt)
	}
	return toDocumentResponse(doc, nil), nil
}

// Get devuelve el comprobante por ID.
func (uc *DocumentUseCase) Get(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return toDocumentResponse(*doc, nil), nil
}

// AddLine agrega una línea a una orden.
func (uc *DocumentUseCase) AddLine(ctx context.Context, id string, in dto.DocumentLineRequest) (*dto.DocumentResponse, error) {
	if in.ArticleID == "" {
		return nil, domain.NewValidationError("articleId", "artículo requerido")
	}
	article, err := uc.articleRepo.GetByID(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, domain.NewValidationError("articleId", "artículo %s no encontrado", in.ArticleID)
	}
	return uc.edit(ctx, id, func(doc entity.Document) (entity.Document, error) {
		out, err := fiscal.AddLine(doc, *article, fiscal.LineInput{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
		})
		if err != nil {
			return entity.Document{}, err
		}
		if in.VATRate != nil {
			return fiscal.UpdateLine(out, len(out.Lines)-1, fiscal.LineUpdate{VATRate: in.VATRate})
		}
		return out, nil
	})
}

// UpdateLine modifica la línea index de una orden.
func (uc *DocumentUseCase) UpdateLine(ctx context.Context, id string, index int, in dto.UpdateLineRequest) (*dto.DocumentResponse, error) {
	return uc.edit(ctx, id, func(doc entity.Document) (entity.Document, error) {
		return fiscal.UpdateLine(doc, index, fiscal.LineUpdate{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			VATRate:     in.VATRate,
		})
	})
}

// RemoveLine quita la línea index de una orden.
func (uc *DocumentUseCase) RemoveLine(ctx context.Context, id string, index int) (*dto.DocumentResponse, error) {
	return uc.edit(ctx, id, func(doc entity.Document) (entity.Document, error) {
		return fiscal.RemoveLine(doc, index)
	})
}

// SetExemption activa o quita la exención de IVA de una orden. A un cliente exento del
// catálogo no se le puede quitar.
func (uc *DocumentUseCase) SetExemption(ctx context.Context, id string, exempt bool) (*dto.DocumentResponse, error) {
	return uc.edit(ctx, id, func(doc entity.Document) (entity.Document, error) {
		if !exempt && doc.CustomerRef != "" {
			customer, err := uc.customerRepo.GetByID(ctx, doc.CustomerRef)
			if err != nil {
				return entity.Document{}, err
			}
			if customer != nil && customer.Exempt {
				return entity.Document{}, domain.NewValidationError("exempt", "el cliente %s es exento de IVA", customer.ID)
			}
		}
		return fiscal.SetExemption(doc, exempt)
	})
}

// SetTributes reemplaza los tributos de una orden.
func (uc *DocumentUseCase) SetTributes(ctx context.Context, id string, tributeIDs []string) (*dto.DocumentResponse, error) {
	tributes, err := uc.resolveTributes(ctx, tributeIDs)
	if err != nil {
		return nil, err
	}
	return uc.edit(ctx, id, func(doc entity.Document) (entity.Document, error) {
		return fiscal.SetTributes(doc, tributes)
	})
}

// Transition aplica facturar/anular. Si la emisión se confirma pero el CAE falla, devuelve
// el comprobante emitido junto con un error de tipo fiscal_authorization.
func (uc *DocumentUseCase) Transition(ctx context.Context, id, rawAction string) (*dto.DocumentResponse, error) {
	action, err := entity.ParseAction(rawAction)
	if err != nil {
		return nil, domain.NewInvalidTransitionError("acción desconocida %q", rawAction)
	}

	var (
		res fiscal.Result
		vt  *entity.VoucherType
	)
	err = uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		stockRepo repository.StockRepository,
		movRepo repository.InventoryMovementRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		vt, err = uc.voucherType(ctx, doc.VoucherTypeID)
		if err != nil {
			return err
		}
		env := fiscal.Env{
			VoucherType:    vt,
			AllowBackorder: uc.cfg.AllowBackorder,
			Allocator:      seqAllocator{ctx: ctx, repo: seqRepo},
			Now:            uc.now(),
		}
		if action == entity.ActionFacturar {
			if doc.CustomerRef != "" {
				env.Customer, err = uc.customerRepo.GetByID(ctx, doc.CustomerRef)
				if err != nil {
					return err
				}
			}
			if doc.State == entity.StateOrder && vt.DecrementsStock() && !uc.cfg.AllowBackorder {
				env.Stock, err = inventory.StockLevelsForUpdate(ctx, stockRepo, doc.Lines)
				if err != nil {
					return err
				}
			}
		}

		res, err = fiscal.Transition(*doc, action, env)
		if err != nil {
			return err
		}
		if res.Compensating != nil {
			if err := docRepo.Create(ctx, res.Compensating); err != nil {
				return err
			}
		}
		if err := docRepo.Update(ctx, &res.Document); err != nil {
			return err
		}
		return uc.inventoryUC.ApplyIntentsInTx(ctx, stockRepo, movRepo, res.Intents, env.Now)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("document_id", id).Str("action", string(action)).Msg("transición rechazada")
		return nil, err
	}

	uc.log.Info().
		Str("document_id", res.Document.ID).
		Str("action", string(action)).
		Str("state", string(res.Document.State)).
		Int("movements", len(res.Intents)).
		Msg("transición aplicada")

	if action == entity.ActionFacturar {
		return uc.authorize(ctx, res.Document, *vt)
	}
	return toDocumentResponse(res.Document, res.Compensating), nil
}

// RetryAuthorization vuelve a pedir el CAE de un comprobante emitido que no lo tiene.
// Si ya está autorizado lo devuelve sin llamar al adaptador.
func (uc *DocumentUseCase) RetryAuthorization(ctx context.Context, id string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.Authorized() {
		return toDocumentResponse(*doc, nil), nil
	}
	vt, err := uc.voucherType(ctx, doc.VoucherTypeID)
	if err != nil {
		return nil, err
	}
	if _, err := fiscal.BuildAuthorizationRequest(*doc, *vt); err != nil {
		return nil, err
	}
	return uc.authorize(ctx, *doc, *vt)
}

// errPreview fuerza el rollback de la consulta de numeración.
var errPreview = errors.New("vista previa de numeración")

// NextSequenceNumber informa el número que recibiría la próxima emisión de la clave
// (punto de venta, tipo). El incremento se revierte: la numeración solo avanza al emitir.
func (uc *DocumentUseCase) NextSequenceNumber(ctx context.Context, in dto.NextNumberRequest) (*dto.NextNumberResponse, error) {
	if in.SalesPointID != "" {
		if err := uc.checkSalesPoint(ctx, in.SalesPointID); err != nil {
			return nil, err
		}
	}
	if in.VoucherTypeID != "" {
		if _, err := uc.voucherType(ctx, in.VoucherTypeID); err != nil {
			return nil, err
		}
	}
	var n int64
	err := uc.txRunner.RunBilling(ctx, func(
		_ repository.DocumentRepository,
		seqRepo repository.SequenceRepository,
		_ repository.StockRepository,
		_ repository.InventoryMovementRepository,
	) error {
		var err error
		n, err = fiscal.AllocateSequenceNumber(seqAllocator{ctx: ctx, repo: seqRepo}, in.SalesPointID, in.VoucherTypeID)
		if err != nil {
			return err
		}
		return errPreview
	})
	if err != nil && !errors.Is(err, errPreview) {
		return nil, err
	}
	return &dto.NextNumberResponse{
		SalesPointID:   in.SalesPointID,
		VoucherTypeID:  in.VoucherTypeID,
		SequenceNumber: n,
	}, nil
}

// authorize pide el CAE y lo registra. La emisión ya está confirmada: un rechazo se informa
// como fiscal_authorization junto con el comprobante sin CAE.
func (uc *DocumentUseCase) authorize(ctx context.Context, doc entity.Document, vt entity.VoucherType) (*dto.DocumentResponse, error) {
	if uc.authorizer == nil {
		return toDocumentResponse(doc, nil), nil
	}
	req, err := fiscal.BuildAuthorizationRequest(doc, vt)
	if err != nil {
		return toDocumentResponse(doc, nil), err
	}

	fail := func(cause error) (*dto.DocumentResponse, error) {
		uc.log.Error().Err(cause).Str("document_id", doc.ID).Msg("CAE no obtenido")
		resp := toDocumentResponse(doc, nil)
		resp.AuthorizationNote = "emitido sin CAE; reintentar autorización"
		return resp, domain.NewFiscalAuthorizationError(cause, "no se obtuvo CAE para el comprobante %s", doc.ID)
	}

	if doc.CustomerRef != "" {
		customer, err := uc.customerRepo.GetByID(ctx, doc.CustomerRef)
		if err != nil {
			return fail(err)
		}
		if customer != nil {
			req.CustomerTaxID = customer.TaxID
		}
	}

	auth, err := uc.authorizer.Authorize(ctx, req)
	if err != nil {
		return fail(err)
	}
	if auth == nil {
		return fail(domain.ErrInvalidInput)
	}
	authorized, err := fiscal.RecordAuthorization(doc, *auth)
	if err != nil {
		return fail(err)
	}
	if err := uc.docRepo.SaveAuthorization(ctx, doc.ID, *auth); err != nil {
		return fail(err)
	}
	uc.log.Info().Str("document_id", doc.ID).Str("cae", auth.CAE).Msg("CAE registrado")
	return toDocumentResponse(authorized, nil), nil
}

// edit carga una orden, aplica fn y persiste el resultado en una transacción.
func (uc *DocumentUseCase) edit(ctx context.Context, id string, fn func(entity.Document) (entity.Document, error)) (*dto.DocumentResponse, error) {
	var out entity.Document
	err := uc.txRunner.RunBilling(ctx, func(
		docRepo repository.DocumentRepository,
		_ repository.SequenceRepository,
		_ repository.StockRepository,
		_ repository.InventoryMovementRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		out, err = fn(*doc)
		if err != nil {
			return err
		}
		out.UpdatedAt = uc.now()
		return docRepo.Update(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(out, nil), nil
}

func (uc *DocumentUseCase) voucherType(ctx context.Context, id string) (*entity.VoucherType, error) {
	vt, err := uc.voucherTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vt == nil {
		return nil, domain.NewValidationError("voucherType", "tipo de comprobante %s no encontrado", id)
	}
	return vt, nil
}

func (uc *DocumentUseCase) checkSalesPoint(ctx context.Context, id string) error {
	sp, err := uc.salesPointRepo.GetActiveByID(ctx, id)
	if err != nil {
		return err
	}
	if sp == nil {
		return domain.NewValidationError("salesPointId", "punto de venta %s inexistente o inactivo", id)
	}
	return nil
}

// resolveLine completa descripción, precio y alícuota con los datos del artículo.
func (uc *DocumentUseCase) resolveLine(ctx context.Context, i int, in dto.DocumentLineRequest) (entity.DocumentLine, error) {
	field := "lines[" + strconv.Itoa(i) + "].articleId"
	if in.ArticleID == "" {
		return entity.DocumentLine{}, domain.NewValidationError(field, "artículo requerido")
	}
	article, err := uc.articleRepo.GetByID(ctx, in.ArticleID)
	if err != nil {
		return entity.DocumentLine{}, err
	}
	if article == nil {
		return entity.DocumentLine{}, domain.NewValidationError(field, "artículo %s no encontrado", in.ArticleID)
	}
	line := entity.DocumentLine{
		ArticleID:   article.ID,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   article.Price,
		VATRate:     article.DefaultVATRate,
	}
	if line.Description == "" {
		line.Description = article.Description
	}
	if in.UnitPrice != nil {
		line.UnitPrice = *in.UnitPrice
	}
	if in.VATRate != nil {
		line.VATRate = *in.VATRate
	}
	return line, nil
}

func (uc *DocumentUseCase) resolveTributes(ctx context.Context, ids []string) ([]entity.Tribute, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := uc.tributeRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.Tribute, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]entity.Tribute, 0, len(ids))
	for i, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, domain.NewValidationError("tributes["+strconv.Itoa(i)+"].id", "tributo %s no encontrado", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func toDocumentResponse(doc entity.Document, comp *entity.Document) *dto.DocumentResponse {
	totals := doc.Totals.Rounded()
	resp := &dto.DocumentResponse{
		ID:               doc.ID,
		Flow:             string(doc.Flow),
		Kind:             string(doc.Kind),
		State:            string(doc.State),
		CustomerID:       doc.CustomerRef,
		CustomerExempt:   doc.CustomerExempt,
		VoucherTypeID:    doc.VoucherTypeID,
		SalesPointID:     doc.SalesPointID,
		SequenceNumber:   doc.SequenceNumber,
		CAE:              doc.CAE,
		LinkedDocumentID: doc.LinkedDocumentRef,
		Reversal:         doc.Reversal,
		Lines:            make([]dto.DocumentLineResponse, 0, len(doc.Lines)),
		Tributes:         make([]dto.TributeResponse, 0, len(doc.Tributes)),
		Totals: dto.TotalsResponse{
			Subtotal:      totals.Subtotal,
			TaxableTotal:  totals.TaxableTotal,
			VATTotal:      totals.VATTotal,
			VATBreakdown:  make([]dto.VATGroupResponse, 0, len(totals.VATBreakdown)),
			Tributes:      make([]dto.TributeAmountResult, 0, len(totals.Tributes)),
			TributesTotal: totals.TributesTotal,
			Total:         totals.Total,
		},
	}
	if !doc.IssuedAt.IsZero() {
		resp.IssuedAt = doc.IssuedAt.Format(time.RFC3339)
	}
	if !doc.CAEExpiresAt.IsZero() {
		resp.CAEExpiresAt = doc.CAEExpiresAt.Format("2006-01-02")
	}
	for _, l := range doc.Lines {
		resp.Lines = append(resp.Lines, dto.DocumentLineResponse{
			ArticleID:     l.ArticleID,
			Description:   l.Description,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			VATRate:       l.VATRate,
			Subtotal:      round(l.Subtotal),
			VATAmount:     round(l.VATAmount),
			TaxableAmount: round(l.TaxableAmount),
		})
	}
	for _, t := range doc.Tributes {
		resp.Tributes = append(resp.Tributes, dto.TributeResponse{
			ID:          t.ID,
			Description: t.Description,
			BaseCalculo: string(t.Base),
			Aliquota:    t.Aliquota,
		})
	}
	for _, g := range totals.VATBreakdown {
		resp.Totals.VATBreakdown = append(resp.Totals.VATBreakdown, dto.VATGroupResponse{Rate: g.Rate, Base: g.Base, Amount: g.Amount})
	}
	for _, t := range totals.Tributes {
		resp.Totals.Tributes = append(resp.Totals.Tributes, dto.TributeAmountResult{
			TributeID: t.TributeID,
			Base:      t.Base,
			Aliquota:  t.Aliquota,
			Amount:    t.Amount,
		})
	}
	if comp != nil {
		resp.Compensating = toDocumentResponse(*comp, nil)
	}
	return resp
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(entity.CurrencyPlaces)
}
