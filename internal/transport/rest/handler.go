// Package rest provides the HTTP surface the till UI drives. It is a pure
// caller of the bill and ledger APIs; no stock or total logic lives here.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/skarthikeyan/gopos/internal/bill"
	poserrors "github.com/skarthikeyan/gopos/internal/errors"
	"github.com/skarthikeyan/gopos/internal/ledger"
	"github.com/skarthikeyan/gopos/internal/receipt"
	"github.com/skarthikeyan/gopos/pkg/web"
)

// BillService is the slice of the bill session the handlers consume.
type BillService interface {
	AddItem(name string, qty int) (bill.LineItem, error)
	Finalize() (bill.Snapshot, error)
	Refresh()
	Items() []bill.LineItem
	Total() int64
	Document() (string, error)
}

// Catalog is the slice of the stock ledger the handlers consume.
type Catalog interface {
	Products() []ledger.Entry
	AddProduct(name string, price int64, stock int) error
	SetStock(name string, qty int) error
}

type Handler struct {
	bill     BillService
	catalog  Catalog
	validate *validator.Validate
	logger   *slog.Logger

	// openDoc is swappable so tests do not spawn a viewer process.
	openDoc func(path string) error
}

// NewHandler creates the HTTP handler over the given bill session and catalog.
func NewHandler(billSvc BillService, catalog Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		bill:     billSvc,
		catalog:  catalog,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
		openDoc:  receipt.Open,
	}
}

// RegisterRoutes registers the HTTP routes for the till.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.AddProduct)
			r.Put("/{name}/stock", h.SetStock)
		})
		r.Route("/bill", func(r chi.Router) {
			r.Get("/", h.CurrentBill)
			r.Post("/items", h.AddItem)
			r.Post("/finalize", h.Finalize)
			r.Post("/refresh", h.Refresh)
			r.Post("/print", h.Print)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// AddItemRequest carries one product/quantity selection from the till UI.
// Quantity is validated here so a non-numeric or non-positive value never
// reaches the session.
type AddItemRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// ProductCreateRequest registers a new catalog entry.
type ProductCreateRequest struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Price int64  `json:"price" validate:"required,gt=0"`
	Stock *int   `json:"stock" validate:"required,min=0"`
}

// StockUpdateRequest overwrites a product's remaining stock absolutely.
// Stock is a pointer so an explicit zero passes the required check.
type StockUpdateRequest struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

// BillResponse is the running state of the open session.
type BillResponse struct {
	Items []bill.LineItem `json:"items"`
	Total int64           `json:"total"`
}

// FinalizeResponse pairs the immutable snapshot with the rendered document.
type FinalizeResponse struct {
	Bill     bill.Snapshot `json:"bill"`
	Document string        `json:"document"`
}

// ListProducts returns the catalog with live stock, sorted by name.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	list := h.catalog.Products()
	mLogger.DebugContext(r.Context(), "Listed products", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// AddItem reserves stock for one product and appends it to the open bill.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req AddItemRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	item, err := h.bill.AddItem(req.Name, req.Quantity)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to add item", "product", req.Name, "quantity", req.Quantity)
		return
	}
	mLogger.InfoContext(r.Context(), "Item added to bill", "product", item.Product, "quantity", item.Quantity, "line_total", item.LineTotal)
	web.RespondJSON(w, mLogger, http.StatusCreated, BillResponse{Items: h.bill.Items(), Total: h.bill.Total()})
}

// CurrentBill returns the line items and running total of the open session.
func (h *Handler) CurrentBill(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	web.RespondJSON(w, mLogger, http.StatusOK, BillResponse{Items: h.bill.Items(), Total: h.bill.Total()})
}

// Finalize closes the bill, persists stock and renders the receipt.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	snap, err := h.bill.Finalize()
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to finalize bill")
		return
	}
	doc, err := h.bill.Document()
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Finalized bill has no document", "bill_id", snap.BillID, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to finalize bill")
		return
	}
	mLogger.InfoContext(r.Context(), "Bill finalized", "bill_id", snap.BillID, "items", len(snap.Items), "subtotal", snap.Subtotal, "document", doc)
	web.RespondJSON(w, mLogger, http.StatusCreated, FinalizeResponse{Bill: snap, Document: doc})
}

// Refresh clears the open session. Reserved stock is not returned.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	h.bill.Refresh()
	mLogger.InfoContext(r.Context(), "Bill cleared")
	web.RespondJSON(w, mLogger, http.StatusOK, BillResponse{Items: []bill.LineItem{}, Total: 0})
}

// Print opens the last generated receipt with the host's default viewer.
func (h *Handler) Print(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	doc, err := h.bill.Document()
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "No receipt to print")
		return
	}
	if err := h.openDoc(doc); err != nil {
		mLogger.ErrorContext(r.Context(), "Failed to open receipt", "document", doc, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to open the receipt")
		return
	}
	mLogger.InfoContext(r.Context(), "Receipt opened", "document", doc)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"document": doc})
}

// AddProduct registers a new product in the catalog.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req ProductCreateRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	if err := h.catalog.AddProduct(req.Name, req.Price, *req.Stock); err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to add product", "product", req.Name)
		return
	}
	mLogger.InfoContext(r.Context(), "Product added", "product", req.Name, "price", req.Price, "stock", *req.Stock)
	web.RespondJSON(w, mLogger, http.StatusCreated, ledger.Entry{Name: req.Name, Price: req.Price, Stock: *req.Stock})
}

// SetStock overwrites the remaining stock of one product.
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	name := chi.URLParam(r, "name")
	var req StockUpdateRequest
	if !h.decodeAndValidate(w, r, mLogger, &req) {
		return
	}

	if err := h.catalog.SetStock(name, *req.Stock); err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to update stock", "product", name)
		return
	}
	mLogger.InfoContext(r.Context(), "Stock updated", "product", name, "stock", *req.Stock)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"name": name, "stock": *req.Stock})
}

// HealthCheck returns 200 OK.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, writing the error response itself on failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondDomainError translates core errors into HTTP statuses and logs
// them at a severity matching who caused them.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string, args ...any) {
	status := http.StatusInternalServerError
	message := fallback
	switch {
	case errors.Is(err, poserrors.ErrInvalidQuantity), errors.Is(err, poserrors.ErrInvalidPrice):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, poserrors.ErrUnknownProduct), errors.Is(err, poserrors.ErrNoReceipt):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, poserrors.ErrOutOfStock), errors.Is(err, poserrors.ErrDuplicateProduct), errors.Is(err, poserrors.ErrEmptyBill):
		status = http.StatusConflict
		message = err.Error()
	}

	logArgs := append(args, "error", err)
	if status == http.StatusInternalServerError {
		mLogger.ErrorContext(r.Context(), fallback, logArgs...)
	} else {
		mLogger.WarnContext(r.Context(), fallback, logArgs...)
	}
	web.RespondError(w, mLogger, status, message)
}

// loggerWithReqID returns a request-scoped logger.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	if reqID, ok := web.GetRequestID(r.Context()); ok {
		return h.logger.With("request_id", reqID)
	}
	return h.logger
}
