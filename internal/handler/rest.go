package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
	"github.com/vyrodovalexey/shoplist-api/internal/form"
	"github.com/vyrodovalexey/shoplist-api/internal/model"
	"github.com/vyrodovalexey/shoplist-api/internal/store"
	"github.com/vyrodovalexey/shoplist-api/internal/totals"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

// Version is the application version.
const Version = "1.0.0"

// Publisher receives change events after successful mutations.
type Publisher interface {
	Publish(event model.ListEvent)
}

// itemInput is the request body of item saves.
type itemInput struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Qtd    string `json:"qtd"`
	Brand  string `json:"brand"`
}

// listInput is the request body of list saves.
type listInput struct {
	Name string `json:"name"`
}

// RESTHandler handles REST API requests for product lists and items.
type RESTHandler struct {
	store     store.Store
	validator *validation.Validator
	publisher Publisher
	logger    *zap.Logger
	newID     form.IDGenerator
}

// NewRESTHandler creates a new RESTHandler instance. publisher may be nil.
func NewRESTHandler(
	s store.Store,
	v *validation.Validator,
	publisher Publisher,
	logger *zap.Logger,
) *RESTHandler {
	return &RESTHandler{
		store:     s,
		validator: v,
		publisher: publisher,
		logger:    logger,
		newID:     form.NewUUID,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/lists", h.ListLists).Methods(http.MethodGet)
	api.HandleFunc("/lists", h.CreateList).Methods(http.MethodPost)
	api.HandleFunc("/lists/{listId}", h.GetList).Methods(http.MethodGet)
	api.HandleFunc("/lists/{listId}", h.UpdateList).Methods(http.MethodPut)
	api.HandleFunc("/lists/{listId}", h.DeleteList).Methods(http.MethodDelete)
	api.HandleFunc("/lists/{listId}/items", h.ListItems).Methods(http.MethodGet)
	api.HandleFunc("/lists/{listId}/items", h.CreateItem).Methods(http.MethodPost)
	api.HandleFunc("/lists/{listId}/items/{itemId}", h.UpdateItem).Methods(http.MethodPut)
	api.HandleFunc("/lists/{listId}/items/{itemId}", h.DeleteItem).Methods(http.MethodDelete)
	api.HandleFunc("/lists/{listId}/totals", h.GetTotals).Methods(http.MethodGet)
	api.HandleFunc("/schemas", h.ListSchemas).Methods(http.MethodGet)
	api.HandleFunc("/schemas/{name}/validate", h.ValidateFields).Methods(http.MethodPost)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests. The service is ready once its
// store answers.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Lists(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, model.NewSuccessResponse(ReadyResponse{Status: "unavailable"}))
		return
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListLists handles GET /api/v1/lists requests.
func (h *RESTHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.store.Lists(r.Context())
	if err != nil {
		h.logger.Error("failed to list product lists", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve lists")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(lists))
}

// GetList handles GET /api/v1/lists/{listId} requests.
func (h *RESTHandler) GetList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.GetList(r.Context(), mux.Vars(r)["listId"])
	if err != nil {
		h.handleStoreError(w, err, "get list")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(list))
}

// CreateList handles POST /api/v1/lists requests.
func (h *RESTHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	h.saveList(w, r, model.ListParams{}, http.StatusCreated, model.EventListCreated)
}

// UpdateList handles PUT /api/v1/lists/{listId} requests.
func (h *RESTHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	existing, err := h.store.GetList(r.Context(), mux.Vars(r)["listId"])
	if err != nil {
		h.handleStoreError(w, err, "update list")
		return
	}

	h.saveList(w, r, model.ListParams{ProductList: existing}, http.StatusOK, model.EventListUpdated)
}

// DeleteList handles DELETE /api/v1/lists/{listId} requests.
func (h *RESTHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	listID := mux.Vars(r)["listId"]

	if err := h.store.DeleteList(r.Context(), listID); err != nil {
		h.handleStoreError(w, err, "delete list")
		return
	}

	h.publish(model.NewListEvent(model.EventListDeleted, listID, nil))
	h.writeJSON(w, http.StatusNoContent, nil)
}

// ListItems handles GET /api/v1/lists/{listId}/items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Items(r.Context(), mux.Vars(r)["listId"])
	if err != nil {
		h.handleStoreError(w, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// CreateItem handles POST /api/v1/lists/{listId}/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	params := model.ItemParams{ListID: mux.Vars(r)["listId"]}
	h.saveItem(w, r, params, http.StatusCreated)
}

// UpdateItem handles PUT /api/v1/lists/{listId}/items/{itemId} requests.
// The saved item replaces the old one under a new ID.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	listID := vars["listId"]
	itemID := vars["itemId"]

	items, err := h.store.Items(r.Context(), listID)
	if err != nil {
		h.handleStoreError(w, err, "update item")
		return
	}

	var existing *model.ProductItem
	for i := range items {
		if items[i].ID == itemID {
			existing = &items[i]
			break
		}
	}
	if existing == nil {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.saveItem(w, r, model.ItemParams{ListID: listID, ItemData: existing}, http.StatusOK)
}

// DeleteItem handles DELETE /api/v1/lists/{listId}/items/{itemId} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	listID := vars["listId"]

	if err := h.store.DeleteItem(r.Context(), listID, vars["itemId"]); err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	h.publishList(r.Context(), model.EventItemsChanged, listID)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// GetTotals handles GET /api/v1/lists/{listId}/totals requests.
func (h *RESTHandler) GetTotals(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Items(r.Context(), mux.Vars(r)["listId"])
	if err != nil {
		h.handleStoreError(w, err, "get totals")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(totals.Compute(items)))
}

// ListSchemas handles GET /api/v1/schemas requests.
func (h *RESTHandler) ListSchemas(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(h.validator.Table()))
}

// ValidateFields handles POST /api/v1/schemas/{name}/validate requests.
// It runs a schema without saving anything.
func (h *RESTHandler) ValidateFields(w http.ResponseWriter, r *http.Request) {
	var fields validation.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if report := h.validator.Validate(fields, mux.Vars(r)["name"]); report != nil {
		h.writeValidationError(w, report)
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "valid"}))
}

// saveItem drives an item form with the request body.
func (h *RESTHandler) saveItem(w http.ResponseWriter, r *http.Request, params model.ItemParams, status int) {
	var input itemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	f, err := form.NewItemForm(params, h.formDeps())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f.Dispatch(form.SetName{Value: input.Name})
	f.Dispatch(form.SetAmount{Value: input.Amount})
	f.Dispatch(form.SetQtd{Value: input.Qtd})
	f.Dispatch(form.SetBrand{Value: input.Brand})

	saved, err := f.Save(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "save item")
		return
	}
	if !saved {
		h.writeValidationError(w, f.State().Errors)
		return
	}

	item, _ := f.SavedItem()
	h.publishList(r.Context(), model.EventItemsChanged, params.ListID)
	h.writeJSON(w, status, model.NewSuccessResponse(item))
}

// saveList drives a list form with the request body.
func (h *RESTHandler) saveList(
	w http.ResponseWriter,
	r *http.Request,
	params model.ListParams,
	status int,
	eventType string,
) {
	var input listInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var createdBy string
	if id, ok := auth.FromContext(r.Context()); ok {
		createdBy = id.Subject
	}

	f := form.NewListForm(params, createdBy, h.formDeps())
	f.Dispatch(form.SetName{Value: input.Name})

	saved, err := f.Save(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "save list")
		return
	}
	if !saved {
		h.writeValidationError(w, f.State().Errors)
		return
	}

	list, _ := f.SavedList()
	h.publish(model.NewListEvent(eventType, list.ID, &list))
	h.writeJSON(w, status, model.NewSuccessResponse(list))
}

func (h *RESTHandler) formDeps() form.Deps {
	return form.Deps{
		Store:      h.store,
		Validator:  h.validator,
		NewID:      h.newID,
		Logger:     h.logger,
		StrictEdit: true,
	}
}

// publishList sends an event carrying the current state of a list.
func (h *RESTHandler) publishList(ctx context.Context, eventType, listID string) {
	if h.publisher == nil {
		return
	}

	list, err := h.store.GetList(ctx, listID)
	if err != nil {
		h.logger.Warn("failed to load list for event", zap.String("list_id", listID), zap.Error(err))
		h.publish(model.NewListEvent(eventType, listID, nil))
		return
	}

	h.publish(model.NewListEvent(eventType, listID, list))
}

func (h *RESTHandler) publish(event model.ListEvent) {
	if h.publisher != nil {
		h.publisher.Publish(event)
	}
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrListNotFound):
		h.writeErrorDetails(w, http.StatusNotFound, "list not found", operation)
	case errors.Is(err, store.ErrItemNotFound):
		h.writeErrorDetails(w, http.StatusNotFound, "item not found", operation)
	case errors.Is(err, store.ErrInvalidID):
		h.writeErrorDetails(w, http.StatusBadRequest, "invalid ID", operation)
	case errors.Is(err, store.ErrDuplicateItem):
		h.writeErrorDetails(w, http.StatusConflict, "duplicate item ID", operation)
	case errors.Is(err, form.ErrSaveInProgress):
		h.writeErrorDetails(w, http.StatusConflict, "save already in progress", operation)
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeErrorDetails(w, http.StatusInternalServerError, "internal server error", operation)
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeErrorDetails(w, status, message, "")
}

// writeErrorDetails writes an error response with extra context, such as
// the failed operation or the JSON decoding error.
func (h *RESTHandler) writeErrorDetails(
	w http.ResponseWriter,
	status int,
	message string,
	details string,
) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
		Details: details,
	}
	h.writeJSON(w, status, response)
}

// writeValidationError writes a 422 response carrying the error report.
func (h *RESTHandler) writeValidationError(w http.ResponseWriter, report *model.ErrorReport) {
	h.writeJSON(w, http.StatusUnprocessableEntity, model.ValidationErrorResponse{
		Code:    http.StatusUnprocessableEntity,
		Message: "validation failed",
		Report:  report,
	})
}
