package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/garderoba/internal/gateway"
	"github.com/erazemk/garderoba/internal/imaging"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// ItemsHandler handles closet item endpoints.
type ItemsHandler struct {
	DB      *sql.DB
	Gateway *gateway.Gateway
}

type createItemRequest struct {
	model.ItemAttrs
	// PurchaseDate defaults to today.
	PurchaseDate string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
}

type setStatusRequest struct {
	Status model.ItemStatus `json:"status" validate:"required,status"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	filter := model.ItemFilter{
		Status:   model.ItemStatus(r.URL.Query().Get("status")),
		Category: model.Category(r.URL.Query().Get("category")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if filter.Category != "" && filter.Category != model.CategoryAll && !filter.Category.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, claims.UserID, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	purchased := time.Now()
	if req.PurchaseDate != "" {
		purchased, _ = time.Parse(model.DateLayout, req.PurchaseDate)
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID, req.ItemAttrs, purchased)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "user", claims.Username, "item", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusCreated, item)
}

// CreateFromPhoto handles POST /api/items/photo. The photo is categorized
// by the AI service; nothing is stored if that fails.
func (h *ItemsHandler) CreateFromPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}

	c, err := h.Gateway.CategorizeImage(r.Context(), gateway.Image{MIME: photo.MIME, Data: photo.Data})
	if err != nil {
		gatewayError(w, "categorize", err)
		return
	}

	item, err := store.CreateItemWithImage(r.Context(), h.DB, claims.UserID, c.Attrs(), time.Now(), photo.Data, photo.MIME)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created from photo", "user", claims.Username, "item", item.ID, "name", item.Name, "category", item.Category)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req model.ItemAttrs
	if !decodeValid(w, r, &req) {
		return
	}

	err := store.UpdateItem(r.Context(), h.DB, claims.UserID, id, req)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, id)
	if err != nil || item == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	slog.Info("item updated", "user", claims.Username, "item", id)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	err := store.DeleteItem(r.Context(), h.DB, claims.UserID, id)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "user", claims.Username, "item", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Worn handles POST /api/items/{id}/worn.
func (h *ItemsHandler) Worn(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.RecordWorn(r.Context(), h.DB, claims.UserID, r.PathValue("id"), time.Now())
	if err != nil {
		slog.Error("failed to record wear", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to record wear")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// SetStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	id := r.PathValue("id")

	var req setStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := store.SetItemStatus(r.Context(), h.DB, claims.UserID, id, req.Status, store.StatusChangeInfo{
		Source:    model.ChangeSourceManual,
		ChangedBy: &claims.UserID,
	})
	switch {
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, model.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to set item status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set item status")
		return
	}

	slog.Info("item status set", "user", claims.Username, "item", id, "status", req.Status)
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	photo, ok := readPhoto(w, r)
	if !ok {
		return
	}

	err := store.SetItemImage(r.Context(), h.DB, claims.UserID, r.PathValue("id"), photo.Data, photo.MIME)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	data, mime, err := store.GetItemImage(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// GetHistory handles GET /api/items/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	history, err := store.GetItemHistory(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item history")
		return
	}
	if history == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, history)
}

// Guide handles POST /api/items/{id}/guide.
func (h *ItemsHandler) Guide(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	item, err := store.GetItem(r.Context(), h.DB, claims.UserID, r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	profile, err := store.GetStyleProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to get style profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get style profile")
		return
	}

	guide, err := h.Gateway.GenerateGuide(r.Context(), *item, *profile)
	if err != nil {
		gatewayError(w, "guide", err)
		return
	}

	jsonResponse(w, http.StatusOK, guide)
}

// readPhoto reads and normalizes the "image" file of a multipart upload.
func readPhoto(w http.ResponseWriter, r *http.Request) (*imaging.Photo, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return nil, false
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return photo, true
}
