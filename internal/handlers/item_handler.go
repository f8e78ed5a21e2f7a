package handlers

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/backend/internal/models"
	"github.com/stockroom/backend/internal/services"
)

type ItemHandler struct {
	itemService *services.ItemService
	maxSizeMB   int64
}

func NewItemHandler(itemService *services.ItemService, maxSizeMB int64) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		maxSizeMB:   maxSizeMB,
	}
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		log.Printf("[ListItems] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	item, err := h.itemService.Get(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("Item not found"))
			return
		}
		log.Printf("[GetItem] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	form, files, err := h.parseItemForm(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse(err.Error()))
		return
	}

	item, err := h.itemService.Create(r.Context(), form, files)
	if err != nil {
		log.Printf("[CreateItem] %v", err)
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse(err.Error()))
		return
	}

	log.Printf("[CreateItem] Item created: %s", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	form, files, err := h.parseItemForm(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse(err.Error()))
		return
	}

	item, err := h.itemService.Update(r.Context(), itemID, form, files)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("Item not found"))
			return
		}
		log.Printf("[UpdateItem] %v", err)
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	if err := h.itemService.Delete(r.Context(), itemID); err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("Item not found"))
			return
		}
		log.Printf("[DeleteItem] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewMessageResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, models.NewMessageResponse("Item deleted successfully"))
}

// parseItemForm reads the scalar fields and the uploaded "images" files
// from a multipart (or plain urlencoded) request body.
func (h *ItemHandler) parseItemForm(w http.ResponseWriter, r *http.Request) (models.ItemForm, []*multipart.FileHeader, error) {
	// Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxSizeMB * 1024 * 1024); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return models.ItemForm{}, nil, errors.New("file too large or invalid form data")
	}

	form := models.ItemForm{
		Sku:            r.FormValue("sku"),
		Name:           r.FormValue("name"),
		Qty:            r.FormValue("qty"),
		Description:    r.FormValue("description"),
		Price:          r.FormValue("price"),
		Starred:        r.FormValue("starred"),
		ExistingImages: r.FormValue("existingImages"),
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["images"]
	}
	return form, files, nil
}
