package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom/backend/internal/models"
	"github.com/stockroom/backend/internal/services"
)

func newTestRouter(t *testing.T) (*chi.Mux, string) {
	t.Helper()

	uploadDir := t.TempDir()
	store, err := services.NewImageStore(uploadDir)
	require.NoError(t, err)

	itemService := services.NewItemService(services.NewMemoryItemRepository(), store)
	itemHandler := NewItemHandler(itemService, 10)

	r := chi.NewRouter()
	r.Get("/items", itemHandler.ListItems)
	r.Get("/items/{itemId}", itemHandler.GetItem)
	r.Post("/items", itemHandler.CreateItem)
	r.Put("/update-items/{itemId}", itemHandler.UpdateItem)
	r.Delete("/delete-items/{itemId}", itemHandler.DeleteItem)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	return r, uploadDir
}

// multipartBody builds a multipart request body with the given scalar
// fields and one "images" file part per filename.
func multipartBody(t *testing.T, fields map[string]string, filenames ...string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, name := range filenames {
		part, err := w.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image bytes for " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func doRequest(t *testing.T, r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeItem(t *testing.T, rec *httptest.ResponseRecorder) models.Item {
	t.Helper()

	var item models.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	return item
}

func createItem(t *testing.T, r http.Handler, fields map[string]string, filenames ...string) models.Item {
	t.Helper()

	body, contentType := multipartBody(t, fields, filenames...)
	rec := doRequest(t, r, http.MethodPost, "/items", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeItem(t, rec)
}

func TestCreateItem(t *testing.T) {
	r, _ := newTestRouter(t)

	item := createItem(t, r, map[string]string{
		"sku":         "SKU-1",
		"name":        "Drill",
		"qty":         "4",
		"description": "Cordless",
		"price":       "99.99",
		"starred":     "true",
	}, "a.jpg", "b.png")

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "SKU-1", item.Sku)
	assert.Equal(t, "Drill", item.Name)
	assert.Equal(t, int64(4), item.Qty)
	assert.Equal(t, 99.99, item.Price)
	assert.True(t, item.Starred)
	require.Len(t, item.Images, 2)

	// Every returned path is readable through the static mount.
	for _, img := range item.Images {
		rec := doRequest(t, r, http.MethodGet, img, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, "GET %s", img)
	}
}

func TestCreateItem_StarredDefaultsFalse(t *testing.T) {
	r, _ := newTestRouter(t)

	item := createItem(t, r, map[string]string{"name": "Plain"})
	assert.False(t, item.Starred)
}

func TestCreateItem_TooManyFiles(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{"name": "Over"},
		"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg", "6.jpg")
	rec := doRequest(t, r, http.MethodPost, "/items", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was persisted.
	rec = doRequest(t, r, http.MethodGet, "/items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateItem_InvalidQty(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{"qty": "several"})
	rec := doRequest(t, r, http.MethodPost, "/items", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Message)
}

func TestListItems(t *testing.T) {
	r, _ := newTestRouter(t)

	first := createItem(t, r, map[string]string{"name": "first"})
	second := createItem(t, r, map[string]string{"name": "second"})

	rec := doRequest(t, r, http.MethodGet, "/items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestGetItem(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createItem(t, r, map[string]string{
		"sku":   "SKU-7",
		"name":  "Ladder",
		"qty":   "1",
		"price": "45",
	}, "x.jpg")

	rec := doRequest(t, r, http.MethodGet, "/items/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	fetched := decodeItem(t, rec)
	assert.Equal(t, created, fetched)
}

func TestGetItem_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/items/no-such-id", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Item not found", resp.Message)
}

func TestUpdateItem_NewFiles(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Saw"}, "old.jpg")

	body, contentType := multipartBody(t, map[string]string{"name": "Saw v2"}, "new.png")
	rec := doRequest(t, r, http.MethodPut, "/update-items/"+created.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeItem(t, rec)
	assert.Equal(t, "Saw v2", updated.Name)
	require.Len(t, updated.Images, 1)
	assert.NotEqual(t, created.Images[0], updated.Images[0])

	// The orphaned original upload is still served.
	getRec := doRequest(t, r, http.MethodGet, created.Images[0], nil, "")
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestUpdateItem_ExistingImages(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Rack"}, "a.jpg", "b.jpg", "c.jpg")

	keep, err := json.Marshal([]string{created.Images[2], created.Images[0]})
	require.NoError(t, err)

	body, contentType := multipartBody(t, map[string]string{
		"name":           "Rack",
		"existingImages": string(keep),
	})
	rec := doRequest(t, r, http.MethodPut, "/update-items/"+created.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeItem(t, rec)
	assert.Equal(t, []string{created.Images[2], created.Images[0]}, updated.Images)
}

func TestUpdateItem_NoImageInputs(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Shelf", "sku": "SKU-2"}, "a.jpg")

	body, contentType := multipartBody(t, map[string]string{"name": "Shelf v2"})
	rec := doRequest(t, r, http.MethodPut, "/update-items/"+created.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeItem(t, rec)
	assert.Equal(t, created.Images, updated.Images)
	assert.Equal(t, "Shelf v2", updated.Name)
	// Scalars not resent come back cleared.
	assert.Empty(t, updated.Sku)
}

func TestUpdateItem_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartBody(t, map[string]string{"name": "ghost"})
	rec := doRequest(t, r, http.MethodPut, "/update-items/no-such-id", body, contentType)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItem_InvalidExistingImages(t *testing.T) {
	r, _ := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Rack"})

	body, contentType := multipartBody(t, map[string]string{"existingImages": "not json"})
	rec := doRequest(t, r, http.MethodPut, "/update-items/"+created.ID, body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteItem(t *testing.T) {
	r, uploadDir := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Bin"}, "a.jpg", "b.jpg")

	rec := doRequest(t, r, http.MethodDelete, "/delete-items/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Item deleted successfully", resp.Message)

	// Gone from by-id and list reads.
	rec = doRequest(t, r, http.MethodGet, "/items/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/items", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	// Image files were cleaned up.
	for _, img := range created.Images {
		_, err := os.Stat(filepath.Join(uploadDir, filepath.Base(img)))
		assert.True(t, os.IsNotExist(err), "file for %s should be gone", img)
	}
}

func TestDeleteItem_MissingFileStillSucceeds(t *testing.T) {
	r, uploadDir := newTestRouter(t)

	created := createItem(t, r, map[string]string{"name": "Bin"}, "a.jpg")
	require.NoError(t, os.Remove(filepath.Join(uploadDir, filepath.Base(created.Images[0]))))

	rec := doRequest(t, r, http.MethodDelete, "/delete-items/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteItem_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodDelete, "/delete-items/no-such-id", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
