package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strconv"

	"github.com/stockroom/backend/internal/models"
)

// MaxImagesPerItem caps how many files one create or update request may
// carry.
const MaxImagesPerItem = 5

var (
	ErrInvalidItem   = errors.New("invalid item data")
	ErrTooManyImages = fmt.Errorf("at most %d images per item", MaxImagesPerItem)
)

// ItemService reconciles form fields and uploaded files into the record
// handed to the repository, and owns the image-file side effects of
// update and delete.
type ItemService struct {
	repo   ItemRepository
	images *ImageStore
}

func NewItemService(repo ItemRepository, images *ImageStore) *ItemService {
	return &ItemService{
		repo:   repo,
		images: images,
	}
}

func (s *ItemService) List(ctx context.Context) ([]*models.Item, error) {
	return s.repo.FindAll(ctx)
}

func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ItemService) Create(ctx context.Context, form models.ItemForm, files []*multipart.FileHeader) (*models.Item, error) {
	if len(files) > MaxImagesPerItem {
		return nil, ErrTooManyImages
	}

	qty, price, starred, err := parseScalars(form)
	if err != nil {
		return nil, err
	}

	paths, err := s.storeUploads(files)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		Sku:         form.Sku,
		Name:        form.Name,
		Qty:         qty,
		Description: form.Description,
		Price:       price,
		Images:      paths,
		Starred:     starred,
	}
	return s.repo.Create(ctx, item)
}

// Update overwrites every scalar field with the supplied form values
// and resolves the image list in priority order: newly uploaded files
// win outright, then a client-supplied existingImages list, and with
// neither the stored list is left untouched. Files replaced by new
// uploads stay on disk; delete is the only path that removes them.
func (s *ItemService) Update(ctx context.Context, id string, form models.ItemForm, files []*multipart.FileHeader) (*models.Item, error) {
	if len(files) > MaxImagesPerItem {
		return nil, ErrTooManyImages
	}

	qty, price, starred, err := parseScalars(form)
	if err != nil {
		return nil, err
	}

	update := models.ItemUpdate{
		Sku:         form.Sku,
		Name:        form.Name,
		Qty:         qty,
		Description: form.Description,
		Price:       price,
		Starred:     starred,
	}

	switch {
	case len(files) > 0:
		paths, err := s.storeUploads(files)
		if err != nil {
			return nil, err
		}
		update.Images = &paths
	case form.ExistingImages != "":
		var keep []string
		if err := json.Unmarshal([]byte(form.ExistingImages), &keep); err != nil {
			return nil, fmt.Errorf("%w: existingImages is not a JSON list: %v", ErrInvalidItem, err)
		}
		update.Images = &keep
	}

	return s.repo.UpdateByID(ctx, id, update)
}

// Delete removes the record, then best-effort deletes every image file
// it referenced. A failed file deletion is logged and swallowed; the
// record is already gone and the client still gets a success.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	item, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	for _, imagePath := range item.Images {
		if err := s.images.Delete(imagePath); err != nil {
			log.Printf("[ItemService] Error deleting image file %s: %v", imagePath, err)
		}
	}
	return nil
}

func (s *ItemService) storeUploads(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
		}
		storedPath, err := s.images.Save(fh.Filename, src)
		src.Close()
		if err != nil {
			return nil, err
		}
		paths = append(paths, storedPath)
	}
	return paths, nil
}

// parseScalars coerces the free-form qty/price/starred strings. Empty
// values become zero values; starred coerces to false on anything but a
// parseable true.
func parseScalars(form models.ItemForm) (qty int64, price float64, starred bool, err error) {
	if form.Qty != "" {
		qty, err = strconv.ParseInt(form.Qty, 10, 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: qty must be a number", ErrInvalidItem)
		}
	}
	if form.Price != "" {
		price, err = strconv.ParseFloat(form.Price, 64)
		if err != nil {
			return 0, 0, false, fmt.Errorf("%w: price must be a number", ErrInvalidItem)
		}
	}
	if v, perr := strconv.ParseBool(form.Starred); perr == nil {
		starred = v
	}
	return qty, price, starred, nil
}
