package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/logging"
	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/mykafka"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/transport"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

type ListProductsParams struct {
	CategorySlug string
	Search       string
	MinPrice     *float64
	MaxPrice     *float64
	Featured     *bool
	Status       string
	AdminView    bool
	Sort         string
	Offset       int
	Limit        int
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, p ListProductsParams) (int64, []models.Product, error) {
	f := repo.ProductFilter{
		Search:   p.Search,
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
		Featured: p.Featured,
		Sort:     p.Sort,
		Offset:   p.Offset,
		Limit:    p.Limit,
	}

	if p.CategorySlug != "" {
		category, err := s.Repo.GetCategoryBySlug(ctx, p.CategorySlug)
		if err == nil {
			f.CategoryID = &category.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, err
		}
		// An unknown slug just drops the filter, matching the storefront's
		// long-standing behaviour.
	}

	if p.Status != "" {
		f.Status = p.Status
	} else if !p.AdminView {
		// Public listings only show active products.
		f.Status = models.ProductStatusActive
	}

	return s.Repo.ListProducts(ctx, f)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" || req.Description == "" || req.Category == "" {
		return nil, fmt.Errorf("%w: title, description and category are required", ErrValidation)
	}
	if err := validateProductFields(req.Price, req.Discount, req.Stock); err != nil {
		return nil, err
	}

	categoryID, err := uuid.Parse(req.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid category id", ErrValidation)
	}
	if _, err := s.Repo.GetCategory(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusActive
	}
	if !validProductStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	product := &models.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		CategoryID:  categoryID,
		Images:      req.Images,
		Stock:       req.Stock,
		Status:      status,
		Featured:    req.Featured,
	}

	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.indexProduct(ctx, product)
	publishEvent(ctx, s.Producer, "product_events", product.ID.String(), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"title":      product.Title,
	})

	return s.Repo.GetProduct(ctx, product.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Discount != nil {
		product.Discount = *req.Discount
	}
	if req.Category != nil {
		categoryID, err := uuid.Parse(*req.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid category id", ErrValidation)
		}
		if _, err := s.Repo.GetCategory(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: category %s", ErrNotFound, categoryID)
			}
			return nil, err
		}
		product.CategoryID = categoryID
		product.Category = nil
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Status != nil {
		if !validProductStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
		}
		product.Status = *req.Status
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}

	if err := validateProductFields(product.Price, product.Discount, product.Stock); err != nil {
		return nil, err
	}
	if product.Title == "" || product.Description == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.indexProduct(ctx, product)
	publishEvent(ctx, s.Producer, "product_events", product.ID.String(), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"title":      product.Title,
	})

	return s.Repo.GetProduct(ctx, product.ID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return err
	}

	s.deindexProduct(ctx, id)
	publishEvent(ctx, s.Producer, "product_events", id.String(), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})

	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	slug := Slugify(name)
	if _, err := s.Repo.GetCategoryBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: category %q already exists", ErrValidation, name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		Image:       req.Image,
	}
	if err := s.Repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category name is required", ErrValidation)
		}
		// Slug follows the name whenever it changes.
		category.Name = name
		category.Slug = Slugify(name)
	}
	if req.Description != nil {
		category.Description = strings.TrimSpace(*req.Description)
	}
	if req.Image != nil {
		category.Image = *req.Image
	}

	if err := s.Repo.SaveCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.Repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: category still has %d products", ErrValidation, count)
	}

	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// Slugify lowercases the name and joins whitespace runs with hyphens.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func validateProductFields(price, discount float64, stock int64) error {
	if price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if discount < 0 || discount > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrValidation)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	return nil
}

func validProductStatus(s string) bool {
	switch s {
	case models.ProductStatusActive, models.ProductStatusInactive, models.ProductStatusOutOfStock:
		return true
	}
	return false
}

func (s *CatalogService) indexProduct(ctx context.Context, product *models.Product) {
	if s.ES == nil {
		return
	}
	body, err := json.Marshal(product)
	if err != nil {
		logging.FromContext(ctx).Error("es index error", "product_id", product.ID, "error", err)
		return
	}
	res, err := s.ES.Index(
		s.ESIndex,
		bytes.NewReader(body),
		s.ES.Index.WithDocumentID(product.ID.String()),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		logging.FromContext(ctx).Error("es index error", "product_id", product.ID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		logging.FromContext(ctx).Error("es index error", "product_id", product.ID, "status", res.Status())
	}
}

func (s *CatalogService) deindexProduct(ctx context.Context, id uuid.UUID) {
	if s.ES == nil {
		return
	}
	res, err := s.ES.Delete(s.ESIndex, id.String(), s.ES.Delete.WithContext(ctx))
	if err != nil {
		logging.FromContext(ctx).Error("es delete error", "product_id", id, "error", err)
		return
	}
	res.Body.Close()
}
