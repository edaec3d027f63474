package service

import (
	"context"
	"errors"

	"sales-service/internal/apperror"
	"sales-service/internal/model"
	"sales-service/internal/repository"
	"sales-service/pkg/logger"
	"sales-service/prometheus"

	"go.uber.org/zap"
)

const (
	productNotFound = "Product not found."
	skuTaken        = "The sku has already been taken."
)

// CreateProductInput is the payload of POST /products
type CreateProductInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description *string  `json:"description"`
	SKU         string   `json:"sku" validate:"required,max=255"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Quantity    *int     `json:"quantity" validate:"required,gte=0"`
	IsActive    *bool    `json:"is_active"`
}

// UpdateProductInput is the payload of PUT /products/:id; nil fields are left unchanged
type UpdateProductInput struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string  `json:"description"`
	SKU         *string  `json:"sku" validate:"omitnil,min=1,max=255"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Quantity    *int     `json:"quantity" validate:"omitnil,gte=0"`
	IsActive    *bool    `json:"is_active"`
}

// ProductService manages the catalog
type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// List returns active products ordered by name
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to retrieve products.", err)
	}
	return products, nil
}

// Get returns a product whether active or not
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(productNotFound)
		}
		return nil, apperror.Internal("Failed to retrieve product.", err)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	log := logger.FromContext(ctx)

	if err := s.checkSKU(ctx, in.SKU, 0); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		SKU:         in.SKU,
		Price:       *in.Price,
		Quantity:    *in.Quantity,
		IsActive:    true,
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.EnforceStockRule()

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// lost a race with a concurrent create of the same sku
			return nil, apperror.FieldError("sku", skuTaken)
		}
		return nil, apperror.Internal("Failed to create product.", err)
	}

	prometheus.RecordProductOperation("create")
	prometheus.UpdateProductStock(product.ID, product.SKU, product.Quantity)
	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Int("quantity", product.Quantity),
		zap.Bool("is_active", product.IsActive))
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in UpdateProductInput) (*model.Product, error) {
	log := logger.FromContext(ctx)

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	if in.SKU != nil {
		if err := s.checkSKU(ctx, *in.SKU, id); err != nil {
			return nil, err
		}
	}

	product, err := s.products.Update(ctx, id, func(p *model.Product) (map[string]interface{}, error) {
		return in.apply(p), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.NotFound(productNotFound)
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, apperror.FieldError("sku", skuTaken)
		}
		return nil, apperror.Internal("Failed to update product.", err)
	}

	prometheus.RecordProductOperation("update")
	prometheus.UpdateProductStock(product.ID, product.SKU, product.Quantity)
	log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.Int("quantity", product.Quantity),
		zap.Bool("is_active", product.IsActive))
	return product, nil
}

// apply copies the present fields onto p and returns the columns that changed
func (in UpdateProductInput) apply(p *model.Product) map[string]interface{} {
	cols := map[string]interface{}{}
	if in.Name != nil {
		p.Name = *in.Name
		cols["name"] = p.Name
	}
	if in.Description != nil {
		p.Description = in.Description
		cols["description"] = *in.Description
	}
	if in.SKU != nil {
		p.SKU = *in.SKU
		cols["sku"] = p.SKU
	}
	if in.Price != nil {
		p.Price = *in.Price
		cols["price"] = p.Price
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
		cols["quantity"] = p.Quantity
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
		cols["is_active"] = p.IsActive
	}

	active := p.IsActive
	p.EnforceStockRule()
	if active != p.IsActive {
		cols["is_active"] = false
	}
	return cols
}

// Delete deactivates the product; the row and its sales stay
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	if err := s.products.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(productNotFound)
		}
		return apperror.Internal("Failed to delete product.", err)
	}

	prometheus.RecordProductOperation("delete")
	logger.FromContext(ctx).Info("Product deactivated", zap.Uint("product_id", id))
	return nil
}

func (s *ProductService) checkSKU(ctx context.Context, sku string, exclude uint) error {
	taken, err := s.products.SKUExists(ctx, sku, exclude)
	if err != nil {
		return apperror.Internal("Failed to validate product.", err)
	}
	if taken {
		return apperror.FieldError("sku", skuTaken)
	}
	return nil
}

func (s *ProductService) mustExist(ctx context.Context, id uint) error {
	exists, err := s.products.Exists(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to retrieve product.", err)
	}
	if !exists {
		return apperror.NotFound(productNotFound)
	}
	return nil
}
