package handler

import (
	"context"
	"net/http"

	"sales-service/internal/model"
	"sales-service/internal/service"

	"github.com/labstack/echo/v4"
)

const productNotFound = "Product not found."

// ProductService is what ProductHandler needs from the catalog
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, in service.CreateProductInput) (*model.Product, error)
	Update(ctx context.Context, id uint, in service.UpdateProductInput) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type ProductHandler struct {
	products ProductService
}

func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// GetProducts lists active products
func (h *ProductHandler) GetProducts(c echo.Context) error {
	products, err := h.products.List(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Products retrieved successfully.", products)
}

// GetProduct returns a product by id, active or not
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := pathID(c, productNotFound)
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Product retrieved successfully.", product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var in service.CreateProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	product, err := h.products.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Product created successfully.", product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c, productNotFound)
	if err != nil {
		return err
	}
	var in service.UpdateProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	product, err := h.products.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Product updated successfully.", product)
}

// DeleteProduct deactivates the product
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c, productNotFound)
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
