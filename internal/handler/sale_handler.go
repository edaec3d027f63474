package handler

import (
	"context"
	"net/http"

	"sales-service/internal/model"
	"sales-service/internal/service"

	"github.com/labstack/echo/v4"
)

// SaleService is what SaleHandler needs from the ledger
type SaleService interface {
	List(ctx context.Context) ([]model.Sale, error)
	Create(ctx context.Context, in service.CreateSaleInput) (*model.Sale, error)
}

type SaleHandler struct {
	sales SaleService
}

func NewSaleHandler(sales SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

func (h *SaleHandler) List(c echo.Context) error {
	sales, err := h.sales.List(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Sales retrieved successfully.", sales)
}

func (h *SaleHandler) Create(c echo.Context) error {
	var in service.CreateSaleInput
	if err := bind(c, &in); err != nil {
		return err
	}
	sale, err := h.sales.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Sale executed successfully", sale)
}
