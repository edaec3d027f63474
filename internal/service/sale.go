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
	productUnavailable = "Product is not available"
	notEnoughStock     = "Not enough stock available"
	invalidClient      = "The selected client id is invalid."
	invalidProduct     = "The selected product id is invalid."
)

// CreateSaleInput is the payload of POST /sales
type CreateSaleInput struct {
	ClientID  uint `json:"client_id" validate:"required"`
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

// SaleService records sales against product stock
type SaleService struct {
	sales    repository.SaleRepository
	clients  repository.ClientRepository
	products repository.ProductRepository
}

func NewSaleService(sales repository.SaleRepository, clients repository.ClientRepository, products repository.ProductRepository) *SaleService {
	return &SaleService{sales: sales, clients: clients, products: products}
}

// List returns every sale, newest first
func (s *SaleService) List(ctx context.Context) ([]model.Sale, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to retrieve sales.", err)
	}
	return sales, nil
}

// Create sells quantity units of a product to a client. The stock check and
// decrement run under a row lock on the product.
func (s *SaleService) Create(ctx context.Context, in CreateSaleInput) (*model.Sale, error) {
	log := logger.FromContext(ctx)

	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	sale, product, err := s.sales.Record(ctx, in.ProductID, func(p *model.Product) (*model.Sale, error) {
		if !p.IsActive {
			prometheus.RecordSaleRejected("inactive")
			return nil, apperror.BusinessRule(productUnavailable)
		}
		if p.Quantity < in.Quantity {
			prometheus.RecordSaleRejected("insufficient_stock")
			return nil, apperror.BusinessRule(notEnoughStock)
		}

		p.Quantity -= in.Quantity
		p.EnforceStockRule()

		return &model.Sale{
			ClientID:   in.ClientID,
			ProductID:  p.ID,
			Quantity:   in.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: model.LineTotal(p.Price, in.Quantity),
		}, nil
	})
	if err != nil {
		var appErr *apperror.Error
		switch {
		case errors.As(err, &appErr):
			log.Warn("Sale rejected",
				zap.Uint("product_id", in.ProductID),
				zap.Int("quantity", in.Quantity),
				zap.String("reason", appErr.Message))
			return nil, appErr
		case errors.Is(err, repository.ErrNotFound):
			// deleted between the existence check and the lock
			return nil, apperror.FieldError("product_id", invalidProduct)
		case errors.Is(err, repository.ErrForeignKey):
			// client deleted between the existence check and the insert
			return nil, apperror.FieldError("client_id", invalidClient)
		default:
			return nil, apperror.Internal("Failed to create sale.", err)
		}
	}

	prometheus.RecordSale(sale.Quantity)
	prometheus.UpdateProductStock(product.ID, product.SKU, product.Quantity)
	log.Info("Sale recorded",
		zap.Uint("sale_id", sale.ID),
		zap.Uint("client_id", sale.ClientID),
		zap.Uint("product_id", sale.ProductID),
		zap.Int("quantity", sale.Quantity),
		zap.Float64("total_price", sale.TotalPrice),
		zap.Int("remaining_stock", product.Quantity))
	return sale, nil
}

func (s *SaleService) checkReferences(ctx context.Context, in CreateSaleInput) error {
	var errs []*apperror.Error

	exists, err := s.clients.Exists(ctx, in.ClientID)
	if err != nil {
		return apperror.Internal("Failed to validate sale.", err)
	}
	if !exists {
		errs = append(errs, apperror.FieldError("client_id", invalidClient))
	}

	exists, err = s.products.Exists(ctx, in.ProductID)
	if err != nil {
		return apperror.Internal("Failed to validate sale.", err)
	}
	if !exists {
		errs = append(errs, apperror.FieldError("product_id", invalidProduct))
	}

	if merged := apperror.Merge(errs...); merged != nil {
		return merged
	}
	return nil
}
