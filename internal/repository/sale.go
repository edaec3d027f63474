package repository

import (
	"context"
	"time"

	"sales-service/internal/model"
	"sales-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleFunc inspects the locked product, mutates its stock and returns the
// sale to insert. Returning an error aborts the transaction.
type SaleFunc func(product *model.Product) (*model.Sale, error)

// SaleRepository stores the sale ledger
type SaleRepository interface {
	List(ctx context.Context) ([]model.Sale, error)
	// Record locks the product row, runs apply and persists the sale and the
	// product's new stock in one transaction
	Record(ctx context.Context, productID uint, apply SaleFunc) (*model.Sale, *model.Product, error)
}

type GormSaleRepository struct{ db *gorm.DB }

func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository { return &GormSaleRepository{db: db} }

func (r *GormSaleRepository) List(ctx context.Context) ([]model.Sale, error) {
	defer prometheus.TrackDBOperation("sale_list")(time.Now())
	var sales []model.Sale
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *GormSaleRepository) Record(ctx context.Context, productID uint, apply SaleFunc) (*model.Sale, *model.Product, error) {
	defer prometheus.TrackDBOperation("sale_create")(time.Now())

	var (
		sale    *model.Sale
		product model.Product
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// SELECT ... FOR UPDATE serializes concurrent sales of one product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
			return translate(err)
		}

		var err error
		sale, err = apply(&product)
		if err != nil {
			return err
		}

		// the client may have been deleted since it was checked; that
		// surfaces here as ErrForeignKey
		if err := tx.Create(sale).Error; err != nil {
			return translate(err)
		}

		return tx.Model(&product).Updates(map[string]interface{}{
			"quantity":  product.Quantity,
			"is_active": product.IsActive,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, &product, nil
}
