package repository

import (
	"context"
	"time"

	"sales-service/internal/model"
	"sales-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFunc edits the locked product and returns the columns to write.
// Returning an error aborts the transaction.
type ProductFunc func(p *model.Product) (map[string]interface{}, error)

// ProductRepository stores the product catalog
type ProductRepository interface {
	ListActive(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// SKUExists ignores the product with id exclude (0 checks all rows)
	SKUExists(ctx context.Context, sku string, exclude uint) (bool, error)
	Create(ctx context.Context, p *model.Product) error
	// Update locks the product row, runs apply and writes only the columns
	// it returns, so stock moved by a concurrent sale is never overwritten
	Update(ctx context.Context, id uint, apply ProductFunc) (*model.Product, error)
	// Deactivate sets is_active=false, keeping the row
	Deactivate(ctx context.Context, id uint) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) ListActive(ctx context.Context) ([]model.Product, error) {
	defer prometheus.TrackDBOperation("product_list")(time.Now())
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	defer prometheus.TrackDBOperation("product_get")(time.Now())
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProductRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormProductRepository) SKUExists(ctx context.Context, sku string, exclude uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", sku)
	err := excludeID(q, exclude).Count(&count).Error
	return count > 0, err
}

func (r *GormProductRepository) Create(ctx context.Context, p *model.Product) error {
	defer prometheus.TrackDBOperation("product_create")(time.Now())
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormProductRepository) Update(ctx context.Context, id uint, apply ProductFunc) (*model.Product, error) {
	defer prometheus.TrackDBOperation("product_update")(time.Now())

	var product model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			return translate(err)
		}

		cols, err := apply(&product)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return nil
		}
		return translate(tx.Model(&product).Updates(cols).Error)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) Deactivate(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("product_delete")(time.Now())
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
