package repository

import (
	"context"
	"time"

	"sales-service/internal/model"
	"sales-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientChanges lists the columns an update writes. New address rows are
// inserted whole; Address only applies to an existing row.
type ClientChanges struct {
	Client  map[string]interface{}
	Address map[string]interface{}
}

// ClientFunc edits the locked client (and its address) and returns the
// columns to write. Returning an error aborts the transaction.
type ClientFunc func(c *model.Client) (ClientChanges, error)

// ClientRepository stores clients together with their address
type ClientRepository interface {
	List(ctx context.Context) ([]model.Client, error)
	FindByID(ctx context.Context, id uint) (*model.Client, error)
	Exists(ctx context.Context, id uint) (bool, error)
	// CPFExists and EmailExists ignore the client with id exclude (0 checks all rows)
	CPFExists(ctx context.Context, cpf string, exclude uint) (bool, error)
	EmailExists(ctx context.Context, email string, exclude uint) (bool, error)
	// Create inserts the client and its address in one transaction
	Create(ctx context.Context, c *model.Client) error
	// Update locks the client row, runs apply and writes the returned columns,
	// inserting the address when apply attached a new one
	Update(ctx context.Context, id uint, apply ClientFunc) (*model.Client, error)
	// Delete removes the client, its address and its sales
	Delete(ctx context.Context, id uint) error
	// ListSales returns the client's sales newest first, optionally within period
	ListSales(ctx context.Context, clientID uint, period *Period) ([]model.Sale, error)
}

type GormClientRepository struct{ db *gorm.DB }

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) List(ctx context.Context) ([]model.Client, error) {
	defer prometheus.TrackDBOperation("client_list")(time.Now())
	var clients []model.Client
	if err := r.db.WithContext(ctx).Preload("Address").Order("id").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *GormClientRepository) FindByID(ctx context.Context, id uint) (*model.Client, error) {
	defer prometheus.TrackDBOperation("client_get")(time.Now())
	var c model.Client
	if err := r.db.WithContext(ctx).Preload("Address").First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormClientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormClientRepository) CPFExists(ctx context.Context, cpf string, exclude uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Client{}).Where("cpf = ?", cpf)
	err := excludeID(q, exclude).Count(&count).Error
	return count > 0, err
}

func (r *GormClientRepository) EmailExists(ctx context.Context, email string, exclude uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Client{}).Where("email = ?", email)
	err := excludeID(q, exclude).Count(&count).Error
	return count > 0, err
}

func (r *GormClientRepository) Create(ctx context.Context, c *model.Client) error {
	defer prometheus.TrackDBOperation("client_create")(time.Now())
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		if c.Address == nil {
			return nil
		}
		c.Address.ClientID = c.ID
		return tx.Create(c.Address).Error
	})
	return translate(err)
}

func (r *GormClientRepository) Update(ctx context.Context, id uint, apply ClientFunc) (*model.Client, error) {
	defer prometheus.TrackDBOperation("client_update")(time.Now())

	var client model.Client
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Address").First(&client, id).Error; err != nil {
			return err
		}

		changes, err := apply(&client)
		if err != nil {
			return err
		}

		if len(changes.Client) > 0 {
			if err := tx.Model(&client).Omit(clause.Associations).Updates(changes.Client).Error; err != nil {
				return err
			}
		}
		switch {
		case client.Address == nil:
			return nil
		case client.Address.ID == 0:
			client.Address.ClientID = client.ID
			return tx.Create(client.Address).Error
		case len(changes.Address) > 0:
			return tx.Model(client.Address).Updates(changes.Address).Error
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &client, nil
}

func (r *GormClientRepository) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("client_delete")(time.Now())
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&model.Sale{}).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", id).Delete(&model.Address{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Client{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormClientRepository) ListSales(ctx context.Context, clientID uint, period *Period) ([]model.Sale, error) {
	defer prometheus.TrackDBOperation("client_sales")(time.Now())
	q := r.db.WithContext(ctx).Where("client_id = ?", clientID)
	if period != nil {
		q = q.Where("created_at >= ? AND created_at < ?", period.From, period.To)
	}
	var sales []model.Sale
	if err := q.Order("created_at DESC, id DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
