package repository

import (
	"context"
	"time"

	"sales-service/internal/model"
	"sales-service/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository stores API operators
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenRepository tracks revoked bearer tokens
type TokenRepository interface {
	// Revoke stores the token id and purges rows that already expired. It
	// reports false when the id was already revoked.
	Revoke(ctx context.Context, t *model.RevokedToken) (bool, error)
	IsRevoked(ctx context.Context, id string) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewGormUserRepository(db *gorm.DB) *GormUserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	defer prometheus.TrackDBOperation("user_create")(time.Now())
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get")(time.Now())
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer prometheus.TrackDBOperation("user_get_by_email")(time.Now())
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *GormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

type GormTokenRepository struct{ db *gorm.DB }

func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository { return &GormTokenRepository{db: db} }

func (r *GormTokenRepository) Revoke(ctx context.Context, t *model.RevokedToken) (bool, error) {
	defer prometheus.TrackDBOperation("token_revoke")(time.Now())
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	if _, err := r.PurgeExpired(ctx, time.Now()); err != nil {
		return false, err
	}
	return res.RowsAffected > 0, nil
}

func (r *GormTokenRepository) IsRevoked(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RevokedToken{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *GormTokenRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.RevokedToken{})
	return res.RowsAffected, res.Error
}
