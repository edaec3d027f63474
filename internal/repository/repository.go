// Package repository holds the persistence layer: one interface per entity
// and its GORM implementation.
package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write hits a unique index
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignKey is returned when a write references a missing row
	ErrForeignKey = errors.New("foreign key violated")
)

// Period is a half-open time range [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// MonthPeriod returns the UTC range covering the given calendar month
func MonthPeriod(year, month int) Period {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// translate maps GORM errors to the repository's sentinels. Constraint
// errors are only recognised when the DB is opened with TranslateError.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	}
	return err
}

func excludeID(q *gorm.DB, id uint) *gorm.DB {
	if id == 0 {
		return q
	}
	return q.Where("id <> ?", id)
}
