package services

import (
	"math"

	"gorm.io/gorm"
)

const MaxPageSize = 100

// Page is one page of a listing plus what templates need for navigation.
type Page[T any] struct {
	Items       []T
	TotalRows   int64
	TotalPages  int
	CurrentPage int
	PageSize    int
}

func (p Page[T]) HasPrev() bool { return p.CurrentPage > 1 }
func (p Page[T]) HasNext() bool { return p.CurrentPage < p.TotalPages }
func (p Page[T]) PrevPage() int { return p.CurrentPage - 1 }
func (p Page[T]) NextPage() int { return p.CurrentPage + 1 }

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	switch {
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	case pageSize <= 0:
		pageSize = 10
	}
	return page, pageSize
}

// paginate is a gorm scope applying offset and limit.
func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// findPage counts query, then loads the requested page in order with the
// given associations preloaded.
func findPage[T any](query *gorm.DB, order string, page, pageSize int, preload ...string) (Page[T], error) {
	page, pageSize = normalizePage(page, pageSize)
	result := Page[T]{CurrentPage: page, PageSize: pageSize}

	if err := query.Session(&gorm.Session{}).Count(&result.TotalRows).Error; err != nil {
		return result, err
	}
	if result.TotalRows > 0 {
		result.TotalPages = int(math.Ceil(float64(result.TotalRows) / float64(pageSize)))
	}

	find := query.Session(&gorm.Session{})
	for _, assoc := range preload {
		find = find.Preload(assoc)
	}
	items := make([]T, 0, pageSize)
	if err := find.Order(order).Scopes(paginate(page, pageSize)).Find(&items).Error; err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}
