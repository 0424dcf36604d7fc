package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"studykwork/internal/model"
)

type ListingRepository struct {
	db *gorm.DB
}

// ListingFilter narrows a listing query. Nil bounds and empty strings are ignored.
type ListingFilter struct {
	University string
	Search     string
	Category   string
	MinPrice   *int
	MaxPrice   *int
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts the listing and its images (in slice order) in one transaction.
func (r *ListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User").Create(listing).Error
	})
	if err != nil {
		return fmt.Errorf("create listing failed: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id uint) (*model.Listing, error) {
	var listing model.Listing
	if err := r.hydrated(ctx).First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get listing failed: %w", err)
	}
	return &listing, nil
}

// List returns matching listings newest first. Search is matched in Go because
// SQLite's LOWER() only folds ASCII and titles are mostly Cyrillic.
func (r *ListingRepository) List(ctx context.Context, filter ListingFilter) ([]model.Listing, error) {
	q := r.hydrated(ctx)
	if filter.University != "" {
		q = q.Where("university = ?", filter.University)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	var list []model.Listing
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list listings failed: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	if search == "" {
		return list, nil
	}
	matched := list[:0]
	for _, l := range list {
		if strings.Contains(strings.ToLower(l.Title), search) || strings.Contains(strings.ToLower(l.Description), search) {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

func (r *ListingRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Listing, error) {
	var list []model.Listing
	if err := r.hydrated(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list listings by user failed: %w", err)
	}
	return list, nil
}

// DeleteWithImages removes the images first, then the listing, atomically.
func (r *ListingRepository) DeleteWithImages(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&model.ListingImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Listing{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete listing failed: %w", err)
	}
	return nil
}

func (r *ListingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Listing{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count listings failed: %w", err)
	}
	return count, nil
}

func (r *ListingRepository) hydrated(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		})
}
