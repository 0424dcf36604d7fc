package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"studykwork/internal/model"
	"studykwork/internal/repository"
	"studykwork/internal/testutil"
)

func newListing(ownerID uint, title, category string, price int, urls ...string) *model.Listing {
	l := &model.Listing{
		UserID:      ownerID,
		Title:       title,
		Category:    category,
		Price:       price,
		University:  testutil.University,
		Description: "description of " + title,
	}
	for _, u := range urls {
		l.Images = append(l.Images, model.ListingImage{URL: u})
	}
	return l
}

func intPtr(v int) *int { return &v }

func TestListingRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewListingRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	listing := newListing(owner.ID, "Math help", "A", 1000, "/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg")
	require.NoError(t, repo.Create(ctx, listing))
	require.NotZero(t, listing.ID)

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Math help", got.Title)
	assert.Equal(t, "owner@example.com", got.User.Email)
	assert.Equal(t, []string{"/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg"}, got.ImageURLs())
}

func TestListingRepository_GetMissing(t *testing.T) {
	repo := repository.NewListingRepository(testutil.NewDB(t))

	got, err := repo.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListingRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewListingRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	free := newListing(owner.ID, "Free A", "A", 0)
	mid := newListing(owner.ID, "Mid A", "A", 5000)
	high := newListing(owner.ID, "High A", "A", 20000)
	other := newListing(owner.ID, "Mid B", "B", 5000)
	for _, l := range []*model.Listing{free, mid, high, other} {
		require.NoError(t, repo.Create(ctx, l))
	}

	list, err := repo.List(ctx, repository.ListingFilter{
		University: testutil.University,
		Category:   "A",
		MinPrice:   intPtr(1000),
		MaxPrice:   intPtr(21000),
	})
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, high.ID, list[0].ID)
	assert.Equal(t, mid.ID, list[1].ID)
}

func TestListingRepository_ListSearchIsCaseInsensitive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewListingRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	require.NoError(t, repo.Create(ctx, newListing(owner.ID, "Репетитор по IELTS", "A", 0)))
	require.NoError(t, repo.Create(ctx, newListing(owner.ID, "Дизайн постеров", "A", 0)))

	list, err := repo.List(ctx, repository.ListingFilter{Search: "РЕПЕТИТОР"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Репетитор по IELTS", list[0].Title)

	list, err = repo.List(ctx, repository.ListingFilter{Search: "description of дизайн"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListingRepository_ListByUserID(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewListingRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")

	first := newListing(alice.ID, "first", "A", 0)
	second := newListing(alice.ID, "second", "A", 0)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newListing(bob.ID, "bob's", "A", 0)))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ListByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestListingRepository_DeleteWithImages(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewListingRepository(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "Owner", "owner@example.com")

	listing := newListing(owner.ID, "to delete", "A", 0, "/uploads/x.jpg", "/uploads/y.jpg")
	require.NoError(t, repo.Create(ctx, listing))

	require.NoError(t, repo.DeleteWithImages(ctx, listing.ID))

	var listings, images int64
	require.NoError(t, db.Model(&model.Listing{}).Where("id = ?", listing.ID).Count(&listings).Error)
	require.NoError(t, db.Model(&model.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&images).Error)
	assert.Zero(t, listings)
	assert.Zero(t, images)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestListingRepository_DeleteWithImages_MySQLTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `listing_images` WHERE listing_id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `listings` WHERE `listings`.`id` = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithImages(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_DeleteWithImages_RollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewListingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `listing_images` WHERE listing_id = ?")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `listings`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.DeleteWithImages(context.Background(), 5)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
