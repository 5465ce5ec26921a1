package repositories_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"insightpro/internal/config"
	"insightpro/internal/database"
	"insightpro/internal/models"
	"insightpro/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openSQLite returns a migrated private in-memory database.
func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func ratingPtr(f float64) *models.Rating {
	r := models.Rating(f)
	return &r
}

func testAccountRepository(t *testing.T, repo repositories.AccountRepository) {
	ctx := context.Background()

	exists, err := repo.ExistsByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	account := &models.Account{Email: "test@example.com", Password: "hash", Company: "Acme"}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotZero(t, account.ID)

	exists, err = repo.ExistsByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, "Acme", got.Company)

	err = repo.Create(ctx, &models.Account{Email: "test@example.com", Password: "other", Company: "Globex"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)
}

func testConcurrentAccountCreate(t *testing.T, repo repositories.AccountRepository) {
	ctx := context.Background()
	const attempts = 5

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(ctx, &models.Account{Email: "race@example.com", Password: "hash", Company: "Acme"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	}
	assert.Equal(t, 1, succeeded)
}

func testProductRepository(t *testing.T, repo repositories.ProductRepository) {
	ctx := context.Background()

	products, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	phone := &models.Product{
		Name:          "Phone",
		Company:       "Acme",
		AverageRating: 4.5,
		Comments:      []models.Comment{{Text: "a"}, {Text: "b"}},
	}
	require.NoError(t, repo.Create(ctx, phone))
	require.NotZero(t, phone.ID)
	require.Len(t, phone.Comments, 2)
	assert.NotZero(t, phone.Comments[0].ID)
	assert.Equal(t, phone.ID, phone.Comments[1].ProductID)

	tablet := &models.Product{Name: "Tablet", Company: "Acme", AverageRating: 3}
	require.NoError(t, repo.Create(ctx, tablet))

	got, err := repo.GetByID(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Phone", got.Name)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "a", got.Comments[0].Text)
	assert.Equal(t, "b", got.Comments[1].Text)
	assert.Less(t, got.Comments[0].ID, got.Comments[1].ID)

	products, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, phone.ID, products[0].ID)
	assert.Len(t, products[0].Comments, 2)
	assert.Equal(t, tablet.ID, products[1].ID)
	assert.Empty(t, products[1].Comments)

	// Only the supplied field changes.
	company := "Globex"
	require.NoError(t, repo.Update(ctx, phone.ID, models.ProductUpdate{Company: &company}))
	got, err = repo.GetByID(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, "Globex", got.Company)
	assert.Equal(t, "Phone", got.Name)
	assert.Equal(t, 4.5, got.AverageRating)
	assert.Len(t, got.Comments, 2)

	require.NoError(t, repo.Update(ctx, tablet.ID, models.ProductUpdate{AverageRating: ratingPtr(0)}))
	got, err = repo.GetByID(ctx, tablet.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.AverageRating)

	err = repo.Update(ctx, 9999, models.ProductUpdate{Company: &company})
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, phone.ID))
	_, err = repo.GetByID(ctx, phone.ID)
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, phone.ID), repositories.ErrRecordNotFound)

	products, err = repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, tablet.ID, products[0].ID)
}

func TestMemoryAccountRepository(t *testing.T) {
	testAccountRepository(t, repositories.NewMemoryAccountRepository())
	testConcurrentAccountCreate(t, repositories.NewMemoryAccountRepository())
}

func TestMemoryProductRepository(t *testing.T) {
	testProductRepository(t, repositories.NewMemoryProductRepository())
}

func TestMemoryProductRepository_ReturnsCopies(t *testing.T) {
	repo := repositories.NewMemoryProductRepository()
	ctx := context.Background()

	product := &models.Product{Name: "Phone", Company: "Acme", Comments: []models.Comment{{Text: "a"}}}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	got.Comments[0].Text = "changed"

	again, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Comments[0].Text)
}

func TestGORMAccountRepository(t *testing.T) {
	testAccountRepository(t, repositories.NewGORMAccountRepository(openSQLite(t)))
	testConcurrentAccountCreate(t, repositories.NewGORMAccountRepository(openSQLite(t)))
}

func TestGORMProductRepository(t *testing.T) {
	testProductRepository(t, repositories.NewGORMProductRepository(openSQLite(t)))
}

func TestGORMProductRepository_DeleteCascadesToComments(t *testing.T) {
	db := openSQLite(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Name: "Phone", Company: "Acme", Comments: []models.Comment{{Text: "a"}, {Text: "b"}}}
	require.NoError(t, repo.Create(ctx, product))
	require.NoError(t, repo.Delete(ctx, product.ID))

	var orphans int64
	require.NoError(t, db.Model(&models.Comment{}).Where("product_id = ?", product.ID).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestGORMProductRepository_CreateIsAtomic(t *testing.T) {
	db := openSQLite(t)
	repo := repositories.NewGORMProductRepository(db)
	ctx := context.Background()

	// Drop the comments table so the second statement of the transaction fails.
	require.NoError(t, db.Migrator().DropTable(&models.Comment{}))

	product := &models.Product{Name: "Phone", Company: "Acme", Comments: []models.Comment{{Text: "a"}}}
	require.Error(t, repo.Create(ctx, product))
	assert.Zero(t, product.ID)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}
