package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/db"
	"github.com/elitestore/backend/internal/hash"
	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	return repo.New(gdb)
}

func seedCategory(t *testing.T, r *repo.GormRepo, name string) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Slug: Slugify(name)}
	require.NoError(t, r.CreateCategory(context.Background(), category))
	return category
}

func seedProduct(t *testing.T, r *repo.GormRepo, category *models.Category, title string, price, discount float64, stock int64) *models.Product {
	t.Helper()

	product := &models.Product{
		Title:       title,
		Description: title + " description",
		Price:       price,
		Discount:    discount,
		CategoryID:  category.ID,
		Stock:       stock,
	}
	require.NoError(t, r.CreateProduct(context.Background(), product))
	return product
}

func seedUser(t *testing.T, r *repo.GormRepo, email, role, password string) *models.User {
	t.Helper()

	passwordHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))
	return user
}
