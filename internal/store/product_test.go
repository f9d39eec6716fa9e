package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ecostore/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRepoWithMock(t *testing.T) (*ProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewProductRepository(db), mock
}

var productRowColumns = []string{"id", "name", "description", "price", "stock", "category", "tags", "created_at", "updated_at"}

func TestProductRepository_List(t *testing.T) {
	repo, mock := newProductRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(1\) FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`(?s)FROM products\s+ORDER BY id\s+OFFSET \$1 LIMIT \$2`).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(3, "Kettle", "Electric kettle", int64(4999), 7, "home", "{kitchen,sale}", now, now))

	products, total, err := repo.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Kettle", products[0].Name)
	assert.Equal(t, int64(4999), products[0].Price)
	assert.Equal(t, []string{"kitchen", "sale"}, products[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Get_NotFound(t *testing.T) {
	repo, mock := newProductRepoWithMock(t)

	mock.ExpectQuery(`FROM products\s+WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_Create(t *testing.T) {
	repo, mock := newProductRepoWithMock(t)
	tags := []string{"new"}

	mock.ExpectQuery(`(?s)INSERT INTO products .* RETURNING id`).
		WithArgs("Mug", "Ceramic mug", int64(1200), 10, "home", pq.Array(tags), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	product, err := repo.Create(context.Background(), types.Product{
		Name:        "Mug",
		Description: "Ceramic mug",
		Price:       1200,
		Stock:       10,
		Category:    "home",
		Tags:        tags,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, product.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	repo, mock := newProductRepoWithMock(t)

	mock.ExpectQuery(`(?s)UPDATE products.*RETURNING created_at`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), types.Product{ID: 7, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newProductRepoWithMock(t)

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrNotFound)
}
