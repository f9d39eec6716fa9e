package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecostore/apiserver/internal/store"
	"github.com/ecostore/apiserver/types"
)

const (
	defaultProductLimit = 20
	maxProductLimit     = 100
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Product, int, error)
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Update(ctx context.Context, product types.Product) (types.Product, error)
	Delete(ctx context.Context, id int) error
}

// ProductInput is the body of a create or update request.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       int64    `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Category    string   `json:"category" validate:"max=64"`
	Tags        []string `json:"tags" validate:"max=20,dive,required,max=32"`
}

// ProductService encapsulates catalog use-cases.
type ProductService struct {
	repo ProductRepository
}

func NewProductService(repo ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) List(ctx context.Context, offset, limit int) ([]types.Product, int, error) {
	if limit <= 0 {
		limit = defaultProductLimit
	}
	if limit > maxProductLimit {
		limit = maxProductLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Product{}, productErr(err, "get product")
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (types.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return types.Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, id int, in ProductInput) (types.Product, error) {
	product, err := productFromInput(in)
	if err != nil {
		return types.Product{}, err
	}
	product.ID = id
	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return types.Product{}, productErr(err, "update product")
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return productErr(err, "delete product")
	}
	return nil
}

func productFromInput(in ProductInput) (types.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	in.Tags = tags

	if err := validate.Struct(in); err != nil {
		return types.Product{}, invalid(describeValidation(err))
	}
	return types.Product{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Tags:        in.Tags,
	}, nil
}

func productErr(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
