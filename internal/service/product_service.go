package service

import (
	"context"

	"github.com/sundroptea/teahouse-backend/internal/catalog"
	"github.com/sundroptea/teahouse-backend/internal/models"
)

// ProductService handles business logic for the menu catalog
type ProductService struct {
	repo catalog.Repository
}

// NewProductService creates a new product service
func NewProductService(repo catalog.Repository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}
