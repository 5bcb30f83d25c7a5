package service

import (
	"fmt"

	"tienda-backend/internal/models"
	"tienda-backend/internal/repository"
)

type ProductService struct {
	productRepo *repository.ProductRepository
	auditRepo   *repository.AuditRepository
}

func NewProductService(productRepo *repository.ProductRepository, auditRepo *repository.AuditRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		auditRepo:   auditRepo,
	}
}

// ProductPage is one page of the product listing
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// List retrieves a page of products, optionally filtered by name search
func (s *ProductService) List(page, pageSize int, search string) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	products, total, err := s.productRepo.List((page-1)*pageSize, pageSize, search)
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetByID retrieves a single product
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	return s.productRepo.FindByID(id)
}

// Create creates a new product
func (s *ProductService) Create(product *models.Product, actorID uint) error {
	if err := s.productRepo.Create(product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	actorIDPtr := &actorID
	details := fmt.Sprintf("Created product: %s (ID: %d)", product.Name, product.ID)
	_ = s.auditRepo.Record(actorIDPtr, "product_create", details)

	return nil
}

// Update updates an existing product
func (s *ProductService) Update(product *models.Product, actorID uint) error {
	// Verify the product exists before saving over it
	if _, err := s.productRepo.FindByID(product.ID); err != nil {
		return err
	}

	if err := s.productRepo.Update(product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	actorIDPtr := &actorID
	details := fmt.Sprintf("Updated product: %s (ID: %d)", product.Name, product.ID)
	_ = s.auditRepo.Record(actorIDPtr, "product_update", details)

	return nil
}

// Delete soft deletes a product
func (s *ProductService) Delete(id uint, actorID uint) error {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		return err
	}

	if err := s.productRepo.SoftDelete(id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	actorIDPtr := &actorID
	details := fmt.Sprintf("Deleted product: %s (ID: %d)", product.Name, id)
	_ = s.auditRepo.Record(actorIDPtr, "product_delete", details)

	return nil
}
