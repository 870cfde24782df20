package catalog

import (
	"context"

	"github.com/jhoicas/inventario-stock/internal/application/dto"
	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/internal/domain/repository"
)

// DefaultLowStockThreshold umbral de stock bajo si no se indica otro.
const DefaultLowStockThreshold = 10

// Service consultas de catálogo usadas por la API. No modifica stock.
type Service struct {
	productRepo repository.ProductRepository
	catRepo     repository.CategoryRepository
}

// NewService construye el servicio.
func NewService(productRepo repository.ProductRepository, catRepo repository.CategoryRepository) *Service {
	return &Service{productRepo: productRepo, catRepo: catRepo}
}

// ListProducts lista paginada de productos.
func (s *Service) ListProducts(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := s.productRepo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// GetProduct obtiene un producto; NotFoundError si no existe.
func (s *Service) GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Entity: "Producto", ID: id}
	}
	return ToProductResponse(p), nil
}

// LowStock productos con stock por debajo del umbral.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]dto.ProductResponse, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	list, err := s.productRepo.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, *ToProductResponse(p))
	}
	return out, nil
}

// ListCategories todas las categorías.
func (s *Service) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := s.catRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out, nil
}

// DeleteCategory elimina una categoría sin productos; ErrCategoryInUse si tiene alguno.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	c, err := s.catRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return &domain.NotFoundError{Entity: "Categoría", ID: id}
	}
	n, err := s.catRepo.CountProducts(ctx, c.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrCategoryInUse
	}
	return s.catRepo.Delete(ctx, id)
}

// ToProductResponse mapea la entidad a su DTO.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		Stock:      p.Stock,
		TotalValue: p.TotalValue(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}
