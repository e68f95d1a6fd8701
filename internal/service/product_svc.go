package service

import (
	"context"
	"fmt"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/cache"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
)

// ProductService 商品查询服务（读穿缓存）
type ProductService struct {
	productRepo repository.ProductRepository
	readCache   *cache.ReadCache
}

// NewProductService 创建商品查询服务
func NewProductService(productRepo repository.ProductRepository, readCache *cache.ReadCache) *ProductService {
	return &ProductService{productRepo: productRepo, readCache: readCache}
}

// GetProduct 按 id 读取商品
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*dto.ProductResp, cache.ServedFrom, error) {
	key := fmt.Sprintf("product:%d", id)
	v, from, err := s.readCache.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		p, err := s.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return toProductResp(p), nil
	})
	if err != nil {
		return nil, from, err
	}
	return v.(*dto.ProductResp), from, nil
}

func toProductResp(p *model.Product) *dto.ProductResp {
	resp := &dto.ProductResp{
		ID:                p.ID,
		SquareItemID:      p.SquareItemID,
		SquareVariationID: p.SquareVariationID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.PriceDollars(),
		Currency:          p.Currency,
		Categories:        []string{},
		StockCount:        p.StockCount,
		ImageURL:          p.ImageURL,
		SoldCount:         p.SoldCount,
		LastSoldAt:        p.LastSoldAt,
		SyncedAt:          p.SyncedAt,
	}
	if p.Category != nil {
		resp.Category = *p.Category
	}
	if names := p.CategoryNames(); names != nil {
		resp.Categories = names
	}
	return resp
}
