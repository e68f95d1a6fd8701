package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/database"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/square"
)

const (
	// SalesModeIncremental 增量模式：固定回看 24 小时
	SalesModeIncremental = "incremental"
	// SalesModeBackfill 回填模式：显式时间范围，或从水位回退 2 小时推导
	SalesModeBackfill = "backfill"

	// DefaultSalesPageLimit 单次执行默认最多走的页数
	DefaultSalesPageLimit = 20

	// incrementalLookback 增量模式回看窗口
	// 比调度间隔宽得多，配合幂等写入抹平偶发的调度缺口
	incrementalLookback = 24 * time.Hour

	// watermarkOverlap 回填模式从水位回退的重叠量，吸收上游时钟偏差
	watermarkOverlap = 2 * time.Hour
)

// ==================== 依赖接口 ====================

// OrdersAPI 销售同步依赖的上游接口
type OrdersAPI interface {
	SearchOrders(ctx context.Context, locationID string, startAt, endAt time.Time, cursor string, limit int) (*square.SearchOrdersResp, error)
}

// ==================== SalesService ====================

// SalesService 销售同步服务
// 拉取时间范围内的订单，订单头 upsert、订单行只插入不更新，
// 销量只对真正新插入的行累加——窗口重叠重放不会重复计数。
type SalesService struct {
	api         OrdersAPI
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	stateRepo   repository.SyncStateRepository
	locationID  string
}

// NewSalesService 创建销售同步服务
func NewSalesService(
	api OrdersAPI,
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	stateRepo repository.SyncStateRepository,
	locationID string,
) *SalesService {
	return &SalesService{
		api:         api,
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		stateRepo:   stateRepo,
		locationID:  locationID,
	}
}

// ==================== 销售同步 ====================

// SyncSales 同步销售订单
func (s *SalesService) SyncSales(ctx context.Context, req *dto.SyncSalesRequest) (*dto.SyncSalesResponse, error) {
	start := time.Now()
	resp := &dto.SyncSalesResponse{}
	defer func() { resp.DurationMs = time.Since(start).Milliseconds() }()

	startAt, endAt, err := s.resolveWindow(ctx, req)
	if err != nil {
		return resp, err
	}
	log.Printf("[SalesSync] 同步窗口 %s ~ %s", startAt.Format(time.RFC3339), endAt.Format(time.RFC3339))

	pageLimit := req.MaxPages
	if pageLimit <= 0 {
		pageLimit = DefaultSalesPageLimit
	}

	cursor := ""
	var watermark time.Time

	for resp.PagesWalked < pageLimit {
		page, err := s.api.SearchOrders(ctx, s.locationID, startAt, endAt, cursor, req.Limit)
		if err != nil {
			return resp, fmt.Errorf("拉取订单失败: %w", err)
		}
		resp.PagesWalked++

		deltas, maxCreated, err := s.processOrders(ctx, page.Orders, resp)
		if err != nil {
			return resp, err
		}

		if len(deltas) > 0 {
			err = database.RetryTransient(ctx, s.db, func() error {
				return s.productRepo.ApplySalesDeltas(ctx, deltas)
			})
			if err != nil {
				return resp, fmt.Errorf("累加销量失败: %w", err)
			}
			for _, d := range deltas {
				resp.SoldCountApplied += d.Quantity
			}
		}

		// 水位只推进到实际观测到的最大订单创建时间
		if maxCreated.After(watermark) {
			watermark = maxCreated
			if err := s.stateRepo.SaveWatermark(ctx, model.SyncTypeSales, watermark); err != nil {
				log.Printf("[SalesSync] 保存销售水位失败: %v", err)
			}
			resp.LastSyncedAt = &watermark
		}

		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	return resp, nil
}

// processOrders 处理一页订单：订单头 upsert + 订单行幂等插入
// 只有真正新插入的行才产生销量增量；单行写入失败跳过该行继续。
func (s *SalesService) processOrders(ctx context.Context, orders []square.Order, resp *dto.SyncSalesResponse) ([]repository.SalesDelta, time.Time, error) {
	now := time.Now()
	var deltas []repository.SalesDelta
	var maxCreated time.Time

	for i := range orders {
		o := &orders[i]
		resp.OrdersSeen++

		createdAt := o.CreatedTime()
		if createdAt != nil && createdAt.After(maxCreated) {
			maxCreated = *createdAt
		}

		raw, _ := json.Marshal(o)
		order := &model.Order{
			SquareOrderID:   o.ID,
			LocationID:      o.LocationID,
			State:           o.State,
			CustomerID:      o.CustomerID,
			RawData:         raw,
			SquareCreatedAt: createdAt,
			SquareClosedAt:  o.ClosedTime(),
			SyncedAt:        &now,
		}
		if o.Source != nil {
			order.Source = o.Source.Name
		}
		if o.TotalMoney != nil {
			order.TotalCents = o.TotalMoney.Amount
			if o.TotalMoney.Currency != "" {
				order.Currency = o.TotalMoney.Currency
			}
		}

		err := database.RetryTransient(ctx, s.db, func() error {
			return s.orderRepo.Upsert(ctx, order)
		})
		if err != nil {
			log.Printf("[SalesSync] 订单 %s 写入失败，跳过: %v", o.ID, err)
			resp.Skipped = append(resp.Skipped, o.ID)
			continue
		}

		for _, li := range o.LineItems {
			item := &model.OrderLineItem{
				SquareOrderID:     o.ID,
				UID:               li.UID,
				SquareVariationID: li.CatalogObjectID,
				Name:              li.Name,
				Quantity:          li.QuantityInt(),
				OrderCreatedAt:    createdAt,
				OrderClosedAt:     o.ClosedTime(),
			}
			if li.BasePriceMoney != nil {
				item.UnitPriceCents = li.BasePriceMoney.Amount
				if li.BasePriceMoney.Currency != "" {
					item.Currency = li.BasePriceMoney.Currency
				}
			}
			if li.TotalMoney != nil {
				item.TotalCents = li.TotalMoney.Amount
			}

			inserted, err := s.orderRepo.InsertLineItem(ctx, item)
			if err != nil {
				log.Printf("[SalesSync] 订单行 %s/%s 写入失败，跳过: %v", o.ID, li.UID, err)
				resp.Skipped = append(resp.Skipped, o.ID+"/"+li.UID)
				continue
			}
			if !inserted {
				continue
			}
			resp.LineItemsInserted++

			// 没有目录引用的行（自定义金额等）无法归因到商品，不计销量
			if li.CatalogObjectID == "" || item.Quantity <= 0 || createdAt == nil {
				continue
			}
			deltas = append(deltas, repository.SalesDelta{
				SquareVariationID: li.CatalogObjectID,
				Quantity:          item.Quantity,
				SoldAt:            *createdAt,
			})
		}
	}

	return deltas, maxCreated, nil
}

// resolveWindow 推导同步时间范围
// mode 为空时按请求体内容推断：带显式时间范围即回填，否则增量。
func (s *SalesService) resolveWindow(ctx context.Context, req *dto.SyncSalesRequest) (time.Time, time.Time, error) {
	now := time.Now()

	mode := req.Mode
	if mode == "" {
		if req.StartAt != "" || req.EndAt != "" {
			mode = SalesModeBackfill
		} else {
			mode = SalesModeIncremental
		}
	}

	if mode == SalesModeIncremental {
		if req.StartAt != "" || req.EndAt != "" {
			return time.Time{}, time.Time{}, fmt.Errorf("增量模式不接受显式时间范围")
		}
		return now.Add(-incrementalLookback), now, nil
	}
	if mode != SalesModeBackfill {
		return time.Time{}, time.Time{}, fmt.Errorf("未知同步模式: %s", mode)
	}

	endAt := now
	if req.EndAt != "" {
		t, err := parseTimeParam(req.EndAt)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end_at 格式错误: %w", err)
		}
		endAt = t
	}

	if req.StartAt != "" {
		t, err := parseTimeParam(req.StartAt)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start_at 格式错误: %w", err)
		}
		return t, endAt, nil
	}

	// 无显式起点：从上次成功水位回退重叠量
	state, err := s.stateRepo.Get(ctx, model.SyncTypeSales)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("读取同步状态失败: %w", err)
	}
	if state != nil && state.LastSyncedAt != nil {
		return state.LastSyncedAt.Add(-watermarkOverlap), endAt, nil
	}
	// 从未同步过：回看 90 天
	return now.AddDate(0, 0, -90), endAt, nil
}

func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
