package square

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL 生产环境地址（沙箱环境通过配置覆盖）
	DefaultBaseURL = "https://connect.squareup.com"

	// apiVersion Square-Version 请求头
	apiVersion = "2024-01-18"

	// PageSize 目录/订单分页大小（服务端上限 100）
	PageSize = 100

	// InventoryBatchLimit 批量库存查询单次 id 上限
	InventoryBatchLimit = 1000
)

// ==================== 错误类型 ====================

// APIError Square API 错误
// 区分瞬时错误（限流/5xx，可下个周期重试）与永久错误（鉴权/参数，需人工介入）
type APIError struct {
	Status int
	Code   string
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("square api 错误 [%d] %s: %s", e.Status, e.Code, e.Detail)
}

// IsTransient 是否为瞬时错误（可在下次调度时重试）
func (e *APIError) IsTransient() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsTransientErr 判断任意错误是否为上游瞬时错误（含网络超时）
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.IsTransient()
	}
	var netErr net.Error
	if ok := asNetError(err, &netErr); ok && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset")
}

func asNetError(err error, target *net.Error) bool {
	for err != nil {
		if ne, ok := err.(net.Error); ok {
			*target = ne
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ==================== Client ====================

// Client Square API 客户端
// 封装鉴权头、版本头、分页游标与批量上限，业务层不直接碰 HTTP。
type Client struct {
	http *resty.Client
}

// Config 客户端配置
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// NewClient 创建 Square 客户端
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Square-Version", apiVersion).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.AccessToken)

	return &Client{http: http}
}

// ==================== Catalog ====================

// SearchCatalogObjects 分页拉取目录对象（含关联对象，如图片）
// cursor 为空表示第一页；返回的 cursor 为空表示已到末页。
func (c *Client) SearchCatalogObjects(ctx context.Context, objectTypes []string, cursor string) (*SearchCatalogResp, error) {
	body := map[string]interface{}{
		"object_types":            objectTypes,
		"include_related_objects": true,
		"limit":                   PageSize,
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var res SearchCatalogResp
	return &res, c.post(ctx, "/v2/catalog/search", body, &res)
}

// BatchRetrieveCatalogObjects 按 id 批量拉取目录对象（定向同步模式）
func (c *Client) BatchRetrieveCatalogObjects(ctx context.Context, objectIDs []string) (*BatchRetrieveCatalogResp, error) {
	body := map[string]interface{}{
		"object_ids":              objectIDs,
		"include_related_objects": true,
	}

	var res BatchRetrieveCatalogResp
	return &res, c.post(ctx, "/v2/catalog/batch-retrieve", body, &res)
}

// ==================== Inventory ====================

// BatchRetrieveInventoryCounts 批量拉取库存计数
// 调用方负责把 objectIDs 切到 InventoryBatchLimit 以内；
// 数量为 0 的对象不会出现在响应里。
func (c *Client) BatchRetrieveInventoryCounts(ctx context.Context, objectIDs []string, locationID, cursor string) (*BatchInventoryCountsResp, error) {
	body := map[string]interface{}{
		"catalog_object_ids": objectIDs,
		"states":             []string{"IN_STOCK"},
	}
	if locationID != "" {
		body["location_ids"] = []string{locationID}
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var res BatchInventoryCountsResp
	return &res, c.post(ctx, "/v2/inventory/counts/batch-retrieve", body, &res)
}

// ==================== Orders ====================

// SearchOrders 按创建时间范围分页拉取订单（升序）
// limit 超出 (0, PageSize] 时按 PageSize 处理。
func (c *Client) SearchOrders(ctx context.Context, locationID string, startAt, endAt time.Time, cursor string, limit int) (*SearchOrdersResp, error) {
	if limit <= 0 || limit > PageSize {
		limit = PageSize
	}
	body := map[string]interface{}{
		"location_ids": []string{locationID},
		"limit":        limit,
		"query": map[string]interface{}{
			"filter": map[string]interface{}{
				"date_time_filter": map[string]interface{}{
					"created_at": map[string]interface{}{
						"start_at": startAt.UTC().Format(time.RFC3339),
						"end_at":   endAt.UTC().Format(time.RFC3339),
					},
				},
			},
			"sort": map[string]interface{}{
				"sort_field": "CREATED_AT",
				"sort_order": "ASC",
			},
		},
	}
	if cursor != "" {
		body["cursor"] = cursor
	}

	var res SearchOrdersResp
	return &res, c.post(ctx, "/v2/orders/search", body, &res)
}

// ==================== 内部请求 ====================

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	var errResp ErrorResp

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&errResp).
		Post(path)

	if err != nil {
		return fmt.Errorf("请求 Square API 失败: %w", err)
	}

	if resp.StatusCode() >= 400 {
		apiErr := &APIError{Status: resp.StatusCode()}
		if len(errResp.Errors) > 0 {
			apiErr.Code = errResp.Errors[0].Code
			apiErr.Detail = errResp.Errors[0].Detail
		} else {
			apiErr.Detail = resp.String()
		}
		return apiErr
	}

	return nil
}
