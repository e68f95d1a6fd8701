package router

import (
	"github.com/gin-gonic/gin"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/controller"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	albumCtl *controller.AlbumController,
	syncCtl *controller.SyncController) {

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// album 专辑查询（读穿缓存，公开）
		albums := api.Group("/albums")
		{
			// GET /api/albums
			albums.GET("", albumCtl.GetAlbums)
			albums.GET("/:id", albumCtl.GetAlbum)
		}

		// product 商品查询
		products := api.Group("/products")
		{
			products.GET("/:id", albumCtl.GetProduct)
		}

		// sync 同步触发与状态（触发接口需要调度器密钥 + 冷却限流）
		sync := api.Group("/sync")
		{
			sync.GET("/status", syncCtl.Status)

			sync.POST("/catalog",
				middleware.SchedulerAuth(),
				middleware.SyncRateLimit(middleware.SyncTypeCatalog, 0),
				syncCtl.SyncCatalog,
			)
			sync.POST("/sales",
				middleware.SchedulerAuth(),
				middleware.SyncRateLimit(middleware.SyncTypeSales, 0),
				syncCtl.SyncSales,
			)
			sync.POST("/albums/rebuild",
				middleware.SchedulerAuth(),
				middleware.SyncRateLimit(middleware.SyncTypeAlbums, 0),
				syncCtl.RebuildAlbums,
			)
		}
	}
}
