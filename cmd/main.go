package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/cache"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/controller"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/middleware"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/model"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/repository"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/router"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/service"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/task"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/database"
	"github.com/grey-chair-dev/spiral-groove-sub002/pkg/square"
)

func main() {
	// 1. 加载环境变量（.env 缺失时直接读系统环境）
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 2. 初始化数据库
	db := initDatabase()

	// 3. 初始化依赖
	deps := initDependencies(db)

	// 4. 启动定时任务
	deps.Tasks.Start()
	defer deps.Tasks.Stop()

	// 5. 初始化路由并启动服务
	r := gin.Default()
	router.InitRoutes(r, deps.AlbumCtl, deps.SyncCtl)
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB       *gorm.DB
	SyncSvc  *service.SyncService
	Tasks    *task.TaskManager
	AlbumCtl *controller.AlbumController
	SyncCtl  *controller.SyncController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "spiral_groove"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	return database.InitDB(dsn,
		// Catalog
		&model.Product{}, &model.Category{},
		// Albums
		&model.Album{},
		// Sales
		&model.Order{}, &model.OrderLineItem{},
		// Sync
		&model.SyncState{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	stateRepo := repository.NewSyncStateRepository(db)

	// -------- Square 客户端 --------
	squareClient := square.NewClient(square.Config{
		BaseURL:     getEnv("SQUARE_BASE_URL", square.DefaultBaseURL),
		AccessToken: getEnv("SQUARE_ACCESS_TOKEN", ""),
	})
	locationID := getEnv("SQUARE_LOCATION_ID", "")

	// -------- 读缓存 --------
	readCache := cache.NewReadCache(
		getEnvDuration("CACHE_FRESH_TTL", 30*time.Second),
		getEnvDuration("CACHE_STALE_TTL", 10*time.Minute),
	)

	// -------- 业务服务 --------
	catalogSvc := service.NewCatalogService(squareClient, db, productRepo, categoryRepo, stateRepo, locationID)
	salesSvc := service.NewSalesService(squareClient, db, orderRepo, productRepo, stateRepo, locationID)
	albumSvc := service.NewAlbumService(albumRepo, readCache)
	productSvc := service.NewProductService(productRepo, readCache)
	syncSvc := service.NewSyncService(catalogSvc, salesSvc, albumSvc,
		stateRepo, productRepo, albumRepo, orderRepo, categoryRepo)

	// -------- 定时任务 --------
	tasks := task.NewTaskManager(syncSvc, &task.TaskManagerConfig{
		CatalogEnabled: getEnv("CATALOG_SYNC_ENABLED", "true") == "true",
		SalesEnabled:   getEnv("SALES_SYNC_ENABLED", "true") == "true",
	})

	// -------- 鉴权 --------
	middleware.SetSchedulerAuthConfig(&middleware.SchedulerAuthConfig{
		SchedulerToken: getEnv("SCHEDULER_TOKEN", ""),
		SharedSecret:   getEnv("SYNC_SHARED_SECRET", ""),
	})

	// -------- Controller 层 --------
	albumCtl := controller.NewAlbumController(albumSvc, productSvc)
	syncCtl := controller.NewSyncController(tasks, syncSvc)

	return &Dependencies{
		DB:       db,
		SyncSvc:  syncSvc,
		Tasks:    tasks,
		AlbumCtl: albumCtl,
		SyncCtl:  syncCtl,
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
