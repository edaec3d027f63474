package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sales-service/internal/handler"
	mid "sales-service/internal/middleware"
	"sales-service/internal/repository"
	"sales-service/internal/service"
	"sales-service/internal/validation"
	"sales-service/pkg/config"
	"sales-service/pkg/database"
	"sales-service/pkg/jwtutil"
	"sales-service/pkg/logger"
	"sales-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting sales-service", appConfig.LogConfig()...)

	if err := prometheus.InitMetrics(appConfig); err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	log.Info("Prometheus metrics initialized", zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	db, err := database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()
	log.Info("Database connection established")

	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)

	// Repositories
	users := repository.NewGormUserRepository(db)
	tokens := repository.NewGormTokenRepository(db)
	clients := repository.NewGormClientRepository(db)
	products := repository.NewGormProductRepository(db)
	sales := repository.NewGormSaleRepository(db)

	// Handlers
	authHandler := handler.NewAuthHandler(service.NewAuthService(users, tokens, jwt))
	clientHandler := handler.NewClientHandler(service.NewClientService(clients))
	productHandler := handler.NewProductHandler(service.NewProductService(products))
	saleHandler := handler.NewSaleHandler(service.NewSaleService(sales, clients, products))
	healthHandler := handler.NewHealthHandler(sqlDB)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.ErrorHandler

	// Metrics wraps the logger middleware so it sees the final status
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", healthHandler.Health)

	requireAuth := mid.AuthMiddleware(jwt, tokens)

	auth := e.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.POST("/refresh", authHandler.Refresh, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	clientAPI := e.Group("/clients", requireAuth)
	clientAPI.GET("", clientHandler.List)
	clientAPI.POST("", clientHandler.Create)
	clientAPI.PUT("/:id", clientHandler.Update)
	clientAPI.DELETE("/:id", clientHandler.Delete)
	clientAPI.GET("/:id/sales", clientHandler.Sales)
	clientAPI.GET("/:id/sales/:year/:month", clientHandler.SalesByPeriod)

	productAPI := e.Group("/products", requireAuth)
	productAPI.GET("", productHandler.GetProducts)
	productAPI.GET("/:id", productHandler.GetProduct)
	productAPI.POST("", productHandler.CreateProduct)
	productAPI.PUT("/:id", productHandler.UpdateProduct)
	productAPI.DELETE("/:id", productHandler.DeleteProduct)

	saleAPI := e.Group("/sales", requireAuth)
	saleAPI.GET("", saleHandler.List)
	saleAPI.POST("", saleHandler.Create)

	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
