// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sarawan-tech/products-backend/internal/broker"
	"github.com/sarawan-tech/products-backend/internal/cache"
	"github.com/sarawan-tech/products-backend/internal/config"
	"github.com/sarawan-tech/products-backend/internal/handlers"
	"github.com/sarawan-tech/products-backend/internal/middleware"
	"github.com/sarawan-tech/products-backend/internal/services"
	"github.com/sarawan-tech/products-backend/internal/utils"
)

// Dependencies carries the externally managed resources the router wires
// into services; the caller owns their lifecycles.
type Dependencies struct {
	DB        *gorm.DB
	Cache     cache.Store
	Publisher broker.Publisher
}

func Initialize(deps Dependencies, cfg *config.Config) (*gin.Engine, error) {
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	externalService := services.NewExternalService(cfg.External)
	mediaService := services.NewMediaService(storageService, cfg)
	statusService := services.NewStatusService(deps.DB, deps.Publisher, externalService, externalService)
	productService := services.NewProductService(deps.DB, mediaService, storageService, deps.Cache, statusService, cfg)

	productHandler := handlers.NewProductHandler(productService)
	catalogHandler := handlers.NewCatalogHandler(productService)

	utils.SetJWTSecret(cfg.App.JWTSecret)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestInfo())
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/sizes", catalogHandler.GetSizes)
			catalog.GET("/colors", catalogHandler.GetColors)
			catalog.GET("/brands", catalogHandler.GetBrands)
			catalog.GET("/categories", catalogHandler.GetCategories)
		}

		products := v1.Group("/products")
		{
			products.GET("/slug/:slug", productHandler.GetProductBySlug)

			protected := products.Group("")
			protected.Use(middleware.SellerAuth())
			{
				protected.POST("", middleware.UploadRateLimit(), productHandler.CreateProduct)
				protected.GET("", productHandler.ListProducts)
				protected.PATCH("/:id", middleware.UploadRateLimit(), productHandler.UpdateProduct)
				protected.PATCH("/:id/status", productHandler.ChangeProductStatus)
				protected.GET("/documents/:id", productHandler.GetProductDocument)
			}
		}

		internal := v1.Group("/internal/products")
		internal.Use(middleware.APIKeyAuth(cfg.App.DocsAPIKey))
		{
			internal.POST("/by-ids", productHandler.GetProductsByIDs)
			internal.POST("/prices-by-ids", productHandler.GetPricesByIDs)
			internal.GET("/:id/name", productHandler.GetProductName)
		}
	}

	return r, nil
}
