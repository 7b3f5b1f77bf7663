package router

import (
	"time"

	"rawvariant/internal/cache"
	"rawvariant/internal/config"
	"rawvariant/internal/handler"
	"rawvariant/internal/middleware"
	"rawvariant/internal/observability"
	"rawvariant/internal/pairing"
	"rawvariant/internal/repository"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine along with
// the pairing service, which main also hands to the audit worker.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; lookups by code then always hit the database.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, *pairing.Service, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pairingCfg, err := cfg.Pairing()
	if err != nil {
		return nil, nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var codes *cache.CodeCache
	if rdb != nil {
		codes = cache.NewCodeCache(rdb, cfg.CodeCacheTTL())
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// codes may be nil, CodeCache methods are nil-safe
	pairingSvc := pairing.NewService(catalogRepo, pairingCfg, codes)

	// ── Handlers ─────────────────────────────────────────────────────────────
	templatesH := handler.NewTemplatesHandler(pairingSvc)
	productsH := handler.NewProductsHandler(pairingSvc, codes)
	pairingsH := handler.NewPairingsHandler(pairingSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	readers := middleware.RequireRole(middleware.RoleViewer, middleware.RoleEditor, middleware.RoleAdmin)
	editors := middleware.RequireRole(middleware.RoleEditor, middleware.RoleAdmin)
	admins := middleware.RequireRole(middleware.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		tpl := v1.Group("/templates")
		{
			tpl.POST("", editors, templatesH.Create)
			tpl.GET("/:id", readers, templatesH.Get)
			tpl.PATCH("/:id", editors, templatesH.Update)
			tpl.GET("/:id/main-products", readers, templatesH.MainProducts)
			tpl.GET("/:id/raw-products", readers, templatesH.RawProducts)
			tpl.POST("/:id/recompute-codes", admins, templatesH.RecomputeCodes)
		}

		prods := v1.Group("/products")
		{
			prods.POST("", editors, productsH.Create)
			prods.GET("", readers, productsH.List)
			prods.DELETE("", editors, productsH.Delete)
			prods.GET("/code/:code", readers, productsH.GetByCode)
			prods.GET("/:id", readers, productsH.Get)
			prods.PATCH("/:id", editors, productsH.Update)
		}

		v1.GET("/pairings/audit", admins, pairingsH.Audit)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, pairingSvc, nil
}
