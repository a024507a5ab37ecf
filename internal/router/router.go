package router

import (
	"time"

	"farmapos/internal/config"
	"farmapos/internal/handler"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/repository"
	"farmapos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	arqueoRepo := repository.NewArqueoRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo)
	clienteSvc := service.NewClienteService(clienteRepo)
	cajaSvc := service.NewCajaService(cajaRepo)
	arqueoSvc := service.NewArqueoService(arqueoRepo, usuarioRepo, rdb)
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, cajaSvc)
	interaccionesSvc := service.NewInteraccionesService()
	auditoriaSvc := service.NewAuditoriaService(auditRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductoHandler(productoSvc)
	clientesH := handler.NewClienteHandler(clienteSvc)
	ventasH := handler.NewVentaHandler(ventaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	arqueoH := handler.NewArqueoHandler(arqueoSvc)
	interaccionesH := handler.NewInteraccionesHandler(interaccionesSvc)
	auditoriaH := handler.NewAuditoriaHandler(auditoriaSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/precio/:barcode", consultaH.GetPrecioPorBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole(model.RolCajero, model.RolSupervisor, model.RolAdministrador, model.RolGerenteGeneral)
	supervisores := middleware.RequireRole(model.RolSupervisor, model.RolAdministrador, model.RolGerenteGeneral)
	admins := middleware.RequireRole(model.RolAdministrador, model.RolGerenteGeneral)

	v1 := r.Group("/v1", jwtMW)
	{
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", todos, cajaH.Abrir)
			caja.POST("/movimiento", todos, cajaH.RegistrarMovimiento)
			caja.GET("/:id/reporte", todos, cajaH.ObtenerReporte)
			caja.GET("/activa", todos, cajaH.GetActiva)
		}

		// The PIN check inside the service decides who can authorize the
		// arqueo. The route-level role gate only keeps anonymous cashier
		// tokens away from approval endpoints.
		arqueo := v1.Group("/arqueo")
		{
			arqueo.GET("/:id/discrepancia", todos, arqueoH.CalcularDiscrepancia)
			arqueo.POST("", todos, arqueoH.RealizarArqueo)
			arqueo.POST("/aprobar", supervisores, arqueoH.AprobarArqueo)
			arqueo.GET("/historial", supervisores, arqueoH.Historial)
		}

		v1.POST("/ventas", todos, ventasH.Registrar)
		v1.GET("/ventas/sesion/:sesion_id", todos, ventasH.ListarPorSesion)

		v1.GET("/productos", todos, productosH.Listar)
		v1.GET("/productos/:id", todos, productosH.ObtenerPorID)
		prods := v1.Group("/productos", admins)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
			prods.PATCH("/:id/reactivar", productosH.Reactivar)
		}
		v1.POST("/productos/lotes", supervisores, productosH.IngresarLote)

		v1.GET("/clientes", todos, clientesH.Listar)
		v1.GET("/clientes/:id", todos, clientesH.ObtenerPorID)
		v1.GET("/clientes/buscar", todos, clientesH.BuscarPorDocumento)
		clientes := v1.Group("/clientes", supervisores)
		{
			clientes.POST("", clientesH.Crear)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Desactivar)
		}

		v1.GET("/interacciones", todos, interaccionesH.Verificar)

		v1.GET("/auditoria", admins, auditoriaH.Listar)

		usuarios := v1.Group("/usuarios", admins)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
