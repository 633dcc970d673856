package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/mcastellanos/procadena/internal/handler"
	"github.com/mcastellanos/procadena/internal/middleware"
	"github.com/mcastellanos/procadena/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine *gin.Engine
}

func New(
	auth *middleware.AuthMiddleware,
	healthH *handler.HealthHandler,
	authH interface {
		Handler
		RegisterProtectedRoutes(*gin.RouterGroup)
	},
	anchorH Handler,
	supplierH Handler,
	projectH Handler,
	participationH Handler,
	workshopH Handler,
	notificationH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()
	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Throttle(config.RateLimit, config.RateBurst))

	healthH.RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	authH.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(auth.Authenticate())
	{
		authH.RegisterProtectedRoutes(protected)
		notificationH.RegisterRoutes(protected)
		workshopH.RegisterRoutes(protected)

		// Program management requires staff roles; suppliers keep
		// read access through their own notification inbox.
		staff := protected.Group("")
		staff.Use(auth.RequireRole(
			string(model.RoleAdmin),
			string(model.RoleAnchor),
			string(model.RoleConsultant),
		))
		{
			anchorH.RegisterRoutes(staff)
			supplierH.RegisterRoutes(staff)
			projectH.RegisterRoutes(staff)
			participationH.RegisterRoutes(staff)
		}
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
