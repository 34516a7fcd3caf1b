package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hireloop/jobboard-api/internal/handler"
	authhandler "github.com/hireloop/jobboard-api/internal/handler/auth"
	wshandler "github.com/hireloop/jobboard-api/internal/handler/ws"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
)

// Handler is anything that can mount its routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine        *gin.Engine
	auth          *middleware.AuthMiddleware
	authH         *authhandler.Handler
	profileH      Handler
	jobH          Handler
	applicationH  Handler
	chatH         Handler
	notificationH Handler
	wsH           *wshandler.Handler
	h             *handler.Handler
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
	Timeout        time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authhandler.Handler,
	profileH Handler,
	jobH Handler,
	applicationH Handler,
	chatH Handler,
	notificationH Handler,
	wsH *wshandler.Handler,
	h *handler.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	registerValidators()

	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		authH:         authH,
		profileH:      profileH,
		jobH:          jobH,
		applicationH:  applicationH,
		chatH:         chatH,
		notificationH: notificationH,
		wsH:           wsH,
		h:             h,
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
	)

	engine.Use(middleware.CORS(config.CORS))

	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.setupHealthCheck(api)

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.authH.RegisterProtectedRoutes(protected)
	r.profileH.RegisterRoutes(protected)
	r.jobH.RegisterRoutes(protected)
	r.applicationH.RegisterRoutes(protected)
	r.chatH.RegisterRoutes(protected)
	r.notificationH.RegisterRoutes(protected)
	r.wsH.RegisterRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("jobtype", func(fl validator.FieldLevel) bool {
		return model.JobType(fl.Field().String()).Valid()
	})
}
