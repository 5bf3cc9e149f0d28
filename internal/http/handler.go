package http

import (
	"context"
	"errors"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/lotto-treasury/internal/config"
	"github.com/hxuan190/lotto-treasury/internal/http/httputil"
	"github.com/hxuan190/lotto-treasury/internal/http/middlewares"
	"github.com/hxuan190/lotto-treasury/internal/services"
	"github.com/hxuan190/lotto-treasury/internal/services/allocator"
	"github.com/hxuan190/lotto-treasury/internal/services/converter"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if svc.conf == nil {
		return errors.New("invalid server config")
	}

	allocatorSvc := c.Instance(allocator.ALLOCATOR_SERVICE).(*allocator.Service)
	exchangeSvc := c.Instance(converter.EXCHANGE_SERVICE).(*converter.Service)
	svc.rateLimiter = middlewares.NewRateLimiter(svc.conf.RateLimit, svc.conf.RateBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewRoundHandler(allocatorSvc),
		NewExchangeHandler(exchangeSvc),
	}
	if svc.conf.AdminToken == "" {
		svc.logger.Warn().Msg("[httpService] ADMIN_TOKEN not set, admin routes are disabled")
	}
	return nil
}

func (svc *HTTPService) Start() error {
	if svc.conf.Env == config.ProdEnv {
		gin.SetMode(gin.ReleaseMode)
	}

	svc.server = &gohttp.Server{
		Addr:              svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler:           NewRouter(svc.conf.AdminToken, svc.rateLimiter, svc.handlers...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	svc.logger.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("[httpService] http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		svc.logger.Error().Err(err).Msg("[httpService] failed to stop http server")
		return err
	}
	svc.logger.Info().Msg("[httpService] http server stopped gracefully")
	return nil
}

// NewRouter builds the API engine. A nil rate limiter disables limiting.
func NewRouter(adminToken string, rateLimiter *middlewares.RateLimiter, handlers ...httputil.IHttpHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AddAllowHeaders("Authorization", middlewares.AdminTokenHeader)
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	if rateLimiter != nil {
		r.Use(rateLimiter.RateLimitMiddleware())
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	admin := api.Group(API_VERSION+"/admin", middlewares.AdminAuth(adminToken))

	for _, h := range handlers {
		h.SetRoutes(pub.Group(h.Root()), priv.Group(h.Root()), admin.Group(h.Root()))
	}
	return r
}
