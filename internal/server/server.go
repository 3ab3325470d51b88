package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/soildata/internal/config"
	"github.com/smallbiznis/soildata/internal/observability"
	obsmiddleware "github.com/smallbiznis/soildata/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/soildata/internal/observability/metrics"
	obstracing "github.com/smallbiznis/soildata/internal/observability/tracing"
	"github.com/smallbiznis/soildata/internal/plot"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	"github.com/smallbiznis/soildata/internal/ratelimit"
	"github.com/smallbiznis/soildata/internal/soildata"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	plot.Module,
	soildata.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// routeOperations names the operation each API route serves in traces and logs.
var routeOperations = map[string]string{
	obstracing.RouteKey(http.MethodGet, "/api/soildatas"):        "soildata.list",
	obstracing.RouteKey(http.MethodPost, "/api/soildatas"):       "soildata.create",
	obstracing.RouteKey(http.MethodPost, "/api/soildatas/bulk"):  "soildata.bulk_create",
	obstracing.RouteKey(http.MethodGet, "/api/soildatas/:id"):    "soildata.get",
	obstracing.RouteKey(http.MethodPut, "/api/soildatas/:id"):    "soildata.update",
	obstracing.RouteKey(http.MethodDelete, "/api/soildatas/:id"): "soildata.delete",
	obstracing.RouteKey(http.MethodGet, "/api/plots"):            "plot.list",
	obstracing.RouteKey(http.MethodPost, "/api/plots"):           "plot.create",
	obstracing.RouteKey(http.MethodGet, "/api/plots/:id"):        "plot.get",
	obstracing.RouteKey(http.MethodDelete, "/api/plots/:id"):     "plot.delete",
}

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(SecurityHeaders())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obsCfg.TracingMiddleware(routeOperations)))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newCORS(cfg).Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	soilDataSvc soildatadomain.Service
	plotSvc     plotdomain.Service
	limiter     writeLimiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	SoilDataSvc soildatadomain.Service
	PlotSvc     plotdomain.Service
	Limiter     *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		soilDataSvc: p.SoilDataSvc,
		plotSvc:     p.PlotSvc,
	}
	if p.Limiter != nil {
		svc.limiter = p.Limiter
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", RateLimitWrites(s.limiter))

	// -------- Soil data --------
	api.GET("/soildatas", s.ListSoilData)
	api.POST("/soildatas", s.CreateSoilData)
	api.POST("/soildatas/bulk", s.BulkCreateSoilData)
	api.GET("/soildatas/:id", s.GetSoilData)
	api.PUT("/soildatas/:id", s.UpdateSoilData)
	api.DELETE("/soildatas/:id", s.DeleteSoilData)

	// -------- Plots --------
	api.GET("/plots", s.ListPlots)
	api.POST("/plots", s.CreatePlot)
	api.GET("/plots/:id", s.GetPlot)
	api.DELETE("/plots/:id", s.DeletePlot)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
