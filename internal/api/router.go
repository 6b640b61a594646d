package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/api/objects"
	"github.com/steemit/feedsync/internal/auth"
	"github.com/steemit/feedsync/internal/cache"
	"github.com/steemit/feedsync/internal/db"
	"github.com/steemit/feedsync/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler  *JSONRPCHandler
	db       *db.DB
	cache    *cache.Cache
	verifier *auth.Verifier
	logger   *zap.Logger

	// Metrics exposes /metrics from the default Prometheus registry
	Metrics bool
}

// NewRouter creates a new API router. redisCache may be nil.
func NewRouter(database *db.DB, redisCache *cache.Cache, verifier *auth.Verifier) *Router {
	router := &Router{
		handler:  NewJSONRPCHandler(),
		db:       database,
		cache:    redisCache,
		verifier: verifier,
		logger:   logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	if r.Metrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	engine.POST("/rpc", Authenticate(r.verifier), r.handler.Handle)
}

func (r *Router) registerMethods() {
	feedAPI := NewFeedAPI(db.NewRepository(r.db.DB), r.cache)

	r.handler.RegisterMethod(objects.MethodListPosts, feedAPI.ListPosts)
	r.handler.RegisterMethod(objects.MethodGetPost, feedAPI.GetPost)
	r.handler.RegisterMethod(objects.MethodCreatePost, feedAPI.CreatePost)
	r.handler.RegisterMethod(objects.MethodListComments, feedAPI.ListComments)
	r.handler.RegisterMethod(objects.MethodCreateComment, feedAPI.CreateComment)
	r.handler.RegisterMethod(objects.MethodSetLike, feedAPI.SetLike)
}

// healthHandler reports database and cache reachability
func (r *Router) healthHandler(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{"database": "OK", "cache": "OK"}

	if err := r.db.Health(c.Request.Context()); err != nil {
		r.logger.Warn("Database health check failed", zap.Error(err))
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := r.cache.Health(c.Request.Context()); err != nil {
		if errors.Is(err, cache.ErrCacheDisabled) {
			checks["cache"] = "disabled"
		} else {
			r.logger.Warn("Cache health check failed", zap.Error(err))
			checks["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	state := "OK"
	if status != http.StatusOK {
		state = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  state,
		"service": "feedsync-store",
		"checks":  checks,
	})
}
