package api

import (
	"errors"
	"fmt"
	"net/http"
	"portfoliobacktest/internal"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/logger"
	l3_service "portfoliobacktest/internal/service/l3"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ApiHandler struct {
	BacktestService  l3_service.BacktestService
	BenchmarkHandler internal.BenchmarkHandler
	Defaults         BacktestDefaults
	Logger           *zap.SugaredLogger
}

// BacktestDefaults fill in request fields that were left empty
type BacktestDefaults struct {
	InitialInvestment float64
	Rebalance         string
	Benchmarks        []string
	RiskFreeRate      *float64
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(m.loggerMiddleware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to portfolio backtest"})
	})
	router.POST("/backtest", m.backtest)
	router.POST("/benchmark", m.benchmark)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

// errorStatus maps domain errors to client errors, everything else is
// on us
func errorStatus(err error) int {
	switch {
	case errors.As(err, &domain.ConfigError{}),
		errors.As(err, &domain.DataGapError{}),
		errors.As(err, &domain.InvalidPriceError{}):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func returnErrorJson(err error, c *gin.Context) {
	returnErrorJsonCode(err, c, errorStatus(err))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	lg := logger.FromContext(c.Request.Context())
	if code >= 500 {
		lg.Errorw("request failed", "error", err.Error(), "status", code)
	} else {
		lg.Infow("request rejected", "error", err.Error(), "status", code)
	}
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

// loggerMiddleware attaches a request scoped logger to the request
// context
func (m ApiHandler) loggerMiddleware(c *gin.Context) {
	lg := m.Logger
	if lg == nil {
		lg = logger.FromContext(c.Request.Context())
	}
	requestID := uuid.New().String()
	lg = lg.With("requestID", requestID, "route", c.Request.URL.Path)

	c.Set("requestID", requestID)
	c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), lg))

	start := time.Now()
	c.Next()
	lg.Infow("handled request",
		"method", c.Request.Method,
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
	)
}
