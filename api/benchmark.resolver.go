package api

import (
	"fmt"
	"net/http"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type benchmarkResponse map[string]float64

type benchmarkRequest struct {
	Symbol      string `json:"symbol"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Granularity string `json:"granularity"`
}

func (h ApiHandler) benchmark(c *gin.Context) {
	var requestBody benchmarkRequest

	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, http.StatusBadRequest)
		return
	}
	if requestBody.Symbol == "" {
		returnErrorJson(domain.ConfigError{Field: "symbol", Reason: "symbol is required"}, c)
		return
	}

	start, err := util.ParseDate(requestBody.Start)
	if err != nil {
		returnErrorJson(domain.ConfigError{Field: "start", Reason: err.Error()}, c)
		return
	}
	end, err := util.ParseDate(requestBody.End)
	if err != nil {
		returnErrorJson(domain.ConfigError{Field: "end", Reason: err.Error()}, c)
		return
	}
	if end.Before(start) {
		returnErrorJson(domain.ConfigError{Field: "end", Reason: "end date cannot be before start date"}, c)
		return
	}

	granularity := time.Hour * 24
	if requestBody.Granularity == "weekly" {
		granularity *= 7
	} else if requestBody.Granularity == "monthly" {
		granularity *= 30
	}

	results, err := h.BenchmarkHandler.GetIntraPeriodChange(
		c.Request.Context(),
		requestBody.Symbol,
		start,
		end,
		granularity,
	)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	out := benchmarkResponse{}
	for k, v := range results {
		out[k.Format(time.DateOnly)] = v
	}

	c.JSON(200, out)
}
