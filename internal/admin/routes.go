package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

type bindRequest struct {
	Handler string `json:"handler" binding:"required"`
}

type resolveRequest struct {
	Tag   *uint8  `json:"tag" binding:"required"`
	Value *uint64 `json:"value"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.Appeared).String(),
			"component": "tagwire-admin",
			"node":      s.Name,
			"version":   version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/fields", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"fields":   s.ListFields(),
			"handlers": dispatch.HandlerNames(),
		})
	})

	s.router.PUT("/fields/:tag/handler", func(c *gin.Context) {
		tag, ok := parseTag(c)
		if !ok {
			return
		}
		var req bindRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		info, err := s.Bind(tag, req.Handler)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "field": info})
	})

	s.router.POST("/resolve", func(c *gin.Context) {
		var req resolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		res, err := s.ResolveValue(*req.Tag, req.Value)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})
}

func parseTag(c *gin.Context) (uint8, bool) {
	tag, err := strconv.ParseUint(c.Param("tag"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag must be 0..255"})
		return 0, false
	}
	return uint8(tag), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrUnknownTag):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrUnknownHandler),
		errors.Is(err, field.ErrValueRequired),
		errors.Is(err, field.ErrTooManyValues):
		return http.StatusBadRequest
	case errors.Is(err, field.ErrValueOutOfRange):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
