package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/service"
)

// ShortLinkHandler serves short-link redirects outside the /api
// prefix.
type ShortLinkHandler struct {
	shortLinkService *service.ShortLinkService
}

func NewShortLinkHandler(shortLinkService *service.ShortLinkService) *ShortLinkHandler {
	return &ShortLinkHandler{shortLinkService: shortLinkService}
}

func (h *ShortLinkHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/s/:token", h.Redirect)
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	longURL, err := h.shortLinkService.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "short link not found"})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, longURL)
}
