package handlers

import (
	"net/http"

	"github.com/filmeja/backend/internal/seo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SEOHandler отдает sitemap.xml и robots.txt
type SEOHandler struct {
	builder *seo.Builder
	robots  string
	log     *zap.SugaredLogger
}

// NewSEOHandler создает новый обработчик SEO-документов
func NewSEOHandler(builder *seo.Builder, baseURL string, log *zap.SugaredLogger) *SEOHandler {
	return &SEOHandler{
		builder: builder,
		robots:  seo.Robots(baseURL),
		log:     log,
	}
}

// Sitemap возвращает sitemap.xml
func (h *SEOHandler) Sitemap(c *gin.Context) {
	body, err := h.builder.Build(c.Request.Context())
	if err != nil {
		h.log.Errorw("Failed to build sitemap", "error", err)
		c.String(http.StatusInternalServerError, "failed to build sitemap")
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Robots возвращает robots.txt
func (h *SEOHandler) Robots(c *gin.Context) {
	c.String(http.StatusOK, h.robots)
}
