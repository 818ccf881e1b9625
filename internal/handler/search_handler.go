package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Search обработчик для GET /api/search/?query=...&describe=true.
// Результаты упорядочены по релевантности.
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No search query provided"})
		return
	}
	describe, _ := strconv.ParseBool(c.Query("describe"))

	recs, err := h.SearchService.Search(c.Request.Context(), query, describe)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := gin.H{"results": recs}
	if describe {
		body["descriptions"] = recs.Blurbs()
	}
	c.JSON(http.StatusOK, body)
}
