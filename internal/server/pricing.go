package server

import (
	"net/http"
	"strings"

	"github.com/crowngraphics/portal/internal/pricing"
	"github.com/gin-gonic/gin"
)

type QuoteRequest struct {
	Product  string `json:"product" form:"product" binding:"required"`
	Size     string `json:"size" form:"size" binding:"required"`
	Quantity int    `json:"quantity" form:"quantity" binding:"gte=0"`
	pricing.Options
}

func (s *Server) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBind(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	total, err := pricing.Calculate(s.pricing.Get(), strings.TrimSpace(req.Product), strings.TrimSpace(req.Size), req.Quantity, req.Options)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (s *Server) PricingTable(c *gin.Context) {
	c.JSON(http.StatusOK, s.pricing.Get())
}
