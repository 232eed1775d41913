// Lookup HTTP handler.
//
// This file exposes the barcode lookup endpoint:
//   - GET /lookup?barcode=<value>
//
// The handler is transport-thin: it normalizes the Gin request into a
// domain.LookupRequest, delegates to the lookup service, and writes the
// status and body the service rendered.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/barcode-lookup/internal/domain"
	"github.com/tbourn/barcode-lookup/internal/http/middleware"
)

// LookupService resolves a barcode into a rendered lookup response.
//
// Implementations must be safe for concurrent use and honor ctx.
type LookupService interface {
	Handle(ctx context.Context, req domain.LookupRequest) domain.LookupResponse
}

// Handlers aggregates the services used by the HTTP layer.
type Handlers struct {
	lookup LookupService
}

// New constructs a Handlers instance bound to the given service.
func New(lookup LookupService) *Handlers {
	return &Handlers{lookup: lookup}
}

// Lookup godoc
// @ID          lookupProduct
// @Summary     Look up a product by barcode
// @Description Queries the products backend for an exact barcode match and returns the first row.
// @Description Rows beyond the first are discarded.
// @Tags        Products
// @Produce     json
//
// @Param       barcode  query  string  true  "Product barcode"  example(012345678905)
//
// @Success     200  {object}  handlers.ProductResponse  "First matching product"
// @Failure     400  {object}  handlers.ErrorResponse    "Missing barcode parameter"
// @Failure     404  {object}  handlers.ErrorResponse    "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse    "Configuration or upstream error"
// @Router      /lookup [get]
func (h *Handlers) Lookup(c *gin.Context) {
	lg := middleware.LoggerFrom(c)
	ctx := lg.WithContext(c.Request.Context())

	resp := h.lookup.Handle(ctx, domain.LookupRequest{Barcode: domain.BarcodeFromQuery(c.Request.URL.RawQuery)})
	ok(c, resp.Status, resp.Body)
}
