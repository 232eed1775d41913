// Package devbackend is a local stand-in for the hosted products backend.
//
// It answers the one PostgREST request the lookup service issues,
//
//	GET /rest/v1/products?barcode=eq.<value>&select=*
//	apikey: <key>
//	Authorization: Bearer <key>
//
// from a SQLite table, with the backend's status codes and error shapes, so
// the whole lookup path runs offline.
package devbackend

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/barcode-lookup/internal/domain"
	"github.com/tbourn/barcode-lookup/internal/http/middleware"
	"github.com/tbourn/barcode-lookup/internal/repo"
)

// ProductsPath is the REST path of the products resource.
const ProductsPath = "/rest/v1/products"

// PostgREST error codes used by the dev backend.
const (
	codeParse    = "PGRST100"
	codeDatabase = "PGRST000"
)

// apiError is the PostgREST error envelope.
type apiError struct {
	Code    string  `json:"code"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
	Message string  `json:"message"`
}

// Server serves the products resource from db, accepting only apiKey.
type Server struct {
	db     *gorm.DB
	apiKey string
}

// New returns a Server over db. An empty apiKey rejects every request.
func New(db *gorm.DB, apiKey string) *Server {
	return &Server{db: db, apiKey: apiKey}
}

// Register mounts the REST and health routes on r.
func (s *Server) Register(r gin.IRoutes) {
	r.GET("/health", s.health)
	r.GET(ProductsPath, s.requireKey, s.listProducts)
}

// requireKey checks the apikey header and the bearer token against the
// configured key in constant time.
func (s *Server) requireKey(c *gin.Context) {
	key := c.GetHeader("apikey")
	bearer, hasBearer := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if s.apiKey == "" || !hasBearer || !equal(key, s.apiKey) || !equal(bearer, s.apiKey) {
		hint := "Double check your backend anon or service_role API key."
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid API key", "hint": hint})
		return
	}
	c.Next()
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// listProducts answers the filtered read. Only the eq operator on barcode
// and select=* are understood; anything else is a parse error, as PostgREST
// would report for a malformed filter.
func (s *Server) listProducts(c *gin.Context) {
	q := c.Request.URL.Query()
	for k := range q {
		if k != "barcode" && k != "select" {
			parseError(c, "unsupported query parameter "+k, "only barcode and select are supported")
			return
		}
	}

	if sel, ok := q["select"]; ok && (len(sel) != 1 || sel[0] != "*") {
		parseError(c, "unsupported select", "only select=* is supported")
		return
	}

	filters := q["barcode"]
	if len(filters) != 1 {
		parseError(c, "exactly one barcode filter is required", "use barcode=eq.<value>")
		return
	}
	barcode, err := ParseEq(filters[0])
	if err != nil {
		parseError(c, err.Error(), "use barcode=eq.<value>")
		return
	}

	rows, err := repo.FindProductsByBarcode(c.Request.Context(), s.db, barcode)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("barcode", barcode).Msg("products query failed")
		msg := err.Error()
		c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{Code: codeDatabase, Message: "database error", Details: &msg})
		return
	}
	if rows == nil {
		rows = []domain.Product{}
	}
	c.JSON(http.StatusOK, rows)
}

// health reports the product count and the time of the latest change.
func (s *Server) health(c *gin.Context) {
	n, latest, err := repo.ProductsStats(c.Request.Context(), s.db)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	body := gin.H{"status": "ok", "products": n}
	if latest != nil {
		body["updated_at"] = latest.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

func parseError(c *gin.Context, msg, hint string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, apiError{Code: codeParse, Message: msg, Hint: &hint})
}
