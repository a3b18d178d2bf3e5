package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"shipper/pkg/middleware"
)

//go:embed templates/*.html
var templatesFS embed.FS

// RouterOptions configures NewRouter
type RouterOptions struct {
	// Metrics serves /metrics when set
	Metrics          http.Handler
	CORSAllowOrigins []string
}

// NewRouter registers every route on a new gin engine
func NewRouter(h *Handlers, opts RouterOptions) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", h.ShowForm)
	router.GET("/health", h.HealthCheck)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	formRoutes := router.Group("/form")
	formRoutes.POST("/next", h.Next)
	formRoutes.POST("/previous", h.Previous)
	formRoutes.POST("/field", h.SetField)
	formRoutes.POST("/submit", h.Submit)
	formRoutes.POST("/reset", h.Reset)

	apiRoutes := router.Group("/api", middleware.CORS(opts.CORSAllowOrigins...))
	apiRoutes.POST("/labels", h.CreateLabel)
	apiRoutes.OPTIONS("/labels", func(c *gin.Context) {})

	return router
}
