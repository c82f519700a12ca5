package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/garbage_complaint/docs" // registers the swagger document
	"github.com/garbage_complaint/internal/config"
	"github.com/garbage_complaint/internal/handlers"
	"github.com/garbage_complaint/internal/metrics"
	"github.com/garbage_complaint/internal/middleware"
	"github.com/garbage_complaint/pkg/media"
)

// SessionName is the cookie that carries flash messages.
const SessionName = "complaint_session"

// ContentSecurityPolicy lets the page load Leaflet from unpkg and tiles from OpenStreetMap.
const ContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' https://unpkg.com; " +
	"style-src 'self' https://unpkg.com; " +
	"img-src 'self' data: https://unpkg.com https://*.tile.openstreetmap.org; " +
	"connect-src 'self'"

// SetupRoutes 初始化所有路由
func SetupRoutes(
	router *gin.Engine,
	cfg config.Configuration,
	complaintHandler *handlers.ComplaintHandler,
	m *metrics.Metrics,
	log *zap.Logger,
	mediaStore *media.Store,
) error {
	tmpl, err := handlers.LoadTemplates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(log))
	router.Use(m.Middleware())
	router.Use(secure.New(secureConfig(cfg)))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(sessions.Sessions(SessionName, sessionStore(cfg)))

	router.StaticFS("/static", http.FS(handlers.StaticFS()))
	router.Static("/"+media.DirName, mediaStore.Dir())

	submitLimit := middleware.RateLimit(cfg.SubmitRatePerSecond, cfg.SubmitRateBurst)

	router.GET("/", complaintHandler.Index)
	router.POST("/complaints", submitLimit, complaintHandler.SubmitForm)
	router.GET("/healthz", complaintHandler.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/complaints", complaintHandler.ListComplaints)
		apiV1.POST("/complaints", submitLimit, complaintHandler.CreateComplaint)
		apiV1.GET("/complaints/export", complaintHandler.ExportComplaints)
	}
	return nil
}

func secureConfig(cfg config.Configuration) secure.Config {
	secureCfg := secure.DefaultConfig()
	secureCfg.SSLRedirect = false
	secureCfg.IsDevelopment = cfg.Debug
	secureCfg.ContentSecurityPolicy = ContentSecurityPolicy
	return secureCfg
}

func corsConfig(cfg config.Configuration) cors.Config {
	corsCfg := cors.DefaultConfig()
	allowAll := len(cfg.CORSOrigins) == 0
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With", middleware.RequestIDHeader}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	return corsCfg
}

func sessionStore(cfg config.Configuration) cookie.Store {
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
