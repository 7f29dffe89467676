package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adamscao/eventcert/internal/api/handlers"
	"github.com/adamscao/eventcert/internal/api/middleware"
	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/config"
	"github.com/adamscao/eventcert/internal/metrics"
	"github.com/adamscao/eventcert/internal/policy"
	"github.com/adamscao/eventcert/internal/verify"
)

// Dependencies are the collaborators the HTTP layer is built from
type Dependencies struct {
	Issuer    *cert.Issuer
	Policy    *policy.Validator // optional
	QR        *cert.QRCodec
	Resolver  *verify.Resolver
	Store     handlers.CertificateStore
	Reader    handlers.CertificateReader
	Lister    handlers.CertificateLister
	Cache     handlers.CacheInvalidator // optional
	Logs      handlers.VerificationLogWriter
	LogReader handlers.VerificationLogReader
	Metrics   *metrics.Metrics
	Logger    zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		deps.Logger.Warn().Err(err).Msg("ignoring invalid trusted proxies")
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))

	// Create handlers
	var logW handlers.VerificationLogWriter
	if cfg.Verify.LogAttempts {
		logW = deps.Logs
	}
	verifyHandler := handlers.NewVerifyHandler(deps.Resolver, logW, deps.Metrics, deps.Logger)
	certHandler := handlers.NewCertHandler(deps.Issuer, deps.Policy, deps.Store, deps.Reader, deps.Cache, deps.QR, deps.Metrics, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Lister, deps.LogReader, deps.Logger)

	adminAuth := middleware.AdminAuth(cfg.Admin.Token, cfg.Admin.TOTPSecret)

	router.POST("/verify", verifyHandler.Verify)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		certs := v1.Group("/certificates")
		{
			// Public endpoints
			certs.POST("/verify", verifyHandler.Verify)
			certs.GET("/:id", certHandler.GetCertificate)
			certs.GET("/:id/qr.png", certHandler.GetQRCode)

			// Issuance endpoints (require admin token)
			certs.POST("", adminAuth, certHandler.IssueCertificate)
			certs.PATCH("/:id/url", adminAuth, certHandler.UpdateURL)
		}

		// Admin endpoints (require admin token)
		admin := v1.Group("/admin")
		admin.Use(adminAuth)
		{
			admin.GET("/certificates", adminHandler.ListCertificates)
			admin.GET("/verifications", adminHandler.ListVerifications)
			admin.GET("/stats", adminHandler.Stats)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return &Server{
		router: router,
		config: cfg,
		http: &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
