package v1

import (
	"net/http"
	"slices"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Auth           *AuthHandler
	Appointments   *AppointmentHandler
	MedicalRecords *MedicalRecordHandler
	Doctors        *DoctorHandler
	Patients       *PatientHandler
	Content        *ContentHandler
	Payments       *PaymentHandler
	Health         *HealthHandler
}

type RouterConfig struct {
	JWT         *auth.JWTManager
	Log         *zap.Logger
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	CORS        config.CORSConfig
	RateLimit   config.RateLimitConfig
	TracerName  string
	Environment string
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.RedirectTrailingSlash = false

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(cfg.Log),
		middleware.Logger(cfg.Log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.CORS),
	)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.TracerName != "" {
		r.Use(middleware.Tracing(cfg.TracerName))
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		if c.Writer.Header().Get("Allow") == "" {
			c.Header("Allow", strings.Join(allowedMethods(r.Routes(), c.Request.URL.Path), ", "))
		}
		respondError(c, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	if h.Health != nil {
		r.GET("/healthz", h.Health.Live)
		r.GET("/readyz", h.Health.Ready)
	}
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
		api.Use(middleware.RateLimit(limiter, cfg.Metrics))
	}

	authPublic := api.Group("")
	if cfg.RateLimit.AuthRequestsPerMinute > 0 {
		authPublic.Use(middleware.RateLimit(middleware.PerMinute(cfg.RateLimit.AuthRequestsPerMinute), cfg.Metrics))
	}
	public := api.Group("", middleware.OptionalAuth(cfg.JWT))
	authed := api.Group("", middleware.Authenticate(cfg.JWT))

	h.Auth.RegisterRoutes(authPublic, authed)
	h.Appointments.RegisterRoutes(authed)
	h.MedicalRecords.RegisterRoutes(authed)
	h.Doctors.RegisterRoutes(public, authed)
	h.Patients.RegisterRoutes(authed)
	h.Content.RegisterRoutes(public, authed)
	h.Payments.RegisterRoutes(authed)

	return r
}

// allowedMethods lists the methods registered for paths matching path.
func allowedMethods(routes gin.RoutesInfo, path string) []string {
	var methods []string
	for _, rt := range routes {
		if matchRoute(rt.Path, path) && !slices.Contains(methods, rt.Method) {
			methods = append(methods, rt.Method)
		}
	}
	slices.Sort(methods)
	return methods
}

func matchRoute(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i, seg := range ps {
		if !strings.HasPrefix(seg, ":") && seg != xs[i] {
			return false
		}
	}
	return true
}
