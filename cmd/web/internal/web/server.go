package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thirdcoast.systems/duckflix/cmd/web/handlers/api/movie_api"
	"thirdcoast.systems/duckflix/cmd/web/handlers/api/notification_api"
	"thirdcoast.systems/duckflix/cmd/web/handlers/api/task_api"
)

// Service is everything the API handlers need from movies.Service.
type Service interface {
	movie_api.Service
	notification_api.Service
}

// Options configures a Webserver.
type Options struct {
	Service   Service
	Scheduler task_api.Scheduler
	UploadDir string
	// BodyLimit is the request size limit in bytes.
	BodyLimit int64
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

type Webserver struct {
	*echo.Echo
	opts Options
}

func NewWebserver(opts Options) (*Webserver, error) {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	webserver := &Webserver{
		Echo: echo.New(),
		opts: opts,
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.HTTPErrorHandler = s.handleError
	if s.opts.BodyLimit > 0 {
		s.Use(middleware.BodyLimit(strconv.FormatInt(s.opts.BodyLimit, 10) + "B"))
	}
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	apiGroup := s.Group("/api")
	apiGroup.POST("/movies", movie_api.HandleCreate(s.opts.Service, s.opts.UploadDir))
	apiGroup.GET("/movies/:id", movie_api.HandleGet(s.opts.Service))

	apiGroup.GET("/tasks", task_api.HandleStats(s.opts.Scheduler))
	apiGroup.GET("/tasks/:id", task_api.HandleStatus(s.opts.Scheduler))

	apiGroup.GET("/notifications", notification_api.HandleIndex(s.opts.Service))
	apiGroup.POST("/notifications/:id/read", notification_api.HandleRead(s.opts.Service))

	s.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	return nil
}

// handleError renders errors in the same envelope as successful responses.
func (s *Webserver) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, map[string]any{"status": "error", "message": message})
	}
	if writeErr != nil {
		slog.Warn("failed to write error response", "error", writeErr)
	}
}
