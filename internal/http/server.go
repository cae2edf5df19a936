// README: API gateway; registers HTTP routes and delegates to the planner.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atlas/internal/http/handlers"
	"atlas/internal/http/middleware"
)

type ServerDeps struct {
	Plans   handlers.PlanService
	Refiner handlers.Refiner
	Logger  *zap.Logger
}

type Server struct {
	plans   handlers.PlanService
	refiner handlers.Refiner
	log     *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		plans:   deps.Plans,
		refiner: deps.Refiner,
		log:     log,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.Logging(s.log))

	planHandler := handlers.NewPlanHandler(s.plans, s.refiner)
	r.POST("/api/plans", planHandler.Create)
	r.GET("/api/plans/:id", planHandler.Get)
	r.POST("/api/plans/:id/feedback", planHandler.Feedback)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
