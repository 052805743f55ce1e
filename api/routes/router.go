package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odrivera-dev/fleetrack-backend/api/controllers"
	assignmentcontrollers "github.com/odrivera-dev/fleetrack-backend/api/controllers/assignments"
	shiftcontrollers "github.com/odrivera-dev/fleetrack-backend/api/controllers/shifts"
	"github.com/odrivera-dev/fleetrack-backend/api/middleware"
	"github.com/odrivera-dev/fleetrack-backend/internal/assignments"
	"github.com/odrivera-dev/fleetrack-backend/internal/shifts"
	"github.com/odrivera-dev/fleetrack-backend/pkg/config"
	"github.com/odrivera-dev/fleetrack-backend/pkg/db"
	"github.com/odrivera-dev/fleetrack-backend/pkg/logger"
)

type redisPinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redisPinger,
	assignmentsService assignments.Service,
	shiftsService shifts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/assignments", func(r chi.Router) {
		r.Post("/", assignmentcontrollers.Create(assignmentsService, logg))
		r.Get("/", assignmentcontrollers.List(assignmentsService, logg))
		r.Get("/stats", assignmentcontrollers.Stats(assignmentsService, logg))
		r.Post("/check-conflicts", assignmentcontrollers.CheckConflicts(assignmentsService, logg))
		r.Route("/{assignmentId}", func(r chi.Router) {
			r.Get("/", assignmentcontrollers.Detail(assignmentsService, logg))
			r.Patch("/", assignmentcontrollers.Update(assignmentsService, logg))
			r.Delete("/", assignmentcontrollers.Remove(assignmentsService, logg))
			r.Post("/complete", assignmentcontrollers.Complete(assignmentsService, logg))
			r.Post("/cancel", assignmentcontrollers.Cancel(assignmentsService, logg))
		})
	})

	r.Route("/api/v1/shift-templates", func(r chi.Router) {
		r.Post("/", shiftcontrollers.CreateTemplate(shiftsService, logg))
		r.Get("/", shiftcontrollers.ListTemplates(shiftsService, logg))
	})

	r.Route("/api/v1/shift-assignments", func(r chi.Router) {
		r.Post("/", shiftcontrollers.AssignShift(shiftsService, logg))
		r.Delete("/{shiftId}", shiftcontrollers.DeleteShift(shiftsService, logg))
	})

	r.Route("/api/v1/drivers/{driverId}", func(r chi.Router) {
		r.Get("/shifts", shiftcontrollers.DriverShifts(shiftsService, logg))
		r.Get("/hours", shiftcontrollers.DriverHours(shiftsService, logg))
	})

	return r
}
