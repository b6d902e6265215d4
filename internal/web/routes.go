package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/veskrna/face-attend/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.services.Detector)
	identitiesHandler := handlers.NewIdentitiesHandler(s.services.Gallery, s.services.Enrollment, s.services.Images)
	attendanceHandler := handlers.NewAttendanceHandler(s.services.Ledger)
	recognizeHandler := handlers.NewRecognizeHandler(s.services.Gallery, s.services.Matcher)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Check)

		// Gallery
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Enroll)
		r.Get("/identities/{id}", identitiesHandler.Get)
		r.Get("/identities/{id}/exists", identitiesHandler.Exists)
		r.Delete("/identities/{id}", identitiesHandler.Delete)
		r.Get("/identities/{id}/image", identitiesHandler.Image)

		// Matching
		r.Post("/recognize", recognizeHandler.Recognize)

		// Attendance ledger
		r.Get("/attendance", attendanceHandler.List)
		r.Post("/attendance", attendanceHandler.Mark)
		r.Put("/attendance/{recordId}", attendanceHandler.Update)
		r.Delete("/attendance/{recordId}", attendanceHandler.Delete)
	})
}
