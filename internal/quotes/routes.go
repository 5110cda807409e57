package quotes

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the quote lifecycle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Show)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)

			r.Post("/revisions", h.CreateRevision)
			r.Post("/status", h.UpdateStatus)
			r.Post("/archive", h.Archive)
			r.Post("/unarchive", h.Unarchive)
			r.Post("/recalculate", h.Recalculate)

			r.Post("/materials", h.AddMaterialLine)
			r.Delete("/materials", h.ClearMaterialLines)
			r.Put("/materials/{lineID}", h.UpdateMaterialLine)
			r.Delete("/materials/{lineID}", h.RemoveMaterialLine)

			r.Put("/misc/{miscID}", h.SetMiscLine)
		})
	})
}
