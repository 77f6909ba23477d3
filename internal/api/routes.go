// ABOUTME: Route table for the HTTP API.
// ABOUTME: Measurements live under /bp; health and metrics at the root.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(handler.registry, promhttp.HandlerOpts{})))

	bp := app.Group("/bp")
	bp.Get("/", handler.ListMeasurements)
	bp.Post("/", handler.CreateMeasurement)
	bp.Get("/stats", handler.Stats)
	bp.Post("/import", handler.ImportCSV)
	bp.Get("/export.csv", handler.ExportCSV)
	bp.Get("/sample.csv", handler.SampleCSV)
}
