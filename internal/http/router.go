package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handler *Handler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", handler.ListItems)
		r.Get("/items/export.csv", handler.ExportItemsCSV)
		r.Get("/items/export.xlsx", handler.ExportItemsXLSX)
		r.Get("/items/{code}", handler.GetItem)
		r.Post("/items", handler.CreateItem)
		r.Patch("/items/{code}", handler.PatchItem)

		r.Get("/categories", handler.ListCategories)
		r.Post("/categories", handler.CreateCategory)

		r.Get("/grn", handler.ListReceipts)
		r.Post("/grn", handler.CreateReceipt)
		r.Get("/issues", handler.ListIssues)
		r.Post("/issues", handler.CreateIssue)

		r.Get("/stock/summary", handler.StockSummary)
		r.Get("/stock/summary/export.xlsx", handler.ExportStockSummaryXLSX)
		r.Get("/dashboard/summary", handler.DashboardSummary)

		r.Get("/imports/templates/{kind}", handler.ImportTemplate)
		r.Post("/imports/{kind}/preview", handler.PreviewImport)
		r.Post("/imports/{kind}/apply", handler.ApplyImport)
		r.Get("/uploads", handler.ListUploads)
	})

	return r
}
