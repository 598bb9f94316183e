package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewApp assembles the Fiber application: middleware, error handler and
// routes.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "mms-player",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return respondWithError(c, code, err.Error())
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(RequestLogger())

	app.Get("/health", h.Health)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/sentences/:name/animation", h.GetSentenceAnimation)
	apiV1.Post("/realizations", h.CreateRealization)
	apiV1.Get("/realizations/:jobId", h.GetRealization)
	apiV1.Get("/realizations/:jobId/animation", h.GetRealizationAnimation)

	return app
}
