package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "videothingy/docs"
	"videothingy/handlers"
	"videothingy/middleware"
	"videothingy/utils"
)

func newApp(h *handlers.ApplicationHandler, log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "videothingy-processor",
		DisableStartupMessage: true,
		BodyLimit:             512 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return utils.RespondWithError(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	h.RegisterRoutes(app.Group("/api/v1"))
	return app
}
