package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api/handlers"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	"github.com/maheshrc27/postpilot/internal/quality"
	"github.com/maheshrc27/postpilot/internal/service"
)

type Services struct {
	Captions service.CaptionService
	Images   service.ImageService
	Gate     quality.Gate
	Publish  service.PublishService
	OAuth    service.OAuthService
	Pipeline service.PipelineService
}

func NewApp(cfg config.Config, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "path", c.Path(), "error", err.Error())
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-Info, Apikey",
		MaxAge:       3600,
	}))

	auth := middleware.NewAuthMiddleware(cfg)
	content := handlers.NewContentHandler(s.Captions, s.Images, s.Gate)
	post := handlers.NewPostHandler(s.Publish)
	platform := handlers.NewPlatformHandler(s.OAuth)
	pipeline := handlers.NewPipelineHandler(s.Pipeline)

	fn := app.Group("/functions/v1")

	fn.Get("/instagram-auth-callback", platform.AuthCallback)
	fn.Post("/instagram-auth-start", auth.UserToken(), platform.AuthStart)
	fn.Post("/instagram-auth-complete", auth.UserToken(), platform.AuthComplete)

	fn.Post("/generate-caption", auth.ServiceKey(), content.GenerateCaption)
	fn.Post("/generate-image", auth.ServiceKey(), content.GenerateImage)
	fn.Post("/quality-gate", auth.ServiceKey(), content.QualityGate)
	fn.Post("/publish-instagram", auth.ServiceKey(), post.PublishInstagram)
	fn.Post("/instagram-token-refresh", auth.ServiceKey(), platform.TokenRefresh)
	fn.Post("/run-daily-pipeline", auth.ServiceKey(), pipeline.RunDailyPipeline)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}
