package handler

import (
	"quiz-funnel/internal/auth"
	"quiz-funnel/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups the route handlers served by the API.
type Handlers struct {
	Quiz     *QuizHandler
	Response *ResponseHandler
	Embed    *EmbedHandler
	Health   *HealthHandler
}

// RegisterRoutes mounts the public API on router.
func RegisterRoutes(router fiber.Router, a *auth.Authenticator, h Handlers) {
	vm := middleware.NewValidationMiddleware()
	protected := middleware.RequireAPIKey(a)

	router.Get("/healthz", h.Health.Health)

	router.Get("/quiz/:slug", protected, vm.ValidateSlug(), h.Quiz.GetQuiz)
	router.Get("/quizzes", protected, h.Quiz.ListQuizzes)
	router.Post("/submit-quiz-response", vm.ValidateSubmission(), h.Response.SubmitResponse)
	router.Post("/embed/render", protected, h.Embed.Render)
}
