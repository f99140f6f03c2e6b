// Package http exposes the bridge service over a small REST surface:
// session lifecycle, command submission and message polling, plus the
// game archive.
package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"dam/internal/bridge"
	"dam/internal/service"
	"dam/internal/storage"
)

const rateLimitRate = 20 // req/sec

var validate = validator.New()

// Error codes
const (
	ErrSessionNotFound   = "SESSION_NOT_FOUND"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrEngineUnavailable = "ENGINE_UNAVAILABLE"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrResourceLimit     = "RESOURCE_LIMIT"
	ErrInternalError     = "INTERNAL_ERROR"
	ErrUnauthorized      = "UNAUTHORIZED"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// CommandRequest submits one HUB line to a session.
type CommandRequest struct {
	Command string `json:"command" validate:"required,min=1,max=4096"`
}

// SessionResponse describes a session's current state.
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	LastError string `json:"lastError,omitempty"`
}

// Handler routes HTTP requests to the service.
type Handler struct {
	svc   *service.Service
	store *storage.Store
}

// NewFiberApp builds the daemon's fiber application.
func NewFiberApp(svc *service.Service, store *storage.Store, tokenHash string, devMode bool) *fiber.App {
	h := &Handler{svc: svc, store: store}

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit, no auth)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Use(TokenRequired(tokenHash))

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 5
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error: "rate limit exceeded",
				Code:  ErrRateLimitExceeded,
			})
		},
	}))

	api.Post("/sessions", h.CreateSession)
	api.Get("/sessions/:id", h.GetSession)
	api.Delete("/sessions/:id", h.DeleteSession)
	api.Post("/sessions/:id/commands", h.SendCommand)
	api.Get("/sessions/:id/messages", h.GetMessages)
	api.Get("/games", h.ListGames)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{
		Error: err.Error(),
		Code:  ErrInternalError,
	})
}

// Health reports daemon, session and storage status.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": h.svc.SessionCount(),
		"storage":  h.svc.StorageHealth(),
	})
}

// CreateSession starts a new engine session.
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	sess, err := h.svc.CreateSession()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  ErrResourceLimit,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		SessionID: sess.ID,
		Status:    sess.Bridge.Status().String(),
	})
}

// GetSession returns session status and last error.
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, ok := h.sessionFromPath(c)
	if !ok {
		return nil
	}
	return c.JSON(SessionResponse{
		SessionID: sess.ID,
		Status:    sess.Bridge.Status().String(),
		LastError: sess.Bridge.LastError(),
	})
}

// DeleteSession shuts a session down.
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if !isValidUUID(id) {
		return badRequest(c, "invalid session id")
	}
	if err := h.svc.CloseSession(id); err != nil {
		return notFound(c, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SendCommand enqueues one HUB line; the response arrives via polling.
func (h *Handler) SendCommand(c *fiber.Ctx) error {
	sess, ok := h.sessionFromPath(c)
	if !ok {
		return nil
	}

	var req CommandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return badRequest(c, "command is required")
	}

	if err := h.svc.SendCommand(sess.ID, req.Command); err != nil {
		switch {
		case errors.Is(err, bridge.ErrInvalidCommand):
			return badRequest(c, "empty command")
		case errors.Is(err, bridge.ErrQueueFull):
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error: "command queue full",
				Code:  ErrRateLimitExceeded,
			})
		default:
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Error: err.Error(),
				Code:  ErrEngineUnavailable,
			})
		}
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// GetMessages returns buffered sink lines after the given sequence.
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	sess, ok := h.sessionFromPath(c)
	if !ok {
		return nil
	}
	after, _ := strconv.ParseUint(c.Query("after", "0"), 10, 64)
	return c.JSON(fiber.Map{
		"messages": sess.Messages(after),
	})
}

// ListGames returns archived games, newest first.
func (h *Handler) ListGames(c *fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "persistent storage disabled",
			Code:  ErrEngineUnavailable,
		})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	games, err := h.store.ListGames(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
			Code:  ErrInternalError,
		})
	}
	return c.JSON(fiber.Map{"games": games})
}

// sessionFromPath resolves the :id parameter. When it returns false the
// error response has already been written.
func (h *Handler) sessionFromPath(c *fiber.Ctx) (*service.Session, bool) {
	id := c.Params("id")
	if !isValidUUID(id) {
		badRequest(c, "invalid session id")
		return nil, false
	}
	sess, err := h.svc.GetSession(id)
	if err != nil {
		notFound(c, err.Error())
		return nil, false
	}
	return sess, true
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: msg,
		Code:  ErrInvalidRequest,
	})
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error: msg,
		Code:  ErrSessionNotFound,
	})
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
