package handlers

import (
	"insightpro/internal/logging"
	"insightpro/internal/services"

	"github.com/go-kit/log"
	"github.com/gofiber/fiber/v2"
)

// AccountHandler handles HTTP requests for registration and login.
type AccountHandler struct {
	service *services.AccountService
	logger  log.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service *services.AccountService, logger log.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logging.OrNop(logger),
	}
}

// RegisterRoutes registers the account routes with the Fiber app.
func (h *AccountHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/registro", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
}

// HandleRegister handles new account registration. The account is not logged in.
func (h *AccountHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, h.logger, invalidBody(err))
	}

	if _, err := h.service.Register(c.UserContext(), req); err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account registered successfully",
	})
}

// HandleLogin checks the credentials and answers a session token with the
// account's company.
func (h *AccountHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, h.logger, invalidBody(err))
	}

	resp, err := h.service.Login(c.UserContext(), req)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(resp)
}
