package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/service"
	"github.com/peibanapp/peiban-api/internal/utils"
)

// AuthHandler handles phone-code authentication endpoints.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/send-code", h.sendCode)
	router.Post("/verify-code", h.verifyCode)
	router.Post("/login", h.login)
	router.Post("/register", h.register)
}

func (h *AuthHandler) sendCode(c *fiber.Ctx) error {
	var payload dto.SendCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.SendCode(requestContext(c), payload); err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCodeRequestTooFrequent):
			return utils.SendError(c, fiber.StatusTooManyRequests, "verification code requested too frequently")
		default:
			h.logger.Error().Err(err).Msg("failed to send verification code")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to send verification code")
		}
	}

	return utils.SendSuccess(c, "verification code sent", nil)
}

func (h *AuthHandler) verifyCode(c *fiber.Ctx) error {
	var payload dto.VerifyCodeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.VerifyCode(requestContext(c), payload); err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidVerificationCode):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired verification code")
		default:
			h.logger.Error().Err(err).Msg("failed to verify code")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify code")
		}
	}

	return utils.SendSuccess(c, "code verified", nil)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidVerificationCode):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired verification code")
		case errors.Is(err, service.ErrUserDisabled):
			return utils.SendError(c, fiber.StatusForbidden, "user account is disabled")
		default:
			h.logger.Error().Err(err).Msg("login failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "login failed")
		}
	}

	return utils.SendSuccess(c, "login successful", token)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidVerificationCode):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired verification code")
		case errors.Is(err, service.ErrPhoneAlreadyRegistered):
			return utils.SendError(c, fiber.StatusConflict, "phone number already registered")
		default:
			h.logger.Error().Err(err).Msg("registration failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "registration failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration successful", token)
}
