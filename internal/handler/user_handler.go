package handler

import (
	"errors"
	"strconv"

	"scraper-admin/internal/middleware"
	"scraper-admin/internal/models"
	"scraper-admin/internal/service"
	"scraper-admin/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)

	users, total, err := h.userService.List(params)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list users", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Users retrieved successfully", users, pagination)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", err)
	}

	user, err := h.userService.Get(id)
	if err != nil {
		return userError(c, err)
	}
	return utils.SuccessResponse(c, "User retrieved successfully", user)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req models.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	user, err := h.userService.Create(req)
	if err != nil {
		return userError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.APIResponse{
		Success: true,
		Message: "User created successfully",
		Data:    user,
	})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", err)
	}

	var req models.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	user, err := h.userService.Update(id, req)
	if err != nil {
		return userError(c, err)
	}
	return utils.SuccessResponse(c, "User updated successfully", user)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", err)
	}

	if err := h.userService.Delete(id, middleware.CurrentUserID(c)); err != nil {
		return userError(c, err)
	}
	return utils.SuccessResponse(c, "User deleted successfully", nil)
}

func userError(c *fiber.Ctx, err error) error {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, validation.Error(), nil)
	case errors.Is(err, service.ErrUserNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "User not found", nil)
	case errors.Is(err, service.ErrEmailTaken):
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "User operation failed", err)
	}
}
