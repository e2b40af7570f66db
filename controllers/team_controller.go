package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadflow/models"
	"leadflow/utils"
)

type TeamController struct {
	DB *gorm.DB
}

func NewTeamController(db *gorm.DB) *TeamController {
	return &TeamController{DB: db}
}

// GetReps lists the sales roster.
func (tc *TeamController) GetReps(c *fiber.Ctx) error {
	var reps []models.SalesRep
	if err := tc.DB.WithContext(c.Context()).Order("name ASC").Find(&reps).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list reps", err)
	}
	return c.JSON(utils.SuccessResponse(reps))
}

// AddRep registers a sales rep by their LINE user id. Admin only.
func (tc *TeamController) AddRep(c *fiber.Ctx) error {
	var input struct {
		LineUserID string `json:"line_user_id" validate:"required,min=10,max=64"`
		Name       string `json:"name" validate:"required,max=100"`
		Role       string `json:"role" validate:"omitempty,oneof=rep admin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Role == "" {
		input.Role = models.RoleRep
	}

	rep := models.SalesRep{
		LineUserID: input.LineUserID,
		Name:       input.Name,
		Role:       input.Role,
		Active:     true,
	}
	if err := tc.DB.WithContext(c.Context()).Create(&rep).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Rep already exists", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(rep))
}

// DeactivateRep removes a rep from the active roster without deleting their
// history. Admin only.
func (tc *TeamController) DeactivateRep(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rep id", nil)
	}

	res := tc.DB.WithContext(c.Context()).
		Model(&models.SalesRep{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to deactivate rep", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Rep not found", nil)
	}
	return c.JSON(utils.SuccessResponse(fiber.Map{"deactivated": id}))
}
