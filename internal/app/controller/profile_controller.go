package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
)

type ProfileController struct {
	profiles service.ProfileService
}

func NewProfileController(profiles service.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

// GetProfile returns the registered customer's details and orders
// GET /profile/
func (ctrl *ProfileController) GetProfile(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}
	if customer.IsAnonymous() {
		apperrors.Unauthorized(c, "")
		return
	}

	profile, err := ctrl.profiles.GetProfile(c.Request.Context(), customer)
	if err != nil {
		respondServiceError(c, err, "fetch customer profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile edits name, email, phone and address
// POST /profile/
func (ctrl *ProfileController) UpdateProfile(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}
	if customer.IsAnonymous() {
		apperrors.Unauthorized(c, "")
		return
	}

	var input service.ProfileInput
	if err := c.ShouldBind(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid request data")
		return
	}

	profile, err := ctrl.profiles.UpdateProfile(c.Request.Context(), customer, input)
	if err != nil {
		respondServiceError(c, err, "update customer profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}
