package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/steviecodesit/ourhome/internal/models"
	"github.com/steviecodesit/ourhome/internal/services"
	"github.com/steviecodesit/ourhome/pkg/response"
)

// HouseholdHandler serves the household membership endpoints.
type HouseholdHandler struct {
	households *services.HouseholdService
	users      *services.UserService
}

type createHouseholdRequest struct {
	Name string `json:"householdName" validate:"required,min=2,max=128"`
}

type sendInviteRequest struct {
	HouseholdID   string `json:"householdId" validate:"required"`
	InviteeUserID string `json:"inviteeUserId" validate:"required"`
}

type householdTargetRequest struct {
	HouseholdID string `json:"householdId" validate:"required"`
}

// NewHouseholdHandler wires the handler with its collaborators.
func NewHouseholdHandler(households *services.HouseholdService, users *services.UserService) (*HouseholdHandler, error) {
	if households == nil {
		return nil, fmt.Errorf("household handler: household service is required")
	}
	if users == nil {
		return nil, fmt.Errorf("household handler: user service is required")
	}
	return &HouseholdHandler{households: households, users: users}, nil
}

// POST /api/households
func (h *HouseholdHandler) Create(c *gin.Context) {
	var body createHouseholdRequest
	if !bindAndValidate(c, &body) {
		return
	}

	household, err := h.households.Create(requestContext(c), body.Name, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, household)
}

// GET /api/households/:householdID
func (h *HouseholdHandler) Get(c *gin.Context) {
	household, err := h.households.GetByID(requestContext(c), c.Param("householdID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, household)
}

// GET /api/households/search-users?query=
func (h *HouseholdHandler) SearchUsers(c *gin.Context) {
	matches, err := h.users.Search(requestContext(c), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}

	dtos := make([]models.UserDTO, 0, len(matches))
	for _, profile := range matches {
		dtos = append(dtos, profile.DTO())
	}
	response.Success(c, http.StatusOK, dtos)
}

// POST /api/households/send-invite
func (h *HouseholdHandler) SendInvite(c *gin.Context) {
	var body sendInviteRequest
	if !bindAndValidate(c, &body) {
		return
	}

	invite, err := h.households.SendInvite(requestContext(c), currentUserID(c), body.InviteeUserID, body.HouseholdID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, invite)
}

// POST /api/households/accept-invite/:householdID
func (h *HouseholdHandler) AcceptInvite(c *gin.Context) {
	err := h.households.AcceptInvite(requestContext(c), c.Param("householdID"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Invite accepted successfully!")
}

// POST /api/households/decline-invite/:householdID
func (h *HouseholdHandler) DeclineInvite(c *gin.Context) {
	err := h.households.DeclineInvite(requestContext(c), c.Param("householdID"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Invite declined successfully!")
}

// POST /api/households/:householdID/cancel-invite/:userID
func (h *HouseholdHandler) CancelInvitation(c *gin.Context) {
	err := h.households.CancelInvitation(requestContext(c), c.Param("householdID"), c.Param("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Invite cancelled successfully.")
}

// POST /api/households/request-join/:targetUserID
func (h *HouseholdHandler) RequestJoin(c *gin.Context) {
	err := h.households.RequestJoin(requestContext(c), currentUserID(c), c.Param("targetUserID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Successfully sent join request.")
}

// POST /api/households/accept-user/:userID
func (h *HouseholdHandler) AcceptUser(c *gin.Context) {
	var body householdTargetRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.households.AcceptUser(requestContext(c), c.Param("userID"), body.HouseholdID, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User successfully added to the household.")
}

// POST /api/households/deny-user/:userID
func (h *HouseholdHandler) DenyUser(c *gin.Context) {
	var body householdTargetRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.households.DenyUser(requestContext(c), c.Param("userID"), body.HouseholdID, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User's request denied successfully.")
}

// POST /api/households/leave/:householdID
func (h *HouseholdHandler) Leave(c *gin.Context) {
	err := h.households.Leave(requestContext(c), currentUserID(c), c.Param("householdID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Left household successfully.")
}
