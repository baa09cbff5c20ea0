package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cartvault/internal/domain"
	checkoutsvc "cartvault/internal/service/checkout"
)

type groupValidationResponse struct {
	ProfileID string            `json:"profileId"`
	SessionID string            `json:"sessionId"`
	PerStore  map[string]string `json:"perStore"`
	IsValid   bool              `json:"isValid"`
}

func toGroupValidationResponse(r domain.CheckoutGroupValidationResult) groupValidationResponse {
	perStore := make(map[string]string, len(r.PerStore))
	for storeID, verdict := range r.PerStore {
		perStore[string(storeID)] = string(verdict)
	}
	return groupValidationResponse{
		ProfileID: string(r.ProfileID),
		SessionID: string(r.SessionID),
		PerStore:  perStore,
		IsValid:   r.IsValid(),
	}
}

func validateGroupHandler(svc *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in checkoutsvc.GroupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		result, err := svc.ValidateGroup(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toGroupValidationResponse(*result))
	}
}
