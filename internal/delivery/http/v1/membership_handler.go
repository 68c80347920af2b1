package v1

import (
	"glowmart-backend/internal/usecase"
	"glowmart-backend/pkg/utils"
	"net/http"
)

type MembershipHandler struct {
	membershipUC *usecase.MembershipUsecase
}

func NewMembershipHandler(uc *usecase.MembershipUsecase) *MembershipHandler {
	return &MembershipHandler{membershipUC: uc}
}

// GET /api/v1/users/membership
func (h *MembershipHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	m, err := h.membershipUC.GetMembership(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err, nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, m)
}
