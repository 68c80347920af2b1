package v1

import (
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/utils"
	"net/http"
)

type tierInfo struct {
	Tier         domain.Tier `json:"tier"`
	MinPoints    int64       `json:"minPoints"`
	DiscountRate int         `json:"discountRate"`
}

type ConfigHandler struct {
	enums map[string]interface{}
}

// NewConfigHandler builds the enum payload once; it only changes with a deploy.
func NewConfigHandler(currencyPerPoint int64) *ConfigHandler {
	tiers := make([]tierInfo, 0, len(domain.Tiers))
	for _, t := range domain.Tiers {
		tiers = append(tiers, tierInfo{
			Tier:         t,
			MinPoints:    domain.TierThreshold(t),
			DiscountRate: domain.DiscountRateFor(t),
		})
	}
	return &ConfigHandler{enums: map[string]interface{}{
		"orderStatuses":    domain.OrderStatuses,
		"paymentStatuses":  domain.PaymentStatuses,
		"paymentMethods":   domain.PaymentMethods,
		"requestStatuses":  domain.RequestStatuses,
		"membershipTiers":  tiers,
		"currencyPerPoint": currencyPerPoint,
	}}
}

// GET /api/v1/config/enums
func (h *ConfigHandler) GetEnums(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	utils.WriteJSON(w, http.StatusOK, h.enums)
}
