package offer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/pkg/utils"
)

// Handler 报价目录的HTTP处理器
type Handler struct {
	catalog offer.Catalog
}

// New 创建报价处理器
func New(catalog offer.Catalog) *Handler {
	return &Handler{
		catalog: catalog,
	}
}

// RegisterRoutes 注册报价相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/offers/{kind}", h.handleListOffers)
	r.Get("/offers/{kind}/{offerID}", h.handleGetOffer)
}

// handleListOffers 列出航班或酒店
func (h *Handler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	kind, err := offer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if kind == offer.KindFlight {
		utils.RespondJSON(w, http.StatusOK, h.catalog.Flights())
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.catalog.Hotels())
}

func (h *Handler) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	kind, err := offer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	found, ok := h.catalog.Find(kind, chi.URLParam(r, "offerID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "offer not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, found)
}
