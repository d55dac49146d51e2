package www

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scmcore/predict"
	"scmcore/store"
)

const defaultListLimit = 100

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// jsonFail maps an operation error to its status: bad input is 400, a
// missing record 404, everything else 500.
func (h *Handlers) jsonFail(w http.ResponseWriter, err error) {
	var ve *predict.ValidationError
	switch {
	case errors.As(err, &ve):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrRecordNotFound):
		h.jsonError(w, err.Error(), http.StatusNotFound)
	default:
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var ve *predict.ValidationError
		if errors.As(err, &ve) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return false
		}
		h.jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// queryLimit reads ?limit=, defaulting to 100. Zero and negative values are
// passed through and yield empty lists.
func (h *Handlers) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(l)
	if err != nil {
		h.jsonError(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

type supplierRequest struct {
	SupplierID       string   `json:"supplier_id"`
	Name             string   `json:"name"`
	LeadTime         *float64 `json:"lead_time"`
	Cost             *float64 `json:"cost"`
	PastOrders       *int64   `json:"past_orders"`
	ReliabilityScore *float64 `json:"reliability_score"`
}

func (req *supplierRequest) validate() error {
	switch {
	case req.Name == "":
		return &predict.ValidationError{Field: "name", Reason: "is required"}
	case req.LeadTime == nil:
		return &predict.ValidationError{Field: "lead_time", Reason: "is required"}
	case req.Cost == nil:
		return &predict.ValidationError{Field: "cost", Reason: "is required"}
	case req.PastOrders == nil:
		return &predict.ValidationError{Field: "past_orders", Reason: "is required"}
	}
	return nil
}

func (h *Handlers) apiSaveSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		h.jsonFail(w, err)
		return
	}
	sp := &store.Supplier{
		SupplierID:       req.SupplierID,
		Name:             req.Name,
		LeadTime:         req.LeadTime,
		Cost:             req.Cost,
		PastOrders:       req.PastOrders,
		ReliabilityScore: req.ReliabilityScore,
	}
	created, err := h.engine.SaveSupplier(sp)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{
		"message":  "Supplier saved successfully",
		"created":  created,
		"supplier": sp,
	})
}

func (h *Handlers) apiListSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}
	suppliers, err := h.engine.Store().GetSuppliers(limit)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"suppliers": suppliers, "count": len(suppliers)})
}

func (h *Handlers) apiGetSupplier(w http.ResponseWriter, r *http.Request) {
	sp, err := h.engine.Store().GetSupplier(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			h.jsonError(w, "Supplier not found", http.StatusNotFound)
			return
		}
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, sp)
}

func (h *Handlers) apiDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSupplier(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			h.jsonError(w, "Supplier not found", http.StatusNotFound)
			return
		}
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"message": "Supplier deleted successfully"})
}

func (h *Handlers) apiScoreSupplier(w http.ResponseWriter, r *http.Request) {
	sp, res, err := h.engine.ScoreSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"supplier": sp, "prediction": res})
}

func (h *Handlers) apiSupplierRanking(w http.ResponseWriter, r *http.Request) {
	ranked, err := h.engine.SupplierRanking(r.Context())
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"suppliers": ranked, "count": len(ranked)})
}

func (h *Handlers) apiListShipments(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}
	shipments, err := h.engine.Store().GetShipments(limit)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"shipments": shipments, "count": len(shipments)})
}

func (h *Handlers) apiListInventory(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}
	items, err := h.engine.Store().GetInventory(limit)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"inventory": items, "count": len(items)})
}

func (h *Handlers) apiSaveInventory(w http.ResponseWriter, r *http.Request) {
	var it store.InventoryItem
	if !h.decodeJSON(w, r, &it) {
		return
	}
	if it.ItemName == "" {
		h.jsonFail(w, &predict.ValidationError{Field: "item_name", Reason: "is required"})
		return
	}
	if err := h.engine.SaveInventory(&it); err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"message": "Inventory item saved successfully", "item": &it})
}

func (h *Handlers) apiPredictionHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}
	logs, err := h.engine.Store().GetPredictions(limit, r.URL.Query().Get("prediction_type"))
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"predictions": logs, "count": len(logs)})
}

func (h *Handlers) apiListRoutes(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryLimit(w, r)
	if !ok {
		return
	}
	routes, err := h.engine.Store().GetRoutes(limit)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]any{"routes": routes, "count": len(routes)})
}

func (h *Handlers) apiStatistics(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, h.engine.Statistics(r.Context()))
}
