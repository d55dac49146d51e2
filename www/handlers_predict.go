package www

import (
	"net/http"
	"strconv"

	"scmcore/predict"
)

func (h *Handlers) apiPredictSupplier(w http.ResponseWriter, r *http.Request) {
	var in predict.SupplierInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	res, err := h.engine.PredictSupplier(r.Context(), &in)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiForecastInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	steps := 5
	if s := q.Get("steps"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.jsonError(w, "invalid steps", http.StatusBadRequest)
			return
		}
		steps = n
	}
	confidence := 0.95
	if c := q.Get("confidence_level"); c != "" {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			h.jsonError(w, "invalid confidence_level", http.StatusBadRequest)
			return
		}
		confidence = f
	}
	res, err := h.engine.ForecastInventory(r.Context(), steps, confidence)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiPredictShipment(w http.ResponseWriter, r *http.Request) {
	var in predict.ShipmentInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	res, err := h.engine.PredictShipment(r.Context(), &in)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiOptimizeInventory(w http.ResponseWriter, r *http.Request) {
	var in predict.InventoryInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	res, err := h.engine.OptimizeInventory(r.Context(), &in)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiOptimizeRouting(w http.ResponseWriter, r *http.Request) {
	var in predict.RoutingInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	res, err := h.engine.OptimizeRouting(r.Context(), &in)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiBatchSuppliers(w http.ResponseWriter, r *http.Request) {
	var inputs []predict.SupplierInput
	if !h.decodeJSON(w, r, &inputs) {
		return
	}
	res, err := h.engine.BatchEvaluateSuppliers(r.Context(), inputs)
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, res)
}

func (h *Handlers) apiModelsInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.engine.Models(r.Context())
	if err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, info)
}

func (h *Handlers) apiReloadModels(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ReloadModels(r.Context()); err != nil {
		h.jsonFail(w, err)
		return
	}
	h.jsonOK(w, map[string]string{"status": "success", "message": "Models reloaded"})
}
