package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.settings.Rates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRates(e, rates) })
}

// updateRates stores both rates. Values that are not non-negative numbers
// fall back to the defaults rather than failing the request.
func (h *Handler) updateRates(w http.ResponseWriter, r *http.Request) {
	var tax, service string
	err := decodeBody(w, r, fieldDecoders{
		"tax_rate":     decodeString(&tax),
		"service_rate": decodeString(&service),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	rates, err := h.settings.UpdateRates(r.Context(), tax, service)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRates(e, rates) })
}
