package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro-pos/internal/domain/menu"
)

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	f := menu.ItemFilter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, badRequest(errors.Errorf("invalid category_id %q", raw)))
			return
		}
		f.CategoryID = &id
	}

	items, err := h.menu.Items(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encodeMenuItem(e, it)
			}
		})
	})
}

func decodeItemInput(w http.ResponseWriter, r *http.Request) (menu.ItemInput, error) {
	in := menu.ItemInput{Available: true}
	err := decodeBody(w, r, fieldDecoders{
		"name":        decodeString(&in.Name),
		"category_id": decodeOptID(&in.CategoryID),
		"price":       decodeDecimal(&in.Price),
		"available":   decodeBool(&in.Available),
		"description": decodeString(&in.Description),
	})
	return in, err
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	in, err := decodeItemInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.menu.CreateItem(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := decodeItemInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	it, err := h.menu.UpdateItem(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeMenuItem(e, *it) })
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.menu.DeleteItem(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.menu.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range cats {
				encodeCategory(e, c)
			}
		})
	})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var name string
	if err := decodeBody(w, r, fieldDecoders{"name": decodeString(&name)}); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.menu.CreateCategory(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeCategory(e, *c) })
}

func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var name string
	if err := decodeBody(w, r, fieldDecoders{"name": decodeString(&name)}); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.menu.RenameCategory(r.Context(), id, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCategory(e, *c) })
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.menu.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.menu.Tables(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, t := range tables {
				encodeTable(e, t)
			}
		})
	})
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var (
		label string
		seats = 4
	)
	err := decodeBody(w, r, fieldDecoders{
		"label": decodeString(&label),
		"seats": decodeInt(&seats),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.menu.CreateTable(r.Context(), label, seats)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeTable(e, *t) })
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.menu.DeleteTable(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
