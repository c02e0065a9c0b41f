package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tableside-order-service/pkg/response"

	"go.uber.org/zap"
)

type menuType struct {
	ID       int64  `json:"menu_type_id"`
	TypeName string `json:"type_name"`
}

type menuTypePayload struct {
	TypeName string `json:"type_name"`
}

func (h *Handler) MenuTypesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select menu_type_id, type_name from menu_type order by menu_type_id`)
	if err != nil {
		h.Logger.Error("failed to list menu types", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu types")
		return
	}
	defer rows.Close()

	items := make([]menuType, 0)
	for rows.Next() {
		var mt menuType
		if err := rows.Scan(&mt.ID, &mt.TypeName); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu types")
			return
		}
		items = append(items, mt)
	}

	response.JSON(w, http.StatusOK, items)
}

func (h *Handler) MenuTypesCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload menuTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	name := strings.TrimSpace(payload.TypeName)
	if name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Type name is required")
		return
	}

	var exists bool
	if err := h.DB.QueryRow(ctx, "select exists(select 1 from menu_type where type_name = $1)", name).Scan(&exists); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu type")
		return
	}
	if exists {
		response.Error(w, http.StatusConflict, "TYPE_EXISTS", "Menu type already exists")
		return
	}

	var mt menuType
	err := h.DB.QueryRow(ctx,
		"insert into menu_type (type_name) values ($1) returning menu_type_id, type_name",
		name,
	).Scan(&mt.ID, &mt.TypeName)
	if err != nil {
		h.Logger.Error("failed to create menu type", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu type")
		return
	}

	response.JSON(w, http.StatusCreated, mt)
}

func (h *Handler) MenuTypesUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID, err := readPathInt64(r, "typeId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu type id")
		return
	}

	var payload menuTypePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	name := strings.TrimSpace(payload.TypeName)
	if name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Type name is required")
		return
	}

	var mt menuType
	err = h.DB.QueryRow(ctx,
		"update menu_type set type_name = $2 where menu_type_id = $1 returning menu_type_id, type_name",
		typeID, name,
	).Scan(&mt.ID, &mt.TypeName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "TYPE_NOT_FOUND", "Menu type not found")
		return
	}

	response.JSON(w, http.StatusOK, mt)
}

func (h *Handler) MenuTypesDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	typeID, err := readPathInt64(r, "typeId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu type id")
		return
	}

	var inUse bool
	if err := h.DB.QueryRow(ctx, "select exists(select 1 from menu where menu_type_id = $1)", typeID).Scan(&inUse); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu type")
		return
	}
	if inUse {
		response.Error(w, http.StatusConflict, "TYPE_IN_USE", "Menu type still has menu items")
		return
	}

	tag, err := h.DB.Exec(ctx, "delete from menu_type where menu_type_id = $1", typeID)
	if err != nil {
		h.Logger.Error("failed to delete menu type", zap.Int64("menu_type_id", typeID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu type")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TYPE_NOT_FOUND", "Menu type not found")
		return
	}

	response.Success(w, map[string]any{"menu_type_id": typeID})
}
