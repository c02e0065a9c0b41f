package handlers

import (
	"context"
	"net/http"
	"path"
	"strconv"
	"strings"

	"tableside-order-service/internal/utils"
	"tableside-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const (
	menuImageMaxSide = 1200
	menuThumbSize    = 400
)

type menuItem struct {
	ID           int64   `json:"menu_id"`
	MenuName     string  `json:"menu_name"`
	Price        float64 `json:"price"`
	Special      bool    `json:"special"`
	DetailMenu   *string `json:"detail_menu"`
	MenuTypeID   int64   `json:"menu_type_id"`
	TypeName     string  `json:"type_name"`
	MenuImage    *string `json:"menu_image"`
	ImageURL     *string `json:"image_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

// menuThumbKey derives the thumbnail key from the main image key, so the pair
// always travels together without a second column.
func menuThumbKey(imageKey string) string {
	return "food/thumbs/" + path.Base(imageKey)
}

func (h *Handler) menuImageURL(item *menuItem) {
	if item.MenuImage != nil && *item.MenuImage != "" {
		url := h.uploadURL(*item.MenuImage)
		item.ImageURL = &url
		thumb := h.uploadURL(menuThumbKey(*item.MenuImage))
		item.ThumbnailURL = &thumb
	}
}

func (h *Handler) scanMenuRows(w http.ResponseWriter, r *http.Request, query string, args ...any) ([]menuItem, bool) {
	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		h.Logger.Error("failed to query menu", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu")
		return nil, false
	}
	defer rows.Close()

	items := make([]menuItem, 0)
	for rows.Next() {
		var (
			item   menuItem
			price  pgtype.Numeric
			detail pgtype.Text
			img    pgtype.Text
		)
		if err := rows.Scan(&item.ID, &item.MenuName, &price, &item.Special, &detail, &item.MenuTypeID, &item.TypeName, &img); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve menu")
			return nil, false
		}
		item.Price = numericFloat(price)
		item.DetailMenu = textPtr(detail)
		item.MenuImage = textPtr(img)
		h.menuImageURL(&item)
		items = append(items, item)
	}
	return items, true
}

const menuSelect = `
	select m.menu_id, m.menu_name, m.price, m.special, m.detail_menu, m.menu_type_id, mt.type_name, m.menu_image
	from menu m
	join menu_type mt on mt.menu_type_id = m.menu_type_id
`

func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	items, ok := h.scanMenuRows(w, r, menuSelect+" order by m.menu_id")
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, items)
}

// UserMenuList is the customer-facing browse endpoint; only available items.
func (h *Handler) UserMenuList(w http.ResponseWriter, r *http.Request) {
	items, ok := h.scanMenuRows(w, r, menuSelect+" where m.special order by m.menu_type_id, m.menu_id")
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, items)
}

type menuFormInput struct {
	MenuName   string
	Price      float64
	Special    bool
	DetailMenu *string
	MenuTypeID int64
}

func readMenuForm(r *http.Request) (menuFormInput, string) {
	var input menuFormInput

	input.MenuName = strings.TrimSpace(r.FormValue("menu_name"))
	if input.MenuName == "" {
		return input, "Menu name is required"
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64)
	if err != nil || price < 0 {
		return input, "Price must be a non-negative number"
	}
	input.Price = round2(price)

	typeID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("menu_type_id")), 10, 64)
	if err != nil || typeID <= 0 {
		return input, "Menu type is required"
	}
	input.MenuTypeID = typeID

	switch strings.ToLower(strings.TrimSpace(r.FormValue("special"))) {
	case "", "true", "1", "yes":
		input.Special = true
	default:
		input.Special = false
	}

	if detail := strings.TrimSpace(r.FormValue("detail_menu")); detail != "" {
		input.DetailMenu = &detail
	}

	return input, ""
}

// readMenuImage pulls the optional menu_image file out of the multipart form
// and normalizes it to a bounded JPEG plus a square thumbnail.
func (h *Handler) readMenuImage(w http.ResponseWriter, r *http.Request) ([]byte, []byte, bool, bool) {
	data, _, _, ferr := readFileBytes(r, "menu_image", true, h.Config.MaxFileSizeBytes)
	if ferr != nil {
		if ferr.Kind == fileReadErrMissing {
			return nil, nil, false, true
		}
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", ferr.Message)
		return nil, nil, false, false
	}

	jpegBytes, _, err := utils.EncodeJpegFitInside(data, menuImageMaxSide, 85)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not decode the uploaded image")
		return nil, nil, false, false
	}
	thumbBytes, _, err := utils.EncodeJpegCoverSquare(data, menuThumbSize, 85)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_FILE", "Could not decode the uploaded image")
		return nil, nil, false, false
	}
	return jpegBytes, thumbBytes, true, true
}

// saveMenuImage stores the normalized image and its thumbnail under the
// derived key pair.
func (h *Handler) saveMenuImage(w http.ResponseWriter, r *http.Request, key string, jpegBytes, thumbBytes []byte) bool {
	ctx := r.Context()
	if err := h.saveUpload(ctx, key, jpegBytes, "image/jpeg"); err != nil {
		h.Logger.Error("failed to store menu image", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store menu image")
		return false
	}
	if err := h.saveUpload(ctx, menuThumbKey(key), thumbBytes, "image/jpeg"); err != nil {
		h.removeUpload(ctx, key)
		h.Logger.Error("failed to store menu thumbnail", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store menu image")
		return false
	}
	return true
}

func (h *Handler) removeMenuImage(ctx context.Context, key string) {
	h.removeUpload(ctx, key)
	h.removeUpload(ctx, menuThumbKey(key))
}

func (h *Handler) MenuCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, msg := readMenuForm(r)
	if msg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	var typeExists bool
	if err := h.DB.QueryRow(ctx, "select exists(select 1 from menu_type where menu_type_id = $1)", input.MenuTypeID).Scan(&typeExists); err != nil || !typeExists {
		response.Error(w, http.StatusNotFound, "TYPE_NOT_FOUND", "Menu type not found")
		return
	}

	jpegBytes, thumbBytes, hasImage, ok := h.readMenuImage(w, r)
	if !ok {
		return
	}

	var imageKey *string
	if hasImage {
		key := "food/" + uploadFilename("menu", "jpg")
		if !h.saveMenuImage(w, r, key, jpegBytes, thumbBytes) {
			return
		}
		imageKey = &key
	}

	var menuID int64
	err := h.DB.QueryRow(ctx, `
		insert into menu (menu_name, price, special, detail_menu, menu_type_id, menu_image)
		values ($1, $2, $3, $4, $5, $6)
		returning menu_id
	`, input.MenuName, input.Price, input.Special, input.DetailMenu, input.MenuTypeID, imageKey).Scan(&menuID)
	if err != nil {
		if imageKey != nil {
			h.removeMenuImage(ctx, *imageKey)
		}
		h.Logger.Error("failed to create menu", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu")
		return
	}

	item := menuItem{
		ID:         menuID,
		MenuName:   input.MenuName,
		Price:      input.Price,
		Special:    input.Special,
		DetailMenu: input.DetailMenu,
		MenuTypeID: input.MenuTypeID,
		MenuImage:  imageKey,
	}
	h.menuImageURL(&item)
	response.JSON(w, http.StatusCreated, item)
}

func (h *Handler) MenuUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	menuID, err := readPathInt64(r, "menuId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	var oldImage pgtype.Text
	if err := h.DB.QueryRow(ctx, "select menu_image from menu where menu_id = $1", menuID).Scan(&oldImage); err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	input, msg := readMenuForm(r)
	if msg != "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}

	jpegBytes, thumbBytes, hasImage, ok := h.readMenuImage(w, r)
	if !ok {
		return
	}

	imageKey := textPtr(oldImage)
	if hasImage {
		key := "food/" + uploadFilename("menu", "jpg")
		if !h.saveMenuImage(w, r, key, jpegBytes, thumbBytes) {
			return
		}
		imageKey = &key
	}

	_, err = h.DB.Exec(ctx, `
		update menu
		set menu_name = $2, price = $3, special = $4, detail_menu = $5, menu_type_id = $6, menu_image = $7
		where menu_id = $1
	`, menuID, input.MenuName, input.Price, input.Special, input.DetailMenu, input.MenuTypeID, imageKey)
	if err != nil {
		h.Logger.Error("failed to update menu", zap.Int64("menu_id", menuID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update menu")
		return
	}

	// Replaced image: drop the old pair once the row points at the new one.
	if hasImage && oldImage.Valid && oldImage.String != "" {
		h.removeMenuImage(ctx, oldImage.String)
	}

	item := menuItem{
		ID:         menuID,
		MenuName:   input.MenuName,
		Price:      input.Price,
		Special:    input.Special,
		DetailMenu: input.DetailMenu,
		MenuTypeID: input.MenuTypeID,
		MenuImage:  imageKey,
	}
	h.menuImageURL(&item)
	response.JSON(w, http.StatusOK, item)
}

func (h *Handler) MenuDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	menuID, err := readPathInt64(r, "menuId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu id")
		return
	}

	var referenced bool
	if err := h.DB.QueryRow(ctx, `
		select exists(select 1 from order_items where menu_id = $1)
		    or exists(select 1 from pending_order_items where menu_id = $1)
	`, menuID).Scan(&referenced); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu")
		return
	}
	if referenced {
		response.Error(w, http.StatusConflict, "MENU_IN_USE", "Menu has been ordered and cannot be deleted")
		return
	}

	var image pgtype.Text
	err = h.DB.QueryRow(ctx,
		"delete from menu where menu_id = $1 returning menu_image", menuID,
	).Scan(&image)
	if err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	if image.Valid && image.String != "" {
		h.removeMenuImage(ctx, image.String)
	}

	response.Success(w, map[string]any{"menu_id": menuID})
}
