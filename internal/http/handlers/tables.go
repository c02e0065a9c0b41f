package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tableside-order-service/pkg/response"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const tableQRSize = 512

type tableView struct {
	ID          int64   `json:"table_id"`
	TableNumber string  `json:"table_number"`
	TableName   string  `json:"table_name"`
	QRCodeImage string  `json:"qrcode_image"`
	QRCodeURL   string  `json:"qrcode_url"`
	OrderURL    *string `json:"order_url,omitempty"`
}

type tablePayload struct {
	TableNumber string `json:"table_number"`
	TableName   string `json:"table_name"`
}

// tableOrderURL is the address baked into the QR code: the customer-facing
// ordering page for one table.
func (h *Handler) tableOrderURL(tableNumber string) string {
	base := strings.TrimRight(h.Config.TableQRBaseURL, "/")
	return fmt.Sprintf("%s/user-home/table/%s/order", base, tableNumber)
}

func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select table_id, table_number, table_name, qrcode_image from tables order by table_id`)
	if err != nil {
		h.Logger.Error("failed to list tables", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve tables")
		return
	}
	defer rows.Close()

	items := make([]tableView, 0)
	for rows.Next() {
		var t tableView
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.TableName, &t.QRCodeImage); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retrieve tables")
			return
		}
		t.QRCodeURL = h.uploadURL(t.QRCodeImage)
		items = append(items, t)
	}

	response.JSON(w, http.StatusOK, items)
}

func (h *Handler) TablesCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload tablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	number := strings.TrimSpace(payload.TableNumber)
	name := strings.TrimSpace(payload.TableName)
	if number == "" || name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number and table name are required")
		return
	}

	var taken bool
	if err := h.DB.QueryRow(ctx,
		"select exists(select 1 from tables where table_number = $1 or table_name = $2)",
		number, name,
	).Scan(&taken); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create table")
		return
	}
	if taken {
		response.Error(w, http.StatusConflict, "TABLE_EXISTS", "Table number or table name is already in use")
		return
	}

	orderURL := h.tableOrderURL(number)
	png, err := qrcode.Encode(orderURL, qrcode.Medium, tableQRSize)
	if err != nil {
		h.Logger.Error("failed to encode table qr", zap.String("table_number", number), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate QR code")
		return
	}

	key := "qrcode/" + uploadFilename("table_"+number, "png")
	if err := h.saveUpload(ctx, key, png, "image/png"); err != nil {
		h.Logger.Error("failed to store table qr", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store QR code")
		return
	}

	var tableID int64
	err = h.DB.QueryRow(ctx, `
		insert into tables (table_number, table_name, qrcode_image)
		values ($1, $2, $3)
		returning table_id
	`, number, name, key).Scan(&tableID)
	if err != nil {
		h.removeUpload(ctx, key)
		h.Logger.Error("failed to create table", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create table")
		return
	}

	view := tableView{
		ID:          tableID,
		TableNumber: number,
		TableName:   name,
		QRCodeImage: key,
		QRCodeURL:   h.uploadURL(key),
		OrderURL:    &orderURL,
	}
	response.JSON(w, http.StatusCreated, view)
}

func (h *Handler) TablesUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	var payload tablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	number := strings.TrimSpace(payload.TableNumber)
	name := strings.TrimSpace(payload.TableName)
	if number == "" || name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number and table name are required")
		return
	}

	var (
		oldNumber string
		oldQR     string
	)
	if err := h.DB.QueryRow(ctx,
		"select table_number, qrcode_image from tables where table_id = $1", tableID,
	).Scan(&oldNumber, &oldQR); err != nil {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	var taken bool
	if err := h.DB.QueryRow(ctx,
		"select exists(select 1 from tables where (table_number = $1 or table_name = $2) and table_id <> $3)",
		number, name, tableID,
	).Scan(&taken); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update table")
		return
	}
	if taken {
		response.Error(w, http.StatusConflict, "TABLE_EXISTS", "Table number or table name is already in use")
		return
	}

	// The QR encodes the table number, so a renumber regenerates it.
	qrKey := oldQR
	if number != oldNumber {
		png, err := qrcode.Encode(h.tableOrderURL(number), qrcode.Medium, tableQRSize)
		if err != nil {
			h.Logger.Error("failed to encode table qr", zap.String("table_number", number), zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate QR code")
			return
		}
		qrKey = "qrcode/" + uploadFilename("table_"+number, "png")
		if err := h.saveUpload(ctx, qrKey, png, "image/png"); err != nil {
			h.Logger.Error("failed to store table qr", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to store QR code")
			return
		}
	}

	_, err = h.DB.Exec(ctx,
		"update tables set table_number = $2, table_name = $3, qrcode_image = $4 where table_id = $1",
		tableID, number, name, qrKey,
	)
	if err != nil {
		h.Logger.Error("failed to update table", zap.Int64("table_id", tableID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update table")
		return
	}

	if qrKey != oldQR {
		h.removeUpload(ctx, oldQR)
	}

	orderURL := h.tableOrderURL(number)
	response.JSON(w, http.StatusOK, tableView{
		ID:          tableID,
		TableNumber: number,
		TableName:   name,
		QRCodeImage: qrKey,
		QRCodeURL:   h.uploadURL(qrKey),
		OrderURL:    &orderURL,
	})
}

func (h *Handler) TablesDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableID, err := readPathInt64(r, "tableId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	var qr string
	err = h.DB.QueryRow(ctx,
		"delete from tables where table_id = $1 returning qrcode_image", tableID,
	).Scan(&qr)
	if err != nil {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	h.removeUpload(ctx, qr)
	response.Success(w, map[string]any{"table_id": tableID})
}

// CheckTable validates a scanned QR before the customer lands on the ordering
// page.
func (h *Handler) CheckTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber := strings.TrimSpace(readPathString(r, "tableNumber"))
	if tableNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}

	var (
		tableID   int64
		tableName string
	)
	err := h.DB.QueryRow(ctx,
		"select table_id, table_name from tables where table_number = $1", tableNumber,
	).Scan(&tableID, &tableName)
	if err != nil {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"table_id":     tableID,
		"table_number": tableNumber,
		"table_name":   tableName,
	})
}
