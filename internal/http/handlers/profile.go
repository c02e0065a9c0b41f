package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tableside-order-service/internal/middleware"
	"tableside-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type profileView struct {
	ID          int64   `json:"id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Username    string  `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	Role        string  `json:"role"`
}

type updateProfilePayload struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

// ProfileGet returns the signed-in user's profile; shared by the owner and
// staff route groups.
func (h *Handler) ProfileGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var (
		view  profileView
		phone pgtype.Text
	)
	err := h.DB.QueryRow(ctx, `
		select id, first_name, last_name, username, phone_number, role
		from users
		where id = $1
	`, authCtx.UserID).Scan(&view.ID, &view.FirstName, &view.LastName, &view.Username, &phone, &view.Role)
	if err != nil {
		response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	view.PhoneNumber = textPtr(phone)

	response.JSON(w, http.StatusOK, view)
}

func (h *Handler) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization token required")
		return
	}

	var payload updateProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if payload.Username != nil {
		username := strings.TrimSpace(*payload.Username)
		if username == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username cannot be blank")
			return
		}
		var taken bool
		if err := h.DB.QueryRow(ctx,
			"select exists(select 1 from users where username = $1 and id <> $2)",
			username, authCtx.UserID,
		).Scan(&taken); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
			return
		}
		if taken {
			response.Error(w, http.StatusConflict, "USERNAME_TAKEN", "Username is already in use")
			return
		}
		payload.Username = &username
	}

	if payload.PhoneNumber != nil && strings.TrimSpace(*payload.PhoneNumber) != "" {
		phone := strings.TrimSpace(*payload.PhoneNumber)
		var taken bool
		if err := h.DB.QueryRow(ctx,
			"select exists(select 1 from users where phone_number = $1 and id <> $2)",
			phone, authCtx.UserID,
		).Scan(&taken); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
			return
		}
		if taken {
			response.Error(w, http.StatusConflict, "PHONE_TAKEN", "Phone number is already in use")
			return
		}
		payload.PhoneNumber = &phone
	}

	var passwordHash *string
	if payload.Password != nil {
		if len(strings.TrimSpace(*payload.Password)) < 6 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Password must be at least 6 characters")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), bcrypt.DefaultCost)
		if err != nil {
			h.Logger.Error("failed to hash password", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
			return
		}
		v := string(hashed)
		passwordHash = &v
	}

	var (
		view  profileView
		phone pgtype.Text
	)
	err := h.DB.QueryRow(ctx, `
		update users
		set first_name   = coalesce($2, first_name),
		    last_name    = coalesce($3, last_name),
		    username     = coalesce($4, username),
		    phone_number = coalesce($5, phone_number),
		    password     = coalesce($6, password),
		    updated_at   = now()
		where id = $1
		returning id, first_name, last_name, username, phone_number, role
	`, authCtx.UserID, payload.FirstName, payload.LastName, payload.Username, payload.PhoneNumber, passwordHash).
		Scan(&view.ID, &view.FirstName, &view.LastName, &view.Username, &phone, &view.Role)
	if err != nil {
		h.Logger.Error("failed to update profile", zap.Int64("user_id", authCtx.UserID), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update profile")
		return
	}
	view.PhoneNumber = textPtr(phone)

	response.JSON(w, http.StatusOK, view)
}
