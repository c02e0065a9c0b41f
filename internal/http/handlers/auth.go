package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tableside-order-service/internal/auth"
	"tableside-order-service/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type loginPayload struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if err := validate.Struct(payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	var (
		userID       int64
		passwordHash string
		role         string
	)
	err := h.DB.QueryRow(ctx, `
		select id, password, role
		from users
		where username = $1
	`, payload.Username).Scan(&userID, &passwordHash, &role)
	if err != nil {
		// Same message as a bad password so usernames cannot be probed.
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(payload.Password)); err != nil {
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	userRole := auth.UserRole(role)
	if userRole != auth.RoleOwner && userRole != auth.RoleStaff {
		h.Logger.Error("user has unknown role", zap.Int64("user_id", userID), zap.String("role", role))
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Account role is not permitted to sign in")
		return
	}

	expiry := time.Duration(h.Config.JWTExpirySeconds) * time.Second
	token, err := auth.SignAccessToken(userID, payload.Username, userRole, h.Config.JWTSecret, expiry)
	if err != nil {
		h.Logger.Error("failed to sign access token", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		UserID:    userID,
		Username:  payload.Username,
		Role:      role,
		ExpiresIn: h.Config.JWTExpirySeconds,
	})
}
