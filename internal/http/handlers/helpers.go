package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"tableside-order-service/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func textPtr(v pgtype.Text) *string {
	if v.Valid {
		return &v.String
	}
	return nil
}

func textOrEmpty(v pgtype.Text) string {
	if v.Valid {
		return v.String
	}
	return ""
}

func numericFloat(v pgtype.Numeric) float64 {
	if !v.Valid {
		return 0
	}
	f, err := v.Float64Value()
	if err != nil {
		return 0
	}
	return f.Float64
}

// todayStart is the restaurant-local midnight; "today" queries filter on
// order_time >= todayStart.
func (h *Handler) todayStart() time.Time {
	return utils.StartOfDayInTimezone(h.Config.RestaurantTimezone, time.Now())
}

func randomSuffix8() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

func uploadFilename(prefix string, ext string) string {
	ext = strings.TrimLeft(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%d-%s.%s", prefix, time.Now().UnixMilli(), randomSuffix8(), ext)
}
