package handlers

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tableside-order-service/internal/config"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{130, 130},
		{59.975, 59.98},
		{0.005, 0.01},
		{-1.005, -1},
		{0, 0},
	}
	for _, tc := range cases {
		if got := round2(tc.in); got != tc.want {
			t.Fatalf("round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestUploadFilename(t *testing.T) {
	name := uploadFilename("menu", ".JPG")
	if !strings.HasPrefix(name, "menu_") {
		t.Fatalf("unexpected prefix: %q", name)
	}
	if !strings.HasSuffix(name, ".JPG") {
		t.Fatalf("expected extension to be kept: %q", name)
	}

	fallback := uploadFilename("slip", "  ")
	if !strings.HasSuffix(fallback, ".jpg") {
		t.Fatalf("expected jpg fallback: %q", fallback)
	}

	if uploadFilename("a", "png") == uploadFilename("a", "png") {
		t.Fatal("two generated filenames must not collide")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ORD-2026/08/28", "ORD-2026_08_28"},
		{"../etc/passwd", "etc_passwd"},
		{"simple", "simple"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTableOrderURL(t *testing.T) {
	h := &Handler{Config: config.Config{TableQRBaseURL: "https://menu.example.com/"}}
	got := h.tableOrderURL("5")
	want := "https://menu.example.com/user-home/table/5/order"
	if got != want {
		t.Fatalf("tableOrderURL = %q, want %q", got, want)
	}
}

func TestUploadURL(t *testing.T) {
	h := &Handler{Config: config.Config{PublicBaseURL: "http://localhost:3000/"}}
	got := h.uploadURL("qrcode/table_5.png")
	want := "http://localhost:3000/uploads/qrcode/table_5.png"
	if got != want {
		t.Fatalf("uploadURL = %q, want %q", got, want)
	}
}

func TestMenuThumbKey(t *testing.T) {
	if got := menuThumbKey("food/menu_1756350000000-ab12cd34.jpg"); got != "food/thumbs/menu_1756350000000-ab12cd34.jpg" {
		t.Fatalf("menuThumbKey = %q", got)
	}
}

func TestMenuImageURLSetsThumbnail(t *testing.T) {
	h := &Handler{Config: config.Config{PublicBaseURL: "http://localhost:3000"}}
	key := "food/menu_1.jpg"
	item := menuItem{MenuImage: &key}
	h.menuImageURL(&item)

	if item.ImageURL == nil || *item.ImageURL != "http://localhost:3000/uploads/food/menu_1.jpg" {
		t.Fatalf("image url = %v", item.ImageURL)
	}
	if item.ThumbnailURL == nil || *item.ThumbnailURL != "http://localhost:3000/uploads/food/thumbs/menu_1.jpg" {
		t.Fatalf("thumbnail url = %v", item.ThumbnailURL)
	}

	var noImage menuItem
	h.menuImageURL(&noImage)
	if noImage.ImageURL != nil || noImage.ThumbnailURL != nil {
		t.Fatal("item without an image must not get urls")
	}
}

func TestReadMenuForm(t *testing.T) {
	cases := []struct {
		name    string
		values  url.Values
		wantMsg bool
		check   func(t *testing.T, input menuFormInput)
	}{
		{
			name: "valid",
			values: url.Values{
				"menu_name":    {"Pad Thai"},
				"price":        {"65.50"},
				"menu_type_id": {"2"},
				"special":      {"true"},
				"detail_menu":  {"Stir-fried noodles"},
			},
			check: func(t *testing.T, input menuFormInput) {
				if input.MenuName != "Pad Thai" || input.Price != 65.5 || input.MenuTypeID != 2 {
					t.Fatalf("unexpected input: %+v", input)
				}
				if !input.Special {
					t.Fatal("expected special to be true")
				}
				if input.DetailMenu == nil || *input.DetailMenu != "Stir-fried noodles" {
					t.Fatalf("unexpected detail: %v", input.DetailMenu)
				}
			},
		},
		{
			name: "special defaults to available",
			values: url.Values{
				"menu_name":    {"Tom Yum"},
				"price":        {"80"},
				"menu_type_id": {"1"},
			},
			check: func(t *testing.T, input menuFormInput) {
				if !input.Special {
					t.Fatal("missing special flag must default to available")
				}
				if input.DetailMenu != nil {
					t.Fatal("blank detail must stay nil")
				}
			},
		},
		{
			name: "special off",
			values: url.Values{
				"menu_name":    {"Tom Yum"},
				"price":        {"80"},
				"menu_type_id": {"1"},
				"special":      {"false"},
			},
			check: func(t *testing.T, input menuFormInput) {
				if input.Special {
					t.Fatal("expected special to be false")
				}
			},
		},
		{
			name:    "missing name",
			values:  url.Values{"price": {"10"}, "menu_type_id": {"1"}},
			wantMsg: true,
		},
		{
			name:    "negative price",
			values:  url.Values{"menu_name": {"x"}, "price": {"-5"}, "menu_type_id": {"1"}},
			wantMsg: true,
		},
		{
			name:    "bad type id",
			values:  url.Values{"menu_name": {"x"}, "price": {"5"}, "menu_type_id": {"zero"}},
			wantMsg: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/owner/menu", strings.NewReader(tc.values.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			input, msg := readMenuForm(r)
			if tc.wantMsg {
				if msg == "" {
					t.Fatal("expected a validation message")
				}
				return
			}
			if msg != "" {
				t.Fatalf("unexpected validation message: %q", msg)
			}
			if tc.check != nil {
				tc.check(t, input)
			}
		})
	}
}
