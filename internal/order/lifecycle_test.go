package order

import "testing"

func TestIsValidTransition(t *testing.T) {
	cases := []struct {
		name    string
		current string
		next    string
		allowed bool
	}{
		{"pending to preparing", StatusPending, StatusPreparing, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending skips to ready", StatusPending, StatusReady, false},
		{"preparing to ready", StatusPreparing, StatusReady, true},
		{"preparing to cancelled", StatusPreparing, StatusCancelled, true},
		{"ready to completed", StatusReady, StatusCompleted, true},
		{"ready cannot cancel", StatusReady, StatusCancelled, false},
		{"completed is terminal", StatusCompleted, StatusPending, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"cancelled cannot complete", StatusCancelled, StatusCompleted, false},
		{"no self transition", StatusPreparing, StatusPreparing, false},
		{"unknown current", "shipped", StatusCompleted, false},
		{"unknown next", StatusPending, "shipped", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidTransition(tc.current, tc.next); got != tc.allowed {
				t.Fatalf("IsValidTransition(%q, %q) = %v, want %v", tc.current, tc.next, got, tc.allowed)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusCancelled} {
		if !IsTerminal(status) {
			t.Fatalf("expected %s to be terminal", status)
		}
		for _, next := range []string{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled} {
			if IsValidTransition(status, next) {
				t.Fatalf("terminal status %s must not transition to %s", status, next)
			}
		}
	}
}

func TestCanCancel(t *testing.T) {
	if !CanCancel(StatusPending) {
		t.Fatal("pending orders must be cancellable")
	}
	for _, status := range []string{StatusPreparing, StatusReady, StatusCompleted, StatusCancelled} {
		if CanCancel(status) {
			t.Fatalf("%s orders must not be cancellable", status)
		}
	}
}

func TestCompletionAllowed(t *testing.T) {
	slip := "slip_42.jpg"
	blank := "  "

	cases := []struct {
		name      string
		statusPay string
		slip      *string
		wantErr   error
	}{
		{"cash", PayCash, nil, nil},
		{"transfer with slip", PayTransfer, &slip, nil},
		{"transfer without slip", PayTransfer, nil, ErrMissingSlip},
		{"transfer with blank slip", PayTransfer, &blank, ErrMissingSlip},
		{"unpaid", PayUncash, nil, ErrNotPaid},
		{"garbage", "voucher", nil, ErrUnknownStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CompletionAllowed(tc.statusPay, tc.slip); got != tc.wantErr {
				t.Fatalf("CompletionAllowed(%q) = %v, want %v", tc.statusPay, got, tc.wantErr)
			}
		})
	}
}

func TestTotalPrice(t *testing.T) {
	cases := []struct {
		name  string
		items []ItemInput
		want  float64
	}{
		{
			name: "two items",
			items: []ItemInput{
				{MenuID: 1, Price: 50, Quantity: 2},
				{MenuID: 2, Price: 30, Quantity: 1},
			},
			want: 130,
		},
		{
			name:  "zero quantity counts as one",
			items: []ItemInput{{MenuID: 1, Price: 25.5, Quantity: 0}},
			want:  25.5,
		},
		{
			name: "fractional prices round to cents",
			items: []ItemInput{
				{MenuID: 1, Price: 19.99, Quantity: 3},
				{MenuID: 2, Price: 0.01, Quantity: 1},
			},
			want: 59.98,
		},
		{
			name:  "empty order",
			items: nil,
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TotalPrice(tc.items); got != tc.want {
				t.Fatalf("TotalPrice = %v, want %v", got, tc.want)
			}
		})
	}
}
