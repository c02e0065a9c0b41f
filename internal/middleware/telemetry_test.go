package middleware

import "testing"

func TestPercentile(t *testing.T) {
	values := []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	cases := []struct {
		name string
		p    float64
		want int64
	}{
		{"p50", 0.5, 50},
		{"p95", 0.95, 100},
		{"p0 clamps to min", 0, 10},
		{"p1 clamps to max", 1, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := percentile(values, tc.p); got != tc.want {
				t.Fatalf("percentile(%v) = %d, want %d", tc.p, got, tc.want)
			}
		})
	}

	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("percentile of empty slice = %d, want 0", got)
	}
}

func TestLatencyWindowWraps(t *testing.T) {
	w := &latencyWindow{}
	for i := int64(1); i <= 5; i++ {
		w.add(i, 3)
	}

	values := w.snapshot()
	if len(values) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(values))
	}

	var sum int64
	for _, v := range values {
		sum += v
	}
	// Window of 3 after 1..5: the three most recent values 3, 4, 5.
	if sum != 12 {
		t.Fatalf("window contents sum = %d, want 12", sum)
	}
}

func TestLatencyAggregatorPerRoute(t *testing.T) {
	a := newLatencyAggregator(10)

	for _, v := range []int64{5, 10, 15} {
		a.record("GET /api/staff/orders/all", v)
	}
	p50, p95 := a.record("GET /api/staff/orders/all", 20)
	if p50 != 10 || p95 != 20 {
		t.Fatalf("p50, p95 = %d, %d; want 10, 20", p50, p95)
	}

	// A different route starts from an empty window.
	p50, p95 = a.record("POST /api/user/order", 7)
	if p50 != 7 || p95 != 7 {
		t.Fatalf("fresh route p50, p95 = %d, %d; want 7, 7", p50, p95)
	}
}
