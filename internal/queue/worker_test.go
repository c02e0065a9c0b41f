package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"nil headers", nil, 0},
		{"missing key", amqp.Table{}, 0},
		{"int32", amqp.Table{"x-retry-count": int32(2)}, 2},
		{"int64", amqp.Table{"x-retry-count": int64(3)}, 3},
		{"int", amqp.Table{"x-retry-count": 4}, 4},
		{"wrong type", amqp.Table{"x-retry-count": "5"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.want {
				t.Fatalf("getRetryCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Fatal("empty string must map to nil")
	}
	got := nullIfEmpty("ORD-1")
	if got == nil || *got != "ORD-1" {
		t.Fatalf("nullIfEmpty(\"ORD-1\") = %v", got)
	}
}
