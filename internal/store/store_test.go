package store

import (
	"context"
	"testing"
)

func TestDBHealthyNilGuards(t *testing.T) {
	var d *DB
	if d.Healthy(context.Background()) {
		t.Error("nil DB reported healthy")
	}
	if (&DB{}).Healthy(context.Background()) {
		t.Error("DB without client reported healthy")
	}
}

func TestRedisHealthyNilGuards(t *testing.T) {
	var r *Redis
	if r.Healthy(context.Background()) {
		t.Error("nil Redis reported healthy")
	}
	if (&Redis{}).Healthy(context.Background()) {
		t.Error("Redis without client reported healthy")
	}
}
