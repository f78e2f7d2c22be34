package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"podmatch/internal/pods"
)

func TestPodAssigned(t *testing.T) {
	var got podAssignedPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hooks/pods" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	pod := pods.Pod{ID: "pod-tempe-1", Zone: "Tempe", MemberIDs: []string{"a", "b"}}
	if err := c.PodAssigned(context.Background(), pod); err != nil {
		t.Fatalf("PodAssigned: %v", err)
	}
	if got.Event != "pod.assigned" || got.Pod.ID != "pod-tempe-1" {
		t.Errorf("payload = %+v", got)
	}
}

func TestPodAssigned_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, false)
	if err := c.PodAssigned(context.Background(), pods.Pod{ID: "x"}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestPodAssigned_SkipIsNoop(t *testing.T) {
	c := New("http://127.0.0.1:1", true)
	if err := c.PodAssigned(context.Background(), pods.Pod{ID: "x"}); err != nil {
		t.Errorf("skip client should not dial: %v", err)
	}
}
