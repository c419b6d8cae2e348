package approval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitForPending(t *testing.T, q *Queue) PendingRequest {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if list := q.List(); len(list) > 0 {
			return list[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no pending request")
	return PendingRequest{}
}

func TestServer_Pending(t *testing.T) {
	q := NewQueue()
	srv := httptest.NewServer(NewServer("", q).Handler())
	defer srv.Close()

	q.Add(&PendingRequest{Prompt: Prompt{RequestID: "r1", Command: "s3 rb s3://x", Profile: "prod"}})

	resp, err := http.Get(srv.URL + "/pending")
	if err != nil {
		t.Fatalf("GET /pending error = %v", err)
	}
	defer resp.Body.Close()

	var body pendingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.Requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(body.Requests))
	}
	got := body.Requests[0]
	if got.Cmd != "s3 rb s3://x" || got.Profile != "prod" || got.RequestID != "r1" {
		t.Errorf("request = %+v", got)
	}
}

func TestServer_NotFound(t *testing.T) {
	srv := httptest.NewServer(NewServer("", NewQueue()).Handler())
	defer srv.Close()

	for _, path := range []string{"/approve/nope", "/deny/nope"} {
		resp, err := http.Post(srv.URL+path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("POST %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestWebConfirmer_Approve(t *testing.T) {
	q := NewQueue()
	srv := httptest.NewServer(NewServer("", q).Handler())
	defer srv.Close()

	result := make(chan bool, 1)
	go func() {
		ok, _ := NewWebConfirmer(q).Confirm(context.Background(), Prompt{Command: "s3 rb s3://x"})
		result <- ok
	}()

	pending := waitForPending(t, q)
	resp, err := http.Post(srv.URL+"/approve/"+pending.ID, "application/json", nil)
	if err != nil {
		t.Fatalf("POST /approve error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if !<-result {
		t.Error("Confirm() = false, want true")
	}
}

func TestWebConfirmer_DenyWithReason(t *testing.T) {
	q := NewQueue()
	srv := httptest.NewServer(NewServer("", q).Handler())
	defer srv.Close()

	g, err := NewGate(GateOptions{Enabled: true, Confirmer: NewWebConfirmer(q)})
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}

	result := make(chan error, 1)
	go func() { result <- g.Await(context.Background(), Prompt{Command: "iam delete-user --user-name x"}) }()

	pending := waitForPending(t, q)
	resp, err := http.Post(srv.URL+"/deny/"+pending.ID, "application/json", strings.NewReader(`{"reason":"not today"}`))
	if err != nil {
		t.Fatalf("POST /deny error = %v", err)
	}
	resp.Body.Close()

	err = <-result
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Await() error = %v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "not today") {
		t.Errorf("error = %v, want deny reason", err)
	}
}

func TestWebConfirmer_CancelRemovesRequest(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := NewWebConfirmer(q).Confirm(ctx, Prompt{Command: "s3 rb s3://x"})
		done <- err
	}()

	waitForPending(t, q)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Confirm() error = %v, want context.Canceled", err)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after cancellation", q.Len())
	}
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewQueue())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start() should fail")
	}

	resp, err := http.Get("http://" + s.ListenAddr() + "/pending")
	if err != nil {
		t.Fatalf("GET /pending error = %v", err)
	}
	resp.Body.Close()

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
