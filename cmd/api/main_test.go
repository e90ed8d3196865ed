package main

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runServer err: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServer did not stop after cancel")
	}
}

func TestRunServerReturnsListenError(t *testing.T) {
	srv := &http.Server{Addr: "bad address", Handler: http.NotFoundHandler()}
	if err := runServer(context.Background(), srv); err == nil {
		t.Fatal("expected listen error")
	}
}
