package services_test

import (
	"context"
	"testing"

	"moviebox/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithMovieID(ctx, 673)
	ctx = services.WithOperation(ctx, "reload_card")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.MovieIDFromContext(ctx); !ok || id != 673 {
		t.Fatalf("unexpected movie id: %v %v", id, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "reload_card" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestOperationBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
