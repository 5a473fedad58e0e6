package services_test

import (
	"context"
	"testing"

	"hirepipe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, 7)
	ctx = services.WithApplicationID(ctx, 42)
	ctx = services.WithStage(ctx, 2)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if id, ok := services.ApplicationIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected application id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != 2 {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestZeroStagePreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, 0)
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
