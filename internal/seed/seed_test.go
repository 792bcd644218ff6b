package seed

import (
	"context"
	"testing"

	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/pricing"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := kv.NewMemory()

	for range 2 {
		if _, err := Apply(ctx, repo, logger.Nop()); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	designs := history.New(repo, domain.ToolBirthPoster, logger.Nop()).Load(ctx)
	if len(designs) != 3 {
		t.Fatalf("expected 3 demo designs, got %d", len(designs))
	}
	counts := map[int]bool{}
	for _, d := range designs {
		counts[d.State.BabyCount] = true
		if _, err := pricing.Quote(d.State); err != nil {
			t.Fatalf("%s should be priced: %v", d.ID, err)
		}
	}
	if !counts[1] || !counts[2] || !counts[3] {
		t.Fatalf("expected designs with 1, 2 and 3 babies, got %v", counts)
	}
}
