package importer

import (
	"context"
	"strings"
	"testing"

	"posterstudio/internal/domain"
	"posterstudio/internal/logger"
	"posterstudio/internal/repository/kv"
	"posterstudio/internal/service/history"
)

func TestJSONImporter_Run(t *testing.T) {
	data := `[
		{"id":"a","tool":"birth-poster","name":"Ana","updatedAt":"2024-05-01T10:00:00Z","state":{"babyCount":1}},
		{"id":"b","tool":"star-map","name":"Cielo","updatedAt":"2024-05-02T10:00:00Z","state":{}},
		{"id":"","tool":"birth-poster"},
		{"id":"c","tool":"sudoku"},
		"not a design",
		{"id":"d","tool":"birth-poster","name":"Gemelos","updatedAt":"2024-06-01T10:00:00Z","state":{"babyCount":2}}
	]`

	repo := kv.NewMemory()
	imp := NewJSONImporter(strings.NewReader(data), repo, logger.Nop())

	sum, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if sum.Total() != 3 || sum.Skipped != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.Imported[domain.ToolBirthPoster] != 2 || sum.Imported[domain.ToolStarMap] != 1 {
		t.Fatalf("unexpected per-tool counts %+v", sum.Imported)
	}

	store := history.New(repo, domain.ToolBirthPoster, logger.Nop())
	designs := store.Load(context.Background())
	if len(designs) != 2 || designs[0].ID != "d" || designs[1].ID != "a" {
		t.Fatalf("expected newest first, got %+v", designs)
	}
	if len(designs[0].State.Babies) != 2 {
		t.Fatalf("state should be normalized: %+v", designs[0].State)
	}
}

func TestJSONImporter_RejectsNonArray(t *testing.T) {
	imp := NewJSONImporter(strings.NewReader(`{"id":"a"}`), kv.NewMemory(), logger.Nop())
	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected error for non-array document")
	}
}

func TestJSONImporter_TruncatedDocument(t *testing.T) {
	imp := NewJSONImporter(strings.NewReader(`[{"id":"a","tool":"birth-poster"},`), kv.NewMemory(), logger.Nop())
	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}
