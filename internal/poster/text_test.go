package poster

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"

	"posterstudio/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestDataLineOmitsUnsetFields(t *testing.T) {
	b := domain.BabyConfig{HeightCm: 52, BirthPlace: strPtr("CDMX")}
	if got := DataLine(b, language.Spanish); got != "52 cm / CDMX" {
		t.Fatalf("got %q", got)
	}
}

func TestDataLineFullOrder(t *testing.T) {
	w := 3250.0
	d := domain.NewDate(2024, 3, 15)
	b := domain.BabyConfig{HeightCm: 49.5, WeightGrams: &w, BirthDate: &d, BirthPlace: strPtr("Monterrey")}
	if got := DataLine(b, language.Spanish); got != "49.5 cm / 3.25 kg / 15 de marzo de 2024 / Monterrey" {
		t.Fatalf("got %q", got)
	}
	if got := DataLine(b, language.English); got != "49.5 cm / 3.25 kg / March 15, 2024 / Monterrey" {
		t.Fatalf("got %q", got)
	}
}

func TestDataLineBlankPlaceIsUnset(t *testing.T) {
	b := domain.BabyConfig{HeightCm: 50, BirthPlace: strPtr("  ")}
	if got := DataLine(b, language.Spanish); got != "50 cm" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderLinePlaceholderAndScale(t *testing.T) {
	if got := HeaderLine(domain.BabyConfig{HeightCm: 52}, 1, "30x40"); got != "Baby 2 · escala 1:1.7" {
		t.Fatalf("got %q", got)
	}
	if got := HeaderLine(domain.BabyConfig{Name: "Ana", HeightCm: 48}, 0, "70x100"); got != "Ana · escala 1:1" {
		t.Fatalf("got %q", got)
	}
}

func TestTextLinesTwoPerBaby(t *testing.T) {
	m := NewModel()
	m.SetBabyCount(2)
	got := m.TextLines()
	want := []string{
		"Baby 1 · escala 1:1.7", "50 cm",
		"Baby 2 · escala 1:1.7", "50 cm",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestMatchLocale(t *testing.T) {
	if got := MatchLocale("en-US,en;q=0.9"); got != language.English {
		t.Fatalf("got %v", got)
	}
	if got := MatchLocale("es-MX"); got != language.Spanish {
		t.Fatalf("got %v", got)
	}
	if got := MatchLocale(""); got != language.Spanish {
		t.Fatalf("got %v", got)
	}
}
