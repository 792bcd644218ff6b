package poster

import (
	"reflect"
	"testing"

	"posterstudio/internal/domain"
)

func TestPermittedSizesByPartition(t *testing.T) {
	vertical := []domain.PosterSize{"30x40", "40x50", "50x70", "70x100"}
	horizontal := []domain.PosterSize{"40x30", "50x40", "70x50", "100x70"}
	for _, n := range []int{1, 2} {
		if got := PermittedSizes(n); !reflect.DeepEqual(got, vertical) {
			t.Fatalf("count %d: got %v", n, got)
		}
	}
	for _, n := range []int{3, 4} {
		if got := PermittedSizes(n); !reflect.DeepEqual(got, horizontal) {
			t.Fatalf("count %d: got %v", n, got)
		}
	}
}

func TestPartitionsAreTransposed(t *testing.T) {
	v, h := PermittedSizes(1), PermittedSizes(3)
	for i := range v {
		vw, vh, _ := Dimensions(v[i])
		hw, hh, _ := Dimensions(h[i])
		if vw != hh || vh != hw {
			t.Fatalf("%s is not the transpose of %s", v[i], h[i])
		}
	}
}

func TestPermittedSizesReturnsCopy(t *testing.T) {
	got := PermittedSizes(1)
	got[0] = "bogus"
	if DefaultSize(1) != "30x40" {
		t.Fatalf("caller mutated the partition table")
	}
}

func TestIsValidSize(t *testing.T) {
	if !IsValidSize(2, "70x100") || IsValidSize(2, "100x70") {
		t.Fatalf("unexpected validity for 2 babies")
	}
	if !IsValidSize(3, "100x70") || IsValidSize(4, "30x40") || IsValidSize(1, "") {
		t.Fatalf("unexpected validity for 3/4 babies")
	}
}

func TestDimensions(t *testing.T) {
	w, h, ok := Dimensions("70x100")
	if !ok || w != 70 || h != 100 {
		t.Fatalf("got %v %v %v", w, h, ok)
	}
	if _, _, ok := Dimensions("large"); ok {
		t.Fatalf("expected parse failure")
	}
}
