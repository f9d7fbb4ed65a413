package lookup

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatic_RegionsSorted(t *testing.T) {
	provider := NewStatic(map[string][]string{
		"Tamil Nadu":  {"Chennai"},
		"Karnataka":   {"Bengaluru Urban", "Mysuru"},
		"Maharashtra": {"Pune"},
	})

	regions, err := provider.Regions(context.Background())
	if err != nil {
		t.Fatalf("Regions: %v", err)
	}
	want := []string{"Karnataka", "Maharashtra", "Tamil Nadu"}
	if diff := cmp.Diff(want, regions); diff != "" {
		t.Fatalf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestStatic_DistrictsPreserveOrder(t *testing.T) {
	provider := NewStatic(map[string][]string{
		"Karnataka": {"Mysuru", "Bengaluru Urban", "Mangaluru"},
	})

	districts, err := provider.Districts(context.Background(), "Karnataka")
	if err != nil {
		t.Fatalf("Districts: %v", err)
	}
	want := []string{"Mysuru", "Bengaluru Urban", "Mangaluru"}
	if diff := cmp.Diff(want, districts); diff != "" {
		t.Fatalf("districts mismatch (-want +got):\n%s", diff)
	}
}

func TestStatic_UnknownRegionYieldsEmptyList(t *testing.T) {
	provider := NewStatic(map[string][]string{"Karnataka": {"Mysuru"}})

	districts, err := provider.Districts(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("Districts: %v", err)
	}
	if len(districts) != 0 {
		t.Fatalf("unknown region should yield an empty list, got %v", districts)
	}
}

func TestStatic_CopiesInput(t *testing.T) {
	source := map[string][]string{"Karnataka": {"Mysuru"}}
	provider := NewStatic(source)
	source["Karnataka"][0] = "mutated"

	districts, _ := provider.Districts(context.Background(), "Karnataka")
	if districts[0] != "Mysuru" {
		t.Fatalf("provider should not alias caller data, got %v", districts)
	}
}
