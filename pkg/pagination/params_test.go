package pagination

import "testing"

func TestParams_SetDefaults(t *testing.T) {
	p := &Params{}
	p.SetDefaults("created_at")
	if p.Page != 1 || p.Limit != DefaultPageSize || p.SortBy != "created_at" || p.SortDir != "desc" {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestParams_Validate_RejectsInvalidPage(t *testing.T) {
	p := &Params{Page: 0}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for page < 1")
	}
}

func TestParams_Validate_RejectsInvalidLimit(t *testing.T) {
	p := &Params{Page: 1, Limit: 13}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for non-whitelisted limit")
	}
}

func TestParams_Validate_RejectsExcessiveOffset(t *testing.T) {
	p := &Params{Page: 1000, Limit: 100}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for offset beyond MaxOffset")
	}
}

func TestParams_GetOffset(t *testing.T) {
	p := &Params{Page: 3, Limit: 25}
	if got := p.GetOffset(); got != 50 {
		t.Errorf("expected offset 50, got %d", got)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := []string{"name", "created_at"}

	if _, err := ValidateSortField("name", allowed); err != nil {
		t.Errorf("expected no error for allowed field: %v", err)
	}
	if _, err := ValidateSortField("", allowed); err != nil {
		t.Errorf("expected no error for empty field: %v", err)
	}
	if _, err := ValidateSortField("drop table", allowed); err == nil {
		t.Error("expected error for disallowed field")
	}
}

func TestParams_GetSortOrder(t *testing.T) {
	p := &Params{SortBy: "name", SortDir: "asc"}
	got := p.GetSortOrder("created_at", "id")
	want := "name ASC, id ASC"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
