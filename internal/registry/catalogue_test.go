package registry

import "testing"

func testCredits() []Credit {
	return []Credit{
		{UnicID: "VCS-1001", ProjectName: "Rimba Raya REDD+", Vintage: 2019, Status: "Active"},
		{UnicID: "VCS-1002", ProjectName: "Kariba Forest Protection", Vintage: 2020, Status: "Retired"},
		{UnicID: "GS-2001", ProjectName: "Gujarat Wind Power", Vintage: 2018, Status: "Active"},
		{UnicID: "GS-2002", ProjectName: "Sichuan Biogas", Vintage: 2021, Status: "Active"},
		{UnicID: "ACR-3001", ProjectName: "Delta Blue Carbon", Vintage: 2020, Status: "retired"},
	}
}

func loadedCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c := NewCatalogue()
	if _, _, err := c.Replace(testCredits(), "test"); err != nil {
		t.Fatalf("failed to load catalogue: %v", err)
	}
	return c
}

func TestReplace_SkipsInvalidRecords(t *testing.T) {
	c := NewCatalogue()
	records := append(testCredits(),
		Credit{UnicID: "", ProjectName: "No ID", Vintage: 2020, Status: "Active"},
		Credit{UnicID: "X-1", ProjectName: "Bad Vintage", Vintage: 0, Status: "Active"},
		Credit{UnicID: "X-2", ProjectName: "Bad Status", Vintage: 2020, Status: "Pending"},
	)

	loaded, skipped, err := c.Replace(records, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != 5 {
		t.Fatalf("expected 5 loaded, got %d", loaded)
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped, got %d", skipped)
	}
}

func TestReplace_EmptyLoadKeepsPreviousSnapshot(t *testing.T) {
	c := loadedCatalogue(t)

	if _, _, err := c.Replace([]Credit{{UnicID: "", Vintage: 0}}, "test"); err == nil {
		t.Fatalf("expected error for load with no valid credits")
	}
	if c.Count() != 5 {
		t.Fatalf("previous snapshot was not kept, count=%d", c.Count())
	}
}

func TestQuery_TextMatchIsCaseInsensitive(t *testing.T) {
	c := loadedCatalogue(t)

	res := c.Query(QueryOptions{Text: "KARIBA"})
	if res.Total != 1 {
		t.Fatalf("expected 1 match, got %d", res.Total)
	}
	if res.Items[0].UnicID != "VCS-1002" {
		t.Fatalf("unexpected match: %s", res.Items[0].UnicID)
	}
}

func TestQuery_TextMatchesAnyField(t *testing.T) {
	c := loadedCatalogue(t)

	// Vintage and status are part of the search key.
	if res := c.Query(QueryOptions{Text: "2020"}); res.Total != 2 {
		t.Fatalf("expected 2 matches for vintage text, got %d", res.Total)
	}
	if res := c.Query(QueryOptions{Text: "retired"}); res.Total != 2 {
		t.Fatalf("expected 2 matches for status text, got %d", res.Total)
	}
}

func TestQuery_StatusAndVintageFilters(t *testing.T) {
	c := loadedCatalogue(t)

	res := c.Query(QueryOptions{Status: "active", VintageFrom: 2019, VintageTo: 2021})
	if res.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", res.Total)
	}
	for _, item := range res.Items {
		if item.Status != StatusActive {
			t.Fatalf("unexpected status %q in filtered result", item.Status)
		}
	}
}

func TestQuery_PaginationWindow(t *testing.T) {
	c := loadedCatalogue(t)

	first := c.Query(QueryOptions{Sort: SortIDAsc, Limit: 2, Offset: 0})
	second := c.Query(QueryOptions{Sort: SortIDAsc, Limit: 2, Offset: 2})

	if first.Total != 5 || second.Total != 5 {
		t.Fatalf("total should be independent of window, got %d / %d", first.Total, second.Total)
	}
	if len(first.Items) != 2 || len(second.Items) != 2 {
		t.Fatalf("expected window size 2, got %d / %d", len(first.Items), len(second.Items))
	}
	if first.Items[1].UnicID == second.Items[0].UnicID {
		t.Fatalf("windows overlap at %s", second.Items[0].UnicID)
	}
}

func TestQuery_OffsetPastEndReturnsEmptyPage(t *testing.T) {
	c := loadedCatalogue(t)

	res := c.Query(QueryOptions{Limit: 10, Offset: 100})
	if res.Total != 5 {
		t.Fatalf("expected total 5, got %d", res.Total)
	}
	if len(res.Items) != 0 {
		t.Fatalf("expected empty page, got %d items", len(res.Items))
	}
}

func TestQuery_SortOrders(t *testing.T) {
	c := loadedCatalogue(t)

	res := c.Query(QueryOptions{Sort: SortVintageDesc})
	if res.Items[0].Vintage != 2021 {
		t.Fatalf("expected newest vintage first, got %d", res.Items[0].Vintage)
	}

	res = c.Query(QueryOptions{Sort: SortProjectAsc})
	if res.Items[0].ProjectName != "Delta Blue Carbon" {
		t.Fatalf("unexpected first project: %s", res.Items[0].ProjectName)
	}

	// Unknown sort falls back to id ordering.
	res = c.Query(QueryOptions{Sort: "bogus"})
	if res.Items[0].UnicID != "ACR-3001" {
		t.Fatalf("unexpected first id: %s", res.Items[0].UnicID)
	}
}

func TestQuery_IsDeterministic(t *testing.T) {
	c := loadedCatalogue(t)
	opts := QueryOptions{Text: "gs", Sort: SortVintageAsc, Limit: 10}

	a := c.Query(opts)
	b := c.Query(opts)
	if a.Total != b.Total || len(a.Items) != len(b.Items) {
		t.Fatalf("query is not deterministic: %d/%d vs %d/%d", a.Total, len(a.Items), b.Total, len(b.Items))
	}
	for i := range a.Items {
		if a.Items[i].UnicID != b.Items[i].UnicID {
			t.Fatalf("row %d differs between identical queries", i)
		}
	}
}

func TestGet(t *testing.T) {
	c := loadedCatalogue(t)

	item, ok := c.Get("GS-2001")
	if !ok {
		t.Fatalf("expected to find GS-2001")
	}
	if item.ProjectName != "Gujarat Wind Power" {
		t.Fatalf("unexpected project: %s", item.ProjectName)
	}

	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestFacets(t *testing.T) {
	c := loadedCatalogue(t)

	f := c.Facets()
	if f.Total != 5 {
		t.Fatalf("expected total 5, got %d", f.Total)
	}
	if f.StatusCounts[StatusActive] != 3 || f.StatusCounts[StatusRetired] != 2 {
		t.Fatalf("unexpected status counts: %v", f.StatusCounts)
	}
	if f.VintageMin != 2018 || f.VintageMax != 2021 {
		t.Fatalf("unexpected vintage range: %d-%d", f.VintageMin, f.VintageMax)
	}
	if f.DistinctVintage != 4 {
		t.Fatalf("expected 4 distinct vintages, got %d", f.DistinctVintage)
	}
}

func TestEach_RespectsMax(t *testing.T) {
	c := loadedCatalogue(t)

	seen := 0
	n, err := c.Each(QueryOptions{}, 3, func(Credit) error {
		seen++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || seen != 3 {
		t.Fatalf("expected 3 rows, got n=%d seen=%d", n, seen)
	}
}
