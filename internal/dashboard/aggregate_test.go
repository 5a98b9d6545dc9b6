package dashboard

import (
	"context"
	"testing"

	"rolodex/internal/record"
)

// memStore feeds the aggregator a fixed record set.
type memStore struct {
	records []record.Record
}

func (m *memStore) All(ctx context.Context) ([]record.Record, error) {
	return m.records, nil
}

func TestData_Counts(t *testing.T) {
	store := &memStore{records: []record.Record{
		{Name: "A", Phone: "+1-555-123-0001", Email: "a@example.com", City: "Paris", Birthday: "1990-01-01"},
		{Name: "B", Phone: "+1-555-123-0002", Email: "b@example.com", City: "Paris", Birthday: "1990-06-15"},
		{Name: "C", Phone: "+1-555-123-0003", Email: "c@example.com", City: "London", Birthday: "1985-03-03"},
		{Name: "D", Phone: "+1-555-123-0004", Email: "d@example.com"},
	}}

	data, err := New(store).Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}

	if data.TotalRecords != 4 {
		t.Errorf("TotalRecords = %d, want 4", data.TotalRecords)
	}

	wantCities := []GroupCount{{Key: "Paris", Count: 2}, {Key: "London", Count: 1}}
	assertGroups(t, "ByCity", data.ByCity, wantCities)

	wantYears := []GroupCount{{Key: "1990", Count: 2}, {Key: "1985", Count: 1}}
	assertGroups(t, "ByBirthYear", data.ByBirthYear, wantYears)
}

func TestData_TiesBrokenByKeyAscending(t *testing.T) {
	store := &memStore{records: []record.Record{
		{Name: "A", Phone: "1", Email: "a@x.com", City: "Zurich"},
		{Name: "B", Phone: "2", Email: "b@x.com", City: "Athens"},
		{Name: "C", Phone: "3", Email: "c@x.com", City: "Madrid"},
	}}

	data, err := New(store).Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}

	want := []GroupCount{{Key: "Athens", Count: 1}, {Key: "Madrid", Count: 1}, {Key: "Zurich", Count: 1}}
	assertGroups(t, "ByCity", data.ByCity, want)
}

func TestData_Duplicates(t *testing.T) {
	store := &memStore{records: []record.Record{
		{Name: "A", Phone: "+1-555-123-0001", Email: "shared@example.com", Username: "solo"},
		{Name: "B", Phone: "+1-555-123-0001", Email: "shared@example.com"},
		{Name: "C", Phone: "+1-555-123-0002", Email: "other@example.com"},
	}}

	data, err := New(store).Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}

	assertGroups(t, "DuplicatePhones", data.DuplicatePhones,
		[]GroupCount{{Key: "+1-555-123-0001", Count: 2}})
	assertGroups(t, "DuplicateEmails", data.DuplicateEmails,
		[]GroupCount{{Key: "shared@example.com", Count: 2}})
	if len(data.DuplicateUsernames) != 0 {
		t.Errorf("DuplicateUsernames = %v, want empty", data.DuplicateUsernames)
	}
}

func TestData_Empty(t *testing.T) {
	data, err := New(&memStore{}).Data(context.Background())
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if data.TotalRecords != 0 || len(data.ByCity) != 0 {
		t.Errorf("Data() = %+v, want empty aggregates", data)
	}
}

func assertGroups(t *testing.T, name string, got, want []GroupCount) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}
