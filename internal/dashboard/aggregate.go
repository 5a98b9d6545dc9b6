// Package dashboard computes grouped counts over the record set for
// display. Queries are stateless single passes; display ordering is by
// descending count with ties broken by key ascending.
package dashboard

import (
	"context"
	"sort"

	"rolodex/internal/record"
)

// Lister is the slice of the record store the aggregator reads from.
type Lister interface {
	All(ctx context.Context) ([]record.Record, error)
}

// GroupCount is one aggregation bucket.
type GroupCount struct {
	Key   string
	Count int
}

// Data is everything the dashboard renders.
type Data struct {
	TotalRecords int
	ByCity       []GroupCount
	ByBirthYear  []GroupCount
	// Duplicate* list values appearing on more than one record, to
	// surface likely double entries.
	DuplicatePhones    []GroupCount
	DuplicateEmails    []GroupCount
	DuplicateUsernames []GroupCount
}

// Aggregator computes dashboard data from the record store.
type Aggregator struct {
	store Lister
}

// New creates an Aggregator over the given store.
func New(store Lister) *Aggregator {
	return &Aggregator{store: store}
}

// Data aggregates the full record set in a single pass.
func (a *Aggregator) Data(ctx context.Context) (*Data, error) {
	records, err := a.store.All(ctx)
	if err != nil {
		return nil, err
	}

	cities := make(map[string]int)
	years := make(map[string]int)
	phones := make(map[string]int)
	emails := make(map[string]int)
	usernames := make(map[string]int)

	for _, rec := range records {
		if rec.City != "" {
			cities[rec.City]++
		}
		if year := record.BirthYear(rec.Birthday); year > 0 {
			years[rec.Birthday[:4]]++
		}
		if rec.Phone != "" {
			phones[rec.Phone]++
		}
		if rec.Email != "" {
			emails[rec.Email]++
		}
		if rec.Username != "" {
			usernames[rec.Username]++
		}
	}

	return &Data{
		TotalRecords:       len(records),
		ByCity:             sortedCounts(cities, 1),
		ByBirthYear:        sortedCounts(years, 1),
		DuplicatePhones:    sortedCounts(phones, 2),
		DuplicateEmails:    sortedCounts(emails, 2),
		DuplicateUsernames: sortedCounts(usernames, 2),
	}, nil
}

// sortedCounts converts a count map into display order, dropping buckets
// below minCount. Order is count descending, then key ascending.
func sortedCounts(counts map[string]int, minCount int) []GroupCount {
	groups := make([]GroupCount, 0, len(counts))
	for key, count := range counts {
		if count >= minCount {
			groups = append(groups, GroupCount{Key: key, Count: count})
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
