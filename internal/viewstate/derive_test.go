package viewstate

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime/catalog/internal/domain"
)

func TestMatches_CowboyBebop(t *testing.T) {
	bebop := record(1, "Cowboy Bebop", withScore(8.8), withType(domain.AnimeTypeTV), withAired("1998-04-03"))

	p := Apply(domain.DefaultPreferences(), SetSearchText("bebop"), SetMinScore(8))
	assert.True(t, Matches(bebop, p))

	p = Apply(p, ClearMinScore(), SetMaxScore(5))
	assert.False(t, Matches(bebop, p))
}

func TestMatches_Predicates(t *testing.T) {
	unscored := record(2, "Unscored Show", withType(domain.AnimeTypeONA))

	tests := []struct {
		name string
		p    domain.Preferences
		want bool
	}{
		{"empty search passes", domain.DefaultPreferences(), true},
		{"case-insensitive substring", Apply(domain.DefaultPreferences(), SetSearchText("SCORED sh")), true},
		{"search mismatch", Apply(domain.DefaultPreferences(), SetSearchText("bebop")), false},
		{"missing score counts as 0 against min", Apply(domain.DefaultPreferences(), SetMinScore(0.1)), false},
		{"missing score passes min 0", Apply(domain.DefaultPreferences(), SetMinScore(0)), true},
		{"missing score passes max", Apply(domain.DefaultPreferences(), SetMaxScore(3)), true},
		{"type match", Apply(domain.DefaultPreferences(), SelectType(domain.AnimeTypeONA)), true},
		{"type mismatch", Apply(domain.DefaultPreferences(), SelectType(domain.AnimeTypeTV)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(unscored, tt.p))
		})
	}
}

func TestDerive_OnlyPassingRecordsAndPermutation(t *testing.T) {
	records := sampleRecords()

	prefsList := []domain.Preferences{domain.DefaultPreferences()}
	for _, search := range []string{"", "bebop", "o"} {
		for _, typ := range []domain.AnimeType{domain.AnimeTypeUnset, domain.AnimeTypeTV, domain.AnimeTypeMovie} {
			for _, field := range domain.SortFields {
				for _, order := range []domain.SortOrder{domain.SortOrderAsc, domain.SortOrderDesc} {
					p := domain.DefaultPreferences()
					p.SearchText = search
					p.SelectedType = typ
					p.SortField = field
					p.SortOrder = order
					prefsList = append(prefsList, p, Apply(p, SetMinScore(7)), Apply(p, SetMaxScore(8.3)))
				}
			}
		}
	}

	for _, p := range prefsList {
		got := Derive(records, p)

		want := []int{}
		for _, r := range records {
			if Matches(r, p) {
				want = append(want, r.MalID)
			}
		}

		gotIDs := ids(got)
		for _, r := range got {
			require.True(t, Matches(r, p), "record %d does not pass %+v", r.MalID, p)
		}
		slices.Sort(gotIDs)
		slices.Sort(want)
		require.Equal(t, want, gotIDs, "derived view is not a permutation of the passing subset for %+v", p)
	}
}

func TestDerive_DoesNotMutateRecords(t *testing.T) {
	records := sampleRecords()
	before := ids(records)

	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldScore), ToggleSort(domain.SortFieldScore))
	_ = Derive(records, p)

	assert.Equal(t, before, ids(records))
}

func TestDerive_SortIsIdempotent(t *testing.T) {
	for _, field := range domain.SortFields {
		for _, order := range []domain.SortOrder{domain.SortOrderAsc, domain.SortOrderDesc} {
			p := domain.DefaultPreferences()
			p.SortField = field
			p.SortOrder = order

			once := Derive(sampleRecords(), p)
			twice := Derive(once, p)
			assert.Equal(t, ids(once), ids(twice), "field=%s order=%s", field, order)
		}
	}
}

func TestDerive_ToggleTwiceRestoresOrder(t *testing.T) {
	records := sampleRecords()
	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldScore))
	first := Derive(records, p)

	p = Apply(p, ToggleSort(domain.SortFieldScore), ToggleSort(domain.SortFieldScore))
	require.Equal(t, domain.SortOrderAsc, p.SortOrder)
	assert.Equal(t, ids(first), ids(Derive(records, p)))
}

func TestDerive_SortByScore(t *testing.T) {
	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldScore))
	got := ids(Derive(sampleRecords(), p))
	// 15, 17 and 18 have no score or a score of 0 and keep their input order.
	assert.Equal(t, []int{15, 17, 18, 8, 7, 16, 6, 5, 1}, got)

	p = Apply(p, ToggleSort(domain.SortFieldScore))
	got = ids(Derive(sampleRecords(), p))
	assert.Equal(t, []int{1, 5, 6, 16, 7, 8, 15, 17, 18}, got)
}

func TestDerive_MissingScoreEquivalentToZero(t *testing.T) {
	missing := record(1, "Missing")
	zero := record(2, "Zero", withScore(0))
	low := record(3, "Low", withScore(1))

	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldScore))

	assert.Equal(t, 0, Compare(missing, zero, domain.SortFieldScore))
	assert.Equal(t, []int{1, 2, 3}, ids(Derive([]domain.Record{missing, zero, low}, p)))
	assert.Equal(t, []int{2, 1, 3}, ids(Derive([]domain.Record{zero, missing, low}, p)))
}

func TestDerive_SortByTitle(t *testing.T) {
	got := ids(Derive(sampleRecords(), domain.DefaultPreferences()))
	// The untitled record collapses to 0 and sorts ahead of every title.
	assert.Equal(t, []int{18, 8, 1, 5, 15, 16, 17, 6, 7}, got)
}

func TestDerive_SortByAiredFrom(t *testing.T) {
	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldAiredFrom))
	got := ids(Derive(sampleRecords(), p))
	// Missing and unparseable dates count as the epoch.
	assert.Equal(t, []int{8, 15, 17, 18, 6, 1, 5, 7, 16}, got)
}

func TestDerive_SortByType(t *testing.T) {
	p := Apply(domain.DefaultPreferences(), ToggleSort(domain.SortFieldType))
	got := ids(Derive(sampleRecords(), p))
	assert.Equal(t, []int{18, 5, 17, 1, 6, 7, 8, 15, 16}, got)
}

func TestCompare_NumericKeyBeforeText(t *testing.T) {
	untitled := record(1, "")
	titled := record(2, "Akira")

	assert.Equal(t, -1, Compare(untitled, titled, domain.SortFieldTitle))
	assert.Equal(t, 1, Compare(titled, untitled, domain.SortFieldTitle))
	assert.Equal(t, 0, Compare(untitled, record(3, ""), domain.SortFieldTitle))
}
