package viewstate

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime/catalog/internal/domain"
)

func TestToggleSort(t *testing.T) {
	p := domain.DefaultPreferences()

	p = Apply(p, ToggleSort(domain.SortFieldTitle))
	assert.Equal(t, domain.SortFieldTitle, p.SortField)
	assert.Equal(t, domain.SortOrderDesc, p.SortOrder)

	p = Apply(p, ToggleSort(domain.SortFieldScore))
	assert.Equal(t, domain.SortFieldScore, p.SortField)
	assert.Equal(t, domain.SortOrderAsc, p.SortOrder, "switching field resets to ascending")

	p = Apply(p, ToggleSort(domain.SortFieldScore), ToggleSort(domain.SortFieldScore))
	assert.Equal(t, domain.SortOrderAsc, p.SortOrder, "toggling twice returns to ascending")
}

func TestToggleSort_UnknownFieldIgnored(t *testing.T) {
	p := domain.DefaultPreferences()
	got := Apply(p, ToggleSort(domain.SortField("members")))
	assert.Equal(t, p, got)
}

func TestSetMinScore_RaisesMax(t *testing.T) {
	p := Apply(domain.DefaultPreferences(), SetMaxScore(5), SetMinScore(8))

	assert.Equal(t, domain.NewBound(8), p.MinScore)
	assert.Equal(t, domain.NewBound(8), p.MaxScore)
}

func TestSetMaxScore_LowersMin(t *testing.T) {
	p := Apply(domain.DefaultPreferences(), SetMinScore(7), SetMaxScore(3.5))

	assert.Equal(t, domain.NewBound(3.5), p.MinScore)
	assert.Equal(t, domain.NewBound(3.5), p.MaxScore)
}

func TestScoreEdits_Clamp(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		wantMin domain.Bound
		wantMax domain.Bound
	}{
		{"min above range", []Action{SetMinScore(12)}, domain.NewBound(10), domain.Bound{}},
		{"max below range", []Action{SetMaxScore(-3)}, domain.Bound{}, domain.NewBound(0)},
		{"infinite min", []Action{SetMinScore(math.Inf(1))}, domain.NewBound(10), domain.Bound{}},
		{"NaN ignored", []Action{SetMinScore(4), SetMinScore(math.NaN())}, domain.NewBound(4), domain.Bound{}},
		{"within range untouched", []Action{SetMinScore(2), SetMaxScore(9)}, domain.NewBound(2), domain.NewBound(9)},
		{"clear", []Action{SetMinScore(2), SetMaxScore(9), ClearMinScore(), ClearMaxScore()}, domain.Bound{}, domain.Bound{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Apply(domain.DefaultPreferences(), tt.actions...)
			assert.Equal(t, tt.wantMin, p.MinScore)
			assert.Equal(t, tt.wantMax, p.MaxScore)
		})
	}
}

func TestPaging(t *testing.T) {
	p := domain.DefaultPreferences()

	p = Apply(p, PrevPage())
	assert.Equal(t, 1, p.Page, "page is floored at 1")

	p = Apply(p, NextPage(), NextPage(), NextPage())
	assert.Equal(t, 4, p.Page)

	p = Apply(p, SetPage(-7))
	assert.Equal(t, 1, p.Page)

	p = Apply(p, SetPage(1_000_000))
	assert.Equal(t, 1_000_000, p.Page, "no upper bound")

	p = Apply(p, SetPage(math.MaxInt), NextPage())
	assert.Equal(t, math.MaxInt, p.Page, "saturates instead of wrapping")

	p = Apply(p, PrevPage())
	assert.Equal(t, math.MaxInt-1, p.Page)
}

func TestReset(t *testing.T) {
	p := Apply(domain.DefaultPreferences(),
		SetSearchText("naruto"),
		SetPage(4),
		ToggleSort(domain.SortFieldTitle),
		SetMinScore(6),
		SelectType(domain.AnimeTypeMovie),
	)
	require.Equal(t, domain.SortOrderDesc, p.SortOrder)

	got := Apply(p, Reset())
	if diff := cmp.Diff(domain.DefaultPreferences(), got); diff != "" {
		t.Fatalf("reset mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.IsDefault())
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	p := domain.DefaultPreferences()
	_ = Apply(p, SetSearchText("bebop"), SetPage(3))
	assert.True(t, p.IsDefault())
}
