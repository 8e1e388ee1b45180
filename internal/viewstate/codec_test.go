package viewstate

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime/catalog/internal/domain"
)

func customPreferences() domain.Preferences {
	return Apply(domain.DefaultPreferences(),
		SetSearchText("cowboy bebop"),
		SetMinScore(6.5),
		SetMaxScore(9),
		ToggleSort(domain.SortFieldAiredFrom),
		ToggleSort(domain.SortFieldAiredFrom),
		SelectType(domain.AnimeTypeTV),
		SetPage(12),
	)
}

func TestEncodeStorage_Defaults(t *testing.T) {
	got := EncodeStorage(domain.DefaultPreferences())
	assert.Equal(t, map[string]string{
		"page":         "1",
		"searchText":   "",
		"minScore":     "",
		"maxScore":     "",
		"sortField":    "title",
		"sortOrder":    "asc",
		"selectedType": "",
	}, got)
}

func TestStorageCodec_RoundTrip(t *testing.T) {
	for _, p := range []domain.Preferences{domain.DefaultPreferences(), customPreferences()} {
		got, err := DecodeStorage(EncodeStorage(p))
		require.NoError(t, err)
		if diff := cmp.Diff(p, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeStorage_EmptyUsesDefaults(t *testing.T) {
	got, err := DecodeStorage(nil)
	require.NoError(t, err)
	assert.True(t, got.IsDefault())
}

func TestDecodeStorage_MalformedFieldsFallBackIndividually(t *testing.T) {
	got, err := DecodeStorage(map[string]string{
		"page":         "four",
		"searchText":   "naruto",
		"minScore":     "high",
		"maxScore":     "7.5",
		"sortField":    "members",
		"sortOrder":    "desc",
		"selectedType": "Manga",
	})
	require.Error(t, err)
	for _, key := range []string{"page", "minScore", "sortField", "selectedType"} {
		assert.Contains(t, err.Error(), key)
	}

	want := domain.DefaultPreferences()
	want.SearchText = "naruto"
	want.MaxScore = domain.NewBound(7.5)
	want.SortOrder = domain.SortOrderDesc
	assert.Equal(t, want, got)
}

func TestDecodeStorage_PageBelowOne(t *testing.T) {
	got, err := DecodeStorage(map[string]string{"page": "0"})
	require.Error(t, err)
	assert.Equal(t, 1, got.Page)
}

func TestDecodeStorage_OutOfRangeScoresClamp(t *testing.T) {
	got, err := DecodeStorage(map[string]string{"minScore": "-2", "maxScore": "42"})
	require.NoError(t, err)
	assert.Equal(t, domain.NewBound(0), got.MinScore)
	assert.Equal(t, domain.NewBound(10), got.MaxScore)
}

func TestDecodeStorage_InvertedBoundsRestoreInvariant(t *testing.T) {
	got, err := DecodeStorage(map[string]string{"minScore": "8", "maxScore": "5"})
	require.Error(t, err)
	assert.Equal(t, domain.NewBound(8), got.MinScore)
	assert.Equal(t, domain.NewBound(8), got.MaxScore)
}

func TestEncodeQuery(t *testing.T) {
	q := EncodeQuery(customPreferences())
	assert.Equal(t,
		"maxScore=9&minScore=6.5&page=12&searchText=cowboy+bebop&selectedType=TV&sortField=airedFrom&sortOrder=desc",
		q.Encode())
	assert.Len(t, q, len(Keys))
}

func TestDecodeQuery_OverlaysPresentKeys(t *testing.T) {
	base := customPreferences()
	q, err := url.ParseQuery("page=3&sortOrder=asc&unrelated=1")
	require.NoError(t, err)

	got, err := DecodeQuery(base, q)
	require.NoError(t, err)

	want := base
	want.Page = 3
	want.SortOrder = domain.SortOrderAsc
	assert.Equal(t, want, got)
}

func TestQueryCodec_RoundTrip(t *testing.T) {
	p := customPreferences()
	got, err := DecodeQuery(domain.DefaultPreferences(), EncodeQuery(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestHasPreferences(t *testing.T) {
	assert.False(t, HasPreferences(url.Values{}))
	assert.False(t, HasPreferences(url.Values{"foo": {"bar"}}))
	assert.True(t, HasPreferences(url.Values{"searchText": {""}}))
}
