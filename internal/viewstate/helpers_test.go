package viewstate

import "anime/catalog/internal/domain"

func ptr[T any](v T) *T {
	return &v
}

type recordOpt func(*domain.Record)

func withScore(v float64) recordOpt {
	return func(r *domain.Record) { r.Score = ptr(v) }
}

func withType(t domain.AnimeType) recordOpt {
	return func(r *domain.Record) { r.Type = t }
}

func withAired(from string) recordOpt {
	return func(r *domain.Record) { r.Aired = &domain.Aired{From: ptr(from)} }
}

func record(id int, title string, opts ...recordOpt) domain.Record {
	r := domain.Record{MalID: id, Title: title}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func ids(records []domain.Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.MalID)
	}
	return out
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		record(1, "Cowboy Bebop", withScore(8.8), withType(domain.AnimeTypeTV), withAired("1998-04-03T00:00:00+00:00")),
		record(5, "Cowboy Bebop: Tengoku no Tobira", withScore(8.38), withType(domain.AnimeTypeMovie), withAired("2001-09-01T00:00:00+00:00")),
		record(6, "Trigun", withScore(8.22), withType(domain.AnimeTypeTV), withAired("1998-04-01T00:00:00+00:00")),
		record(7, "Witch Hunter Robin", withScore(7.25), withType(domain.AnimeTypeTV), withAired("2002-07-03T00:00:00+00:00")),
		record(8, "Bouken Ou Beet", withScore(6.94), withType(domain.AnimeTypeTV)),
		record(15, "Eyeshield 21", withType(domain.AnimeTypeTV), withAired("not a date")),
		record(16, "Hachimitsu to Clover", withScore(8.0), withType(domain.AnimeTypeTV), withAired("2005-04-15T00:00:00+00:00")),
		record(17, "Hungry Heart: Wild Striker", withScore(0), withType(domain.AnimeTypeOVA)),
		record(18, ""),
	}
}
