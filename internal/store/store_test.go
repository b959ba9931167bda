package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/recorder"
)

func quote(day string, close float64) model.RawQuote {
	return model.RawQuote{
		Date:   day,
		Open:   decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		High:   decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		Low:    decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		Close:  decimal.NewNullDecimal(decimal.NewFromFloat(close)),
		Volume: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}
}

func newTestStore() *Store {
	return New(recorder.NewNoopRecorder(), logging.NewSilentLogger())
}

func TestIngest_IsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	batch := []model.RawQuote{quote("2024-01-01", 10), quote("2024-01-02", 12)}

	res, err := s.Ingest(ctx, "AAA", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	first := s.Query("AAA", nil)

	res, err = s.Ingest(ctx, "AAA", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, first, s.Query("AAA", nil))
}

func TestIngest_NoDuplicateDatesAcrossFormats(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	ts := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC).Unix()
	epoch := quote("", 99)
	epoch.Timestamp = ts

	res, err := s.Ingest(ctx, "aaa", []model.RawQuote{
		quote("2024-01-02", 12),
		quote("02-Jan-24", 13), // same day, stored-record format
		quote("01/02/2024", 14),
		epoch,
		quote("2024-01-03", 15),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 3, res.Duplicates)

	pts := s.Query("AAA", nil)
	require.Len(t, pts, 2)
	assert.True(t, decimal.NewFromInt(12).Equal(pts[0].Close), "first occurrence wins")
	for i := 1; i < len(pts); i++ {
		assert.True(t, pts[i-1].Date.Before(pts[i].Date))
	}
}

func TestIngest_RejectsMalformedRecordsAndContinues(t *testing.T) {
	s := newTestStore()
	noClose := quote("2024-01-04", 1)
	noClose.Close = decimal.NullDecimal{}
	foreign := quote("2024-01-05", 1)
	foreign.Symbol = "ZZZ"

	res, err := s.Ingest(context.Background(), "AAA", []model.RawQuote{
		quote("2024-01-01", 10),
		quote("not a date", 11),
		noClose,
		foreign,
		quote("2024-01-06", 12),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 3, res.Rejected)
	require.Len(t, res.Errors, 3)
	for _, e := range res.Errors {
		assert.ErrorIs(t, e, ErrMalformedRecord)
	}
	var mre *MalformedRecordError
	require.ErrorAs(t, res.Errors[0], &mre)
	assert.Equal(t, 1, mre.Index)
}

func TestIngest_EmptySymbol(t *testing.T) {
	_, err := newTestStore().Ingest(context.Background(), "  ", []model.RawQuote{quote("2024-01-01", 1)})
	assert.Error(t, err)
}

func TestQuery_SinceAndOrdering(t *testing.T) {
	s := newTestStore()
	_, err := s.Ingest(context.Background(), "AAA", []model.RawQuote{
		quote("2024-01-05", 5), quote("2024-01-01", 1), quote("2024-01-03", 3),
	})
	require.NoError(t, err)

	all := s.Query("AAA", nil)
	require.Len(t, all, 3)
	assert.Equal(t, date.New(2024, 1, 1), all[0].Date)
	assert.Equal(t, date.New(2024, 1, 5), all[2].Date)

	since := date.New(2024, 1, 3)
	tail := s.Query("AAA", &since)
	require.Len(t, tail, 2)
	assert.Equal(t, since, tail[0].Date)

	assert.Empty(t, s.Query("UNKNOWN", nil))
}

func TestSnapshot_IsStableUnderLaterIngest(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, err := s.Ingest(ctx, "AAA", []model.RawQuote{quote("2024-01-01", 1)})
	require.NoError(t, err)

	snap := s.Snapshot("AAA")
	_, err = s.Ingest(ctx, "AAA", []model.RawQuote{quote("2023-12-29", 0.5), quote("2024-01-02", 2)})
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, date.New(2024, 1, 1), snap.Points()[0].Date)
	assert.Equal(t, 3, s.Snapshot("AAA").Len())
	assert.Greater(t, s.Snapshot("AAA").Version, snap.Version)
}

type failingRecorder struct{ *recorder.NoopRecorder }

func (failingRecorder) SavePricePoints(context.Context, []model.PricePoint) (int, error) {
	return 0, assert.AnError
}

func TestIngest_BackendFailureIsSurfacedAndNotPublished(t *testing.T) {
	s := New(failingRecorder{recorder.NewNoopRecorder()}, logging.NewSilentLogger())
	res, err := s.Ingest(context.Background(), "AAA", []model.RawQuote{quote("2024-01-01", 1)})
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, res.Inserted)
	assert.Empty(t, s.Query("AAA", nil))
}

func TestRestore_FromSQLite(t *testing.T) {
	ctx := context.Background()
	rec, err := recorder.NewSQLiteRecorder(":memory:", logging.NewSilentLogger())
	require.NoError(t, err)
	defer rec.Close()

	first := New(rec, nil)
	_, err = first.Ingest(ctx, "AAA", []model.RawQuote{quote("2024-01-01", 10), quote("2024-01-02", 12)})
	require.NoError(t, err)

	second := New(rec, nil)
	require.NoError(t, second.Restore(ctx))
	assert.Equal(t, []string{"AAA"}, second.Symbols())
	require.Len(t, second.Query("AAA", nil), 2)

	res, err := second.Ingest(ctx, "AAA", []model.RawQuote{quote("2024-01-02", 12)})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
}

func TestIngest_ConcurrentWriters(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	start := date.New(2024, 1, 1)

	var wg sync.WaitGroup
	for _, sym := range []string{"AAA", "BBB", "CCC"} {
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(sym string) {
				defer wg.Done()
				batch := make([]model.RawQuote, 0, 30)
				for i := 0; i < 30; i++ {
					batch = append(batch, quote(start.Add(i).String(), float64(i+1)))
				}
				_, err := s.Ingest(ctx, sym, batch)
				assert.NoError(t, err)
				_ = s.Snapshot(sym).Points()
			}(sym)
		}
	}
	wg.Wait()

	for _, sym := range []string{"AAA", "BBB", "CCC"} {
		pts := s.Query(sym, nil)
		require.Len(t, pts, 30, sym)
		seen := map[date.Date]bool{}
		for _, p := range pts {
			assert.False(t, seen[p.Date], fmt.Sprintf("%s duplicate %s", sym, p.Date))
			seen[p.Date] = true
		}
	}
}
