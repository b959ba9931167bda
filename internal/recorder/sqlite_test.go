package recorder

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
)

func expectMigrations(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS investors").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS price_points").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS purchases").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_purchases_investor").WillReturnResult(sqlmock.NewResult(0, 0))
}

func point(symbol, day string, close float64) model.PricePoint {
	c := decimal.NewFromFloat(close)
	return model.PricePoint{
		Symbol: symbol, Date: date.MustParse(day),
		Open: c, High: c, Low: c, Close: c, Volume: decimal.NewFromInt(1000),
	}
}

func TestSQLiteRecorder_SavePricePointsUsesParameterizedInsertOrIgnore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectMigrations(mock)
	rec, err := NewSQLiteRecorderFromDB(db, logging.NewSilentLogger())
	require.NoError(t, err)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT OR IGNORE INTO price_points")
	prep.ExpectExec().
		WithArgs("AAA", "2024-01-01", "10", "10", "10", "10", "1000").
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("AAA", "2024-01-02", "12", "12", "12", "12", "1000").
		WillReturnResult(sqlmock.NewResult(0, 0)) // already stored
	mock.ExpectCommit()

	n, err := rec.SavePricePoints(context.Background(), []model.PricePoint{
		point("AAA", "2024-01-01", 10),
		point("AAA", "2024-01-02", 12),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRecorder_SavePricePointsRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectMigrations(mock)
	rec, err := NewSQLiteRecorderFromDB(db, logging.NewSilentLogger())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO price_points").
		ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = rec.SavePricePoints(context.Background(), []model.PricePoint{point("AAA", "2024-01-01", 10)})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRecorder_GetInvestorNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectMigrations(mock)
	rec, err := NewSQLiteRecorderFromDB(db, logging.NewSilentLogger())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM investors WHERE id = ?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "address", "phone_number"}))

	_, err = rec.GetInvestor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rec, err := NewSQLiteRecorder(":memory:", logging.NewSilentLogger())
	require.NoError(t, err)
	defer rec.Close()

	points := []model.PricePoint{
		point("BBB", "2024-01-03", 7.5),
		point("AAA", "2024-01-02", 12),
		point("AAA", "2024-01-01", 10),
	}
	n, err := rec.SavePricePoints(ctx, points)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = rec.SavePricePoints(ctx, points)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "second save must be a no-op")

	got, err := rec.LoadPricePoints(ctx, "AAA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, date.New(2024, 1, 1), got[0].Date)
	assert.True(t, decimal.NewFromInt(12).Equal(got[1].Close))

	all, err := rec.LoadPricePoints(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	inv, err := model.NewInvestor("Bob", "Smith", "1 Main St.", "777-777-7777")
	require.NoError(t, err)
	require.NoError(t, rec.SaveInvestor(ctx, inv))

	back, err := rec.GetInvestor(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv, back)

	investors, err := rec.ListInvestors(ctx)
	require.NoError(t, err)
	assert.Len(t, investors, 1)

	p, err := model.NewPurchase(inv.ID, "aaa", date.New(2024, 1, 2),
		decimal.NewFromInt(5), decimal.RequireFromString("11.50"), decimal.RequireFromString("60"))
	require.NoError(t, err)
	require.NoError(t, rec.SavePurchases(ctx, []model.PurchaseRecord{*p}))

	purchases, err := rec.ListPurchases(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.Equal(t, "AAA", purchases[0].Symbol)
	assert.Equal(t, date.New(2024, 1, 2), purchases[0].PurchaseDate)
	assert.True(t, p.Shares.Equal(purchases[0].Shares))
	assert.True(t, p.PurchasePrice.Equal(purchases[0].PurchasePrice))
}
