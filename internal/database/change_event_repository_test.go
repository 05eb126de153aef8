package database

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan-go/internal/models"
	"github.com/competiscan/competiscan-go/internal/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strptr(s string) *string { return &s }

func timeptr(t time.Time) *time.Time { return &t }

func TestFetchChangeEventsScansRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	detectedAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"entity_id", "field_name", "change_category",
		"old_value", "new_value", "detected_at", "confidence",
	}).
		AddRow(int64(1), "features", "added", nil, strptr("dark mode"), timeptr(detectedAt), 0.9).
		AddRow(int64(2), "price_monthly", "price_change", strptr("10"), strptr("12"), timeptr(detectedAt.AddDate(0, 0, 1)), 1.0)

	mock.ExpectQuery("SELECT ce.entity_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewChangeEventRepositoryWithQuerier(mock, testLogger())
	events, err := repo.FetchChangeEvents(context.Background(), services.EventFilter{
		Since: detectedAt.AddDate(0, 0, -30),
	})

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].EntityID)
	assert.Equal(t, models.ChangeAdded, events[0].Category)
	assert.Equal(t, "dark mode", *events[0].NewValue)
	assert.Nil(t, events[0].OldValue)
	assert.Equal(t, detectedAt, events[0].DetectedAt)
	assert.Equal(t, models.ChangePriceChange, events[1].Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchChangeEventsSkipsNullDetectedAt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	detectedAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"entity_id", "field_name", "change_category",
		"old_value", "new_value", "detected_at", "confidence",
	}).
		AddRow(int64(1), "features", "added", nil, strptr("no timestamp"), nil, 0.9).
		AddRow(int64(2), "features", "added", nil, strptr("dark mode"), timeptr(detectedAt), 0.9)

	mock.ExpectQuery("SELECT ce.entity_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(rows)

	repo := NewChangeEventRepositoryWithQuerier(mock, testLogger())
	events, err := repo.FetchChangeEvents(context.Background(), services.EventFilter{})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].EntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildEventQuery(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	segmentID := int64(3)

	tests := []struct {
		name         string
		filter       services.EventFilter
		wantArgs     int
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "since only",
			filter:       services.EventFilter{Since: since},
			wantArgs:     1,
			wantContains: []string{"ce.detected_at >= $1", "ORDER BY ce.detected_at ASC"},
			wantAbsent:   []string{"JOIN entities", "ANY", "LIKE"},
		},
		{
			name: "categories",
			filter: services.EventFilter{
				Since:      since,
				Categories: []models.ChangeCategory{models.ChangeAdded, models.ChangeModified},
			},
			wantArgs:     2,
			wantContains: []string{"ce.change_category = ANY($2)"},
		},
		{
			name: "fields and prefix",
			filter: services.EventFilter{
				Since:       since,
				Fields:      []string{"stars", "downloads"},
				FieldPrefix: "integration",
			},
			wantArgs:     3,
			wantContains: []string{"ce.field_name = ANY($2)", "ce.field_name LIKE $3"},
		},
		{
			name: "segment scope joins entities",
			filter: services.EventFilter{
				Since:     since,
				SegmentID: &segmentID,
			},
			wantArgs:     2,
			wantContains: []string{"JOIN entities e ON ce.entity_id = e.id", "e.segment_id = $2"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildEventQuery(tc.filter)
			assert.Len(t, args, tc.wantArgs)
			assert.Equal(t, since, args[0])
			for _, fragment := range tc.wantContains {
				assert.Contains(t, query, fragment)
			}
			for _, fragment := range tc.wantAbsent {
				assert.NotContains(t, query, fragment)
			}
		})
	}
}

func TestListAlertSubscribers(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"telegram_chat_id"}).
		AddRow(int64(100)).
		AddRow(int64(200))

	mock.ExpectQuery("SELECT telegram_chat_id").WillReturnRows(rows)

	repo := NewChangeEventRepositoryWithQuerier(mock, testLogger())
	chatIDs, err := repo.ListAlertSubscribers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, chatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryWithoutPool(t *testing.T) {
	repo := NewChangeEventRepository(nil, testLogger())

	_, err := repo.FetchChangeEvents(context.Background(), services.EventFilter{})
	assert.Error(t, err)

	_, err = repo.ListAlertSubscribers(context.Background())
	assert.Error(t, err)
}
