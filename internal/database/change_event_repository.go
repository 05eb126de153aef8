package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/models"
	"github.com/competiscan/competiscan-go/internal/services"
)

// Querier is the subset of pgxpool the repository needs; tests substitute
// pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ChangeEventRepository reads curated change events and alert subscriptions
// from PostgreSQL. It implements services.EventSource and
// services.SubscriberSource.
type ChangeEventRepository struct {
	db     Querier
	logger *logrus.Logger
}

// NewChangeEventRepository creates a repository over the connection pool.
func NewChangeEventRepository(db *PostgresDB, logger *logrus.Logger) *ChangeEventRepository {
	var querier Querier
	if db != nil {
		querier = db.Pool
	}
	return &ChangeEventRepository{db: querier, logger: logger}
}

// NewChangeEventRepositoryWithQuerier creates a repository with a custom
// querier (for tests).
func NewChangeEventRepositoryWithQuerier(db Querier, logger *logrus.Logger) *ChangeEventRepository {
	return &ChangeEventRepository{db: db, logger: logger}
}

// FetchChangeEvents returns events matching the filter in detection order.
// Rows that fail to scan are skipped so one malformed record never sinks a
// batch.
func (r *ChangeEventRepository) FetchChangeEvents(ctx context.Context, filter services.EventFilter) ([]models.ChangeEvent, error) {
	if r.db == nil {
		return nil, fmt.Errorf("event store is not available")
	}

	query, args := buildEventQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query change events: %w", err)
	}
	defer rows.Close()

	var events []models.ChangeEvent
	for rows.Next() {
		var (
			event      models.ChangeEvent
			category   string
			detectedAt *time.Time
		)
		if err := rows.Scan(&event.EntityID, &event.FieldName, &category,
			&event.OldValue, &event.NewValue, &detectedAt, &event.Confidence); err != nil {
			r.logger.WithError(err).Debug("Skipping unreadable change event row")
			continue
		}
		if detectedAt == nil {
			continue
		}
		event.Category = models.ChangeCategory(category)
		event.DetectedAt = *detectedAt
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate change events: %w", rows.Err())
	}

	return events, nil
}

// buildEventQuery assembles the filtered select with positional parameters.
func buildEventQuery(filter services.EventFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT ce.entity_id, ce.field_name, ce.change_category,
		       ce.old_value, ce.new_value, ce.detected_at, ce.confidence
		FROM change_events ce`)
	if filter.SegmentID != nil {
		sb.WriteString(`
		JOIN entities e ON ce.entity_id = e.id`)
	}

	args := []interface{}{filter.Since}
	sb.WriteString(`
		WHERE ce.detected_at >= $1`)

	if len(filter.Categories) > 0 {
		categories := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			categories[i] = string(c)
		}
		args = append(args, categories)
		sb.WriteString(fmt.Sprintf(" AND ce.change_category = ANY($%d)", len(args)))
	}
	if len(filter.Fields) > 0 {
		args = append(args, filter.Fields)
		sb.WriteString(fmt.Sprintf(" AND ce.field_name = ANY($%d)", len(args)))
	}
	if filter.FieldPrefix != "" {
		args = append(args, filter.FieldPrefix+"%")
		sb.WriteString(fmt.Sprintf(" AND ce.field_name LIKE $%d", len(args)))
	}
	if filter.SegmentID != nil {
		args = append(args, *filter.SegmentID)
		sb.WriteString(fmt.Sprintf(" AND e.segment_id = $%d", len(args)))
	}

	sb.WriteString(`
		ORDER BY ce.detected_at ASC`)

	return sb.String(), args
}

// ListAlertSubscribers returns the Telegram chat IDs subscribed to breakout
// alerts.
func (r *ChangeEventRepository) ListAlertSubscribers(ctx context.Context) ([]int64, error) {
	if r.db == nil {
		return nil, fmt.Errorf("event store is not available")
	}

	rows, err := r.db.Query(ctx, `
		SELECT telegram_chat_id
		FROM alert_subscribers
		WHERE active = true
		ORDER BY telegram_chat_id`)
	if err != nil {
		return nil, fmt.Errorf("query alert subscribers: %w", err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("scan alert subscriber: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate alert subscribers: %w", rows.Err())
	}

	return chatIDs, nil
}
