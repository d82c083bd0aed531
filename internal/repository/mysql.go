package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/geodiary/diary-backend/internal/config"
	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
)

// MySQLRepository репозиторий для работы с MySQL: сырые пинги,
// дневники и их записи
type MySQLRepository struct {
	db     *sql.DB
	logger *utils.Logger
	config *config.MySQLConfig
}

// NewMySQLRepository создает новый MySQL репозиторий
func NewMySQLRepository(cfg *config.MySQLConfig, logger *utils.Logger) (*MySQLRepository, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN is required")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	// Настройки connection pool
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	return &MySQLRepository{
		db:     db,
		logger: logger,
		config: cfg,
	}, nil
}

// Ping проверяет соединение с MySQL
func (r *MySQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close закрывает соединение с MySQL
func (r *MySQLRepository) Close() error {
	return r.db.Close()
}

// GetPingsForDay возвращает пинги устройства за календарный день UTC
// в порядке возрастания временной метки
func (r *MySQLRepository) GetPingsForDay(ctx context.Context, deviceID string, date time.Time) ([]models.RawPing, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT
			id,
			timestamp,
			primary_place_type,
			COALESCE(other_place_types, '[]') as other_place_types,
			motion,
			motion_confidence,
			distance_m,
			bearing_deg,
			x_m,
			y_m,
			horizontal_accuracy_m
		FROM pings
		WHERE deviceid = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	var pings []models.RawPing
	for rows.Next() {
		var (
			id               string
			timestamp        time.Time
			primaryPlaceType string
			otherTypesJSON   string
			motion           string
			motionConfidence string
			distanceM        float64
			bearingDeg       float64
			xM, yM           sql.NullFloat64
			accuracyM        sql.NullFloat64
		)

		err := rows.Scan(
			&id, &timestamp, &primaryPlaceType, &otherTypesJSON,
			&motion, &motionConfidence, &distanceM, &bearingDeg,
			&xM, &yM, &accuracyM,
		)
		if err != nil {
			r.logger.WithField("error", err).Warn("Failed to scan ping row")
			continue
		}

		var otherTypes []string
		if err := json.Unmarshal([]byte(otherTypesJSON), &otherTypes); err != nil {
			r.logger.WithFields(map[string]interface{}{
				"ping_id": id,
				"error":   err,
			}).Warn("Failed to parse other_place_types")
		}

		var position models.Position
		if xM.Valid && yM.Valid {
			position = models.NewCartesianPosition(xM.Float64, yM.Float64)
		} else {
			position = models.NewPolarPosition(distanceM, bearingDeg)
		}

		ping := models.RawPing{
			ID:               id,
			Timestamp:        timestamp.UTC(),
			PrimaryPlaceType: primaryPlaceType,
			OtherPlaceTypes:  otherTypes,
			Motion: models.MotionSample{
				Motion:     models.ParseMotion(motion),
				Confidence: models.MotionConfidence(motionConfidence),
			},
			Position: position,
		}
		if accuracyM.Valid {
			v := accuracyM.Float64
			ping.HorizontalAccuracyM = &v
		}

		pings = append(pings, ping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ping rows iteration failed: %w", err)
	}

	return pings, nil
}

// GetDiary возвращает строку дневника или ErrDiaryNotFound
func (r *MySQLRepository) GetDiary(ctx context.Context, deviceID string, date time.Time) (*models.Diary, error) {
	query := `
		SELECT id, deviceid, diary_date, submitted, submitted_at
		FROM diaries
		WHERE deviceid = ? AND diary_date = ?
	`

	var (
		diary       models.Diary
		diaryDate   string
		submittedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, deviceID, date.Format("2006-01-02")).Scan(
		&diary.ID, &diary.DeviceID, &diaryDate, &diary.Submitted, &submittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrDiaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query diary: %w", err)
	}

	if parsed, err := time.Parse("2006-01-02", diaryDate); err == nil {
		diary.Date = parsed
	}
	if submittedAt.Valid {
		ts := submittedAt.Time.UTC()
		diary.SubmittedAt = &ts
	}

	return &diary, nil
}

// UpsertDiary атомарно создает или находит дневник дня. Уникальный ключ
// (deviceid, diary_date) исключает гонку двух конкурентных запросов.
func (r *MySQLRepository) UpsertDiary(ctx context.Context, deviceID string, date time.Time) (int64, error) {
	query := `
		INSERT INTO diaries (deviceid, diary_date)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`

	result, err := r.db.ExecContext(ctx, query, deviceID, date.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert diary: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get diary id: %w", err)
	}
	return id, nil
}

// SaveEntries транзакционно замещает записи дневника свежей сборкой.
// Повторный прогон того же дня не плодит дубликатов. Связки с пингами
// для синтетических записей не сохраняются: за ними нет реальных пингов.
func (r *MySQLRepository) SaveEntries(ctx context.Context, diaryID int64, visits []models.Visit, journeys []models.Journey, syntheticVisitIDs, syntheticJourneyIDs map[string]bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Старые записи замещаются; entries уходят каскадом по FK
	if _, err := tx.ExecContext(ctx, `DELETE FROM diary_visits WHERE diary_id = ?`, diaryID); err != nil {
		return fmt.Errorf("failed to clear diary visits: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM diary_journeys WHERE diary_id = ?`, diaryID); err != nil {
		return fmt.Errorf("failed to clear diary journeys: %w", err)
	}

	for _, v := range visits {
		if err := r.insertVisit(ctx, tx, diaryID, v, syntheticVisitIDs[v.ID]); err != nil {
			return err
		}
	}
	for _, j := range journeys {
		if err := r.insertJourney(ctx, tx, diaryID, j, syntheticJourneyIDs[j.ID]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit diary entries: %w", err)
	}
	return nil
}

func (r *MySQLRepository) insertVisit(ctx context.Context, tx *sql.Tx, diaryID int64, v models.Visit, synthetic bool) error {
	otherTypes, err := json.Marshal(v.OtherPlaceTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal other_place_types: %w", err)
	}

	query := `
		INSERT INTO diary_visits (
			diary_id, visit_key, started_at, ended_at, duration_s,
			primary_place_type, other_place_types, dominant_motion,
			motion_confidence, confidence, visit_type, ping_count, is_synthetic
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		diaryID, v.ID, v.StartedAt, v.EndedAt, v.DurationS,
		v.PrimaryPlaceType, string(otherTypes), string(v.DominantMotion.Motion),
		string(v.DominantMotion.Confidence), string(v.Confidence), string(v.VisitType),
		v.PingCount, synthetic,
	)
	if err != nil {
		return fmt.Errorf("failed to insert visit %s: %w", v.ID, err)
	}

	if synthetic {
		return nil
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get visit row id: %w", err)
	}

	for i, pingID := range v.MemberPingIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diary_visit_entries (visit_id, ping_id, position) VALUES (?, ?, ?)`,
			rowID, pingID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to link visit ping %s: %w", pingID, err)
		}
	}
	return nil
}

func (r *MySQLRepository) insertJourney(ctx context.Context, tx *sql.Tx, diaryID int64, j models.Journey, synthetic bool) error {
	proportions, err := json.Marshal(j.TransportProportions)
	if err != nil {
		return fmt.Errorf("failed to marshal transport_proportions: %w", err)
	}

	query := `
		INSERT INTO diary_journeys (
			diary_id, journey_key, from_visit_key, to_visit_key,
			primary_transport, transport_proportions, started_at, ended_at,
			duration_s, ping_count, confidence, is_synthetic
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		diaryID, j.ID, j.FromVisitID, j.ToVisitID,
		string(j.PrimaryTransport), string(proportions), j.StartedAt, j.EndedAt,
		j.DurationS, j.PingCount, string(j.Confidence), synthetic,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journey %s: %w", j.ID, err)
	}

	if synthetic {
		return nil
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get journey row id: %w", err)
	}

	for i, pingID := range j.MemberPingIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO diary_journey_entries (journey_id, ping_id, position) VALUES (?, ?, ?)`,
			rowID, pingID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to link journey ping %s: %w", pingID, err)
		}
	}
	return nil
}

// GetStoredEntries возвращает сохраненные записи дневника вместе с
// ответами пользователя, в порядке времени начала
func (r *MySQLRepository) GetStoredEntries(ctx context.Context, diaryID int64) ([]models.StoredVisit, []models.StoredJourney, error) {
	visits, err := r.loadStoredVisits(ctx, diaryID)
	if err != nil {
		return nil, nil, err
	}
	journeys, err := r.loadStoredJourneys(ctx, diaryID)
	if err != nil {
		return nil, nil, err
	}
	return visits, journeys, nil
}

func (r *MySQLRepository) loadStoredVisits(ctx context.Context, diaryID int64) ([]models.StoredVisit, error) {
	query := `
		SELECT
			v.id, v.visit_key, v.started_at, v.ended_at, v.duration_s,
			v.primary_place_type, COALESCE(v.other_place_types, '[]'),
			v.dominant_motion, v.motion_confidence, v.confidence, v.visit_type,
			v.ping_count, v.is_synthetic,
			v.activity_label, v.confirmed_place, v.confirmed_activity, v.user_context
		FROM diary_visits v
		WHERE v.diary_id = ?
		ORDER BY v.started_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, diaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored visits: %w", err)
	}
	defer rows.Close()

	var visits []models.StoredVisit
	rowIDs := make(map[int64]int)

	for rows.Next() {
		var (
			rowID           int64
			v               models.StoredVisit
			otherTypesJSON  string
			motion          string
			motionConf      string
			answers         [4]sql.NullString
		)

		err := rows.Scan(
			&rowID, &v.ID, &v.StartedAt, &v.EndedAt, &v.DurationS,
			&v.PrimaryPlaceType, &otherTypesJSON,
			&motion, &motionConf, &v.Confidence, &v.VisitType,
			&v.PingCount, &v.IsSynthetic,
			&answers[0], &answers[1], &answers[2], &answers[3],
		)
		if err != nil {
			r.logger.WithField("error", err).Warn("Failed to scan stored visit row")
			continue
		}

		if err := json.Unmarshal([]byte(otherTypesJSON), &v.OtherPlaceTypes); err != nil {
			v.OtherPlaceTypes = nil
		}
		v.DominantMotion = models.MotionSample{
			Motion:     models.ParseMotion(motion),
			Confidence: models.MotionConfidence(motionConf),
		}
		v.ActivityLabel = nullableString(answers[0])
		v.ConfirmedPlace = nullableString(answers[1])
		v.ConfirmedActivity = nullableString(answers[2])
		v.UserContext = nullableString(answers[3])
		v.MemberPingIDs = []string{}

		rowIDs[rowID] = len(visits)
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stored visit rows iteration failed: %w", err)
	}

	if err := r.attachPingLinks(ctx, "diary_visit_entries", "visit_id", rowIDs, func(idx int, pingID string) {
		visits[idx].MemberPingIDs = append(visits[idx].MemberPingIDs, pingID)
	}); err != nil {
		return nil, err
	}

	return visits, nil
}

func (r *MySQLRepository) loadStoredJourneys(ctx context.Context, diaryID int64) ([]models.StoredJourney, error) {
	query := `
		SELECT
			j.id, j.journey_key, j.from_visit_key, j.to_visit_key,
			j.primary_transport, COALESCE(j.transport_proportions, '{}'),
			j.started_at, j.ended_at, j.duration_s, j.ping_count, j.confidence,
			j.is_synthetic, j.confirmed_transport, j.travel_reason
		FROM diary_journeys j
		WHERE j.diary_id = ?
		ORDER BY j.started_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, diaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored journeys: %w", err)
	}
	defer rows.Close()

	var journeys []models.StoredJourney
	rowIDs := make(map[int64]int)

	for rows.Next() {
		var (
			rowID           int64
			j               models.StoredJourney
			transport       string
			proportionsJSON string
			answers         [2]sql.NullString
		)

		err := rows.Scan(
			&rowID, &j.ID, &j.FromVisitID, &j.ToVisitID,
			&transport, &proportionsJSON,
			&j.StartedAt, &j.EndedAt, &j.DurationS, &j.PingCount, &j.Confidence,
			&j.IsSynthetic, &answers[0], &answers[1],
		)
		if err != nil {
			r.logger.WithField("error", err).Warn("Failed to scan stored journey row")
			continue
		}

		j.PrimaryTransport = models.ParseMotion(transport)
		if err := json.Unmarshal([]byte(proportionsJSON), &j.TransportProportions); err != nil {
			j.TransportProportions = nil
		}
		j.ConfirmedTransport = nullableString(answers[0])
		j.TravelReason = nullableString(answers[1])
		j.MemberPingIDs = []string{}

		rowIDs[rowID] = len(journeys)
		journeys = append(journeys, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stored journey rows iteration failed: %w", err)
	}

	if err := r.attachPingLinks(ctx, "diary_journey_entries", "journey_id", rowIDs, func(idx int, pingID string) {
		journeys[idx].MemberPingIDs = append(journeys[idx].MemberPingIDs, pingID)
	}); err != nil {
		return nil, err
	}

	return journeys, nil
}

// attachPingLinks дочитывает связки запись→пинг из таблицы entries
// в порядке position
func (r *MySQLRepository) attachPingLinks(ctx context.Context, table, fkColumn string, rowIDs map[int64]int, attach func(idx int, pingID string)) error {
	if len(rowIDs) == 0 {
		return nil
	}

	ids := make([]interface{}, 0, len(rowIDs))
	placeholders := ""
	for id := range rowIDs {
		if placeholders != "" {
			placeholders += ","
		}
		placeholders += "?"
		ids = append(ids, id)
	}

	query := fmt.Sprintf(
		`SELECT %s, ping_id FROM %s WHERE %s IN (%s) ORDER BY %s, position`,
		fkColumn, table, fkColumn, placeholders, fkColumn,
	)

	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowID  int64
			pingID string
		)
		if err := rows.Scan(&rowID, &pingID); err != nil {
			r.logger.WithField("error", err).Warn("Failed to scan ping link row")
			continue
		}
		if idx, ok := rowIDs[rowID]; ok {
			attach(idx, pingID)
		}
	}
	return rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
