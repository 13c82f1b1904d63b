package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"momentumAPI/internal/health"
	"momentumAPI/internal/types/activity"
	"momentumAPI/internal/types/challenge"
	"momentumAPI/internal/types/leaderboard"
	"momentumAPI/internal/types/user"
)

const challengeColumns = `
	c.id, c.title, c.description, c.challenge_type, c.difficulty, c.verification_method,
	c.metric, c.goal, c.goal_minutes, c.target_lat, c.target_lon, c.radius_meters,
	c.max_participants, c.duration_days, c.start_date, c.is_official, c.creator_id, c.created_at,
	(SELECT COUNT(*) FROM challenge_participants p WHERE p.challenge_id = c.id) AS participant_count`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Atomic runs fn inside a serializable transaction. Serialization failures
// and deadlocks surface as ErrConflict so callers can retry the whole
// read-modify-write.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{q: tx}); err != nil {
		return translateConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateConflict(err)
	}
	return nil
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		if pgErr.Code == "40001" || pgErr.Code == "40P01" {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}

// queryer is satisfied by both pgxpool.Pool and pgx.Tx so the same SQL
// helpers serve direct reads and transactional reads.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTx struct {
	q queryer
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	err := row.Scan(
		&ch.ID, &ch.Title, &ch.Description, &ch.ChallengeType, &ch.Difficulty, &ch.VerificationMethod,
		&ch.Metric, &ch.Goal, &ch.GoalMinutes, &ch.TargetLat, &ch.TargetLon, &ch.RadiusMeters,
		&ch.MaxParticipants, &ch.DurationDays, &ch.StartDate, &ch.IsOfficial, &ch.CreatorID, &ch.CreatedAt,
		&ch.ParticipantCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan challenge: %w", err)
	}
	return ch, nil
}

func getChallenge(ctx context.Context, q queryer, id uuid.UUID) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE c.id = $1`
	return scanChallenge(q.QueryRow(ctx, query, id))
}

func isParticipant(ctx context.Context, q queryer, challengeID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM challenge_participants
			WHERE challenge_id = $1 AND user_id = $2
		)`, challengeID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return exists, nil
}

func (t *pgTx) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return getChallenge(ctx, t.q, id)
}

func (t *pgTx) IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error) {
	return isParticipant(ctx, t.q, challengeID, userID)
}

func (t *pgTx) AddParticipant(ctx context.Context, challengeID, userID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (challenge_id, user_id) DO NOTHING`, challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (t *pgTx) RemoveParticipant(ctx context.Context, challengeID, userID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `
		DELETE FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	return nil
}

func (t *pgTx) CountActiveParticipations(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var count int
	err := t.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM challenge_participants p
		JOIN challenges c ON c.id = p.challenge_id
		WHERE p.user_id = $1
		AND c.start_date + (c.duration_days || ' days')::interval > $2`, userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

func (t *pgTx) ProgressDays(ctx context.Context, challengeID, userID uuid.UUID) ([]time.Time, error) {
	rows, err := t.q.Query(ctx, `
		SELECT day FROM challenge_progress
		WHERE challenge_id = $1 AND user_id = $2
		ORDER BY day DESC`, challengeID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan progress day: %w", err)
		}
		days = append(days, time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	}
	return days, rows.Err()
}

func (t *pgTx) ProgressCounts(ctx context.Context, challengeID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := t.q.Query(ctx, `
		SELECT user_id, COUNT(*) FROM challenge_progress
		WHERE challenge_id = $1
		GROUP BY user_id`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var userID uuid.UUID
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan progress count: %w", err)
		}
		counts[userID] = count
	}
	return counts, rows.Err()
}

func (t *pgTx) InsertProgressDay(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (bool, error) {
	tag, err := t.q.Exec(ctx, `
		INSERT INTO challenge_progress (challenge_id, user_id, day)
		VALUES ($1, $2, $3)
		ON CONFLICT (challenge_id, user_id, day) DO NOTHING`, challengeID, userID, day)
	if err != nil {
		return false, fmt.Errorf("failed to insert progress day: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) UpsertLeaderboardEntry(ctx context.Context, entry *leaderboard.Entry) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO leaderboard_entries
			(challenge_id, user_id, username, days_completed, current_streak, longest_streak, score, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (challenge_id, user_id) DO UPDATE SET
			username = EXCLUDED.username,
			days_completed = EXCLUDED.days_completed,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			score = EXCLUDED.score,
			last_updated = EXCLUDED.last_updated`,
		entry.ChallengeID, entry.UserID, entry.Username, entry.DaysCompleted,
		entry.CurrentStreak, entry.LongestStreak, entry.Score, entry.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to upsert leaderboard entry: %w", err)
	}
	return nil
}

func (t *pgTx) ResetChallenge(ctx context.Context, challengeID uuid.UUID, startDate time.Time) error {
	if _, err := t.q.Exec(ctx, `DELETE FROM challenge_participants WHERE challenge_id = $1`, challengeID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if _, err := t.q.Exec(ctx, `DELETE FROM challenge_progress WHERE challenge_id = $1`, challengeID); err != nil {
		return fmt.Errorf("failed to clear progress: %w", err)
	}
	if _, err := t.q.Exec(ctx, `DELETE FROM leaderboard_entries WHERE challenge_id = $1`, challengeID); err != nil {
		return fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	if _, err := t.q.Exec(ctx, `UPDATE challenges SET start_date = $2 WHERE id = $1`, challengeID, startDate); err != nil {
		return fmt.Errorf("failed to reset start date: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteChallenge(ctx context.Context, challengeID uuid.UUID) error {
	// participants/progress/leaderboard rows go with it via ON DELETE CASCADE
	_, err := t.q.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, challengeID)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

func (t *pgTx) CreditCompletedChallenge(ctx context.Context, userID uuid.UUID) error {
	_, err := t.q.Exec(ctx, `
		UPDATE users SET completed_challenges = completed_challenges + 1, updated_at = NOW()
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to credit completed challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return getChallenge(ctx, s.db, id)
}

func (s *PostgresStore) CreateChallenge(ctx context.Context, ch *challenge.Challenge) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO challenges
			(id, title, description, challenge_type, difficulty, verification_method,
			 metric, goal, goal_minutes, target_lat, target_lon, radius_meters,
			 max_participants, duration_days, start_date, is_official, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		ch.ID, ch.Title, ch.Description, ch.ChallengeType, ch.Difficulty, ch.VerificationMethod,
		ch.Metric, ch.Goal, ch.GoalMinutes, ch.TargetLat, ch.TargetLon, ch.RadiusMeters,
		ch.MaxParticipants, ch.DurationDays, ch.StartDate, ch.IsOfficial, ch.CreatorID, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c WHERE 1=1`
	args := []any{}

	if filter.Official != nil {
		args = append(args, *filter.Official)
		query += fmt.Sprintf(" AND c.is_official = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND c.challenge_type = $%d", len(args))
	}
	query += " ORDER BY c.created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*challenge.Challenge, 0)
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

func (s *PostgresStore) ListExpiredChallenges(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges c
		WHERE c.start_date + (c.duration_days || ' days')::interval < $1`

	rows, err := s.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*challenge.Challenge, 0)
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

func (s *PostgresStore) IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error) {
	return isParticipant(ctx, s.db, challengeID, userID)
}

func (s *PostgresStore) HasCompletedOn(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM challenge_progress
			WHERE challenge_id = $1 AND user_id = $2 AND day = $3
		)`, challengeID, userID, day).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, challengeID uuid.UUID, page, pageSize int) ([]*leaderboard.Entry, int, error) {
	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leaderboard_entries WHERE challenge_id = $1`, challengeID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT challenge_id, user_id, username, days_completed, current_streak, longest_streak,
			score, last_updated,
			RANK() OVER (ORDER BY score DESC, last_updated ASC) AS rank
		FROM leaderboard_entries
		WHERE challenge_id = $1
		ORDER BY score DESC, last_updated ASC
		LIMIT $2 OFFSET $3`, challengeID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*leaderboard.Entry, 0)
	for rows.Next() {
		e := &leaderboard.Entry{}
		err := rows.Scan(&e.ChallengeID, &e.UserID, &e.Username, &e.DaysCompleted,
			&e.CurrentStreak, &e.LongestStreak, &e.Score, &e.LastUpdated, &e.Rank)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *PostgresStore) LeaderboardEntry(ctx context.Context, challengeID, userID uuid.UUID) (*leaderboard.Entry, error) {
	e := &leaderboard.Entry{}
	err := s.db.QueryRow(ctx, `
		SELECT challenge_id, user_id, username, days_completed, current_streak, longest_streak,
			score, last_updated, rank
		FROM (
			SELECT *, RANK() OVER (ORDER BY score DESC, last_updated ASC) AS rank
			FROM leaderboard_entries
			WHERE challenge_id = $1
		) ranked
		WHERE user_id = $2`, challengeID, userID).Scan(
		&e.ChallengeID, &e.UserID, &e.Username, &e.DaysCompleted,
		&e.CurrentStreak, &e.LongestStreak, &e.Score, &e.LastUpdated, &e.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) InsertActivity(ctx context.Context, a *activity.Activity) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO activities (id, user_id, username, description, icon_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Username, a.Description, a.IconName, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentActivities(ctx context.Context, limit int) ([]*activity.Activity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, username, description, icon_name, created_at
		FROM activities
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := make([]*activity.Activity, 0)
	for rows.Next() {
		a := &activity.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Description, &a.IconName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

const userColumns = `id, clerk_id, email, username, image_url, is_premium, timezone,
	COALESCE(device_token, ''), completed_challenges, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.ImageURL, &u.IsPremium,
		&u.Timezone, &u.DeviceToken, &u.CompletedChallenges, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, clerk_id, email, username, image_url, is_premium, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.ClerkID, u.Email, u.Username, u.ImageURL, u.IsPremium, u.Timezone, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) UpdateUserProfile(ctx context.Context, clerkID, email, username, imageURL string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET
			email = COALESCE(NULLIF($2, ''), email),
			username = COALESCE(NULLIF($3, ''), username),
			image_url = COALESCE(NULLIF($4, ''), image_url),
			updated_at = NOW()
		WHERE clerk_id = $1`, clerkID, email, username, imageURL)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserTimezone(ctx context.Context, clerkID, timezone string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET timezone = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, timezone)
	if err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateUserDeviceToken(ctx context.Context, clerkID, token string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET device_token = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, token)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetPremiumByEmail(ctx context.Context, email string, premium bool) error {
	_, err := s.db.Exec(ctx, `
		UPDATE users SET is_premium = $2, updated_at = NOW() WHERE email = $1`, email, premium)
	if err != nil {
		return fmt.Errorf("failed to update premium status: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertHealthSamples(ctx context.Context, userID uuid.UUID, samples []health.SyncSample) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sample := range samples {
		_, err := tx.Exec(ctx, `
			INSERT INTO health_samples (id, user_id, metric, value, recorded_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), userID, sample.Metric, sample.Value, sample.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to insert health sample: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SumHealthSamples(ctx context.Context, userID uuid.UUID, metric health.Metric, window health.Window) (float64, error) {
	var sum float64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(value), 0)
		FROM health_samples
		WHERE user_id = $1 AND metric = $2 AND recorded_at >= $3 AND recorded_at < $4`,
		userID, metric, window.Start, window.End).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum health samples: %w", err)
	}
	return sum, nil
}
