package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"momentumAPI/internal/health"
	"momentumAPI/internal/types/activity"
	"momentumAPI/internal/types/challenge"
	"momentumAPI/internal/types/leaderboard"
	"momentumAPI/internal/types/user"
)

// MemoryStore is an in-process Store used by tests and local development. A
// single mutex serializes Atomic blocks, which trivially satisfies the same
// "exactly one writer per (challenge,user)" guarantee the Postgres
// implementation gets from serializable transactions.
type MemoryStore struct {
	mu           sync.Mutex
	challenges   map[uuid.UUID]*challenge.Challenge
	participants map[uuid.UUID]map[uuid.UUID]bool
	progress     map[uuid.UUID]map[uuid.UUID]map[time.Time]bool
	entries      map[uuid.UUID]map[uuid.UUID]*leaderboard.Entry
	activities   []*activity.Activity
	users        map[uuid.UUID]*user.User
	samples      []memorySample
}

type memorySample struct {
	userID     uuid.UUID
	metric     health.Metric
	value      float64
	recordedAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges:   make(map[uuid.UUID]*challenge.Challenge),
		participants: make(map[uuid.UUID]map[uuid.UUID]bool),
		progress:     make(map[uuid.UUID]map[uuid.UUID]map[time.Time]bool),
		entries:      make(map[uuid.UUID]map[uuid.UUID]*leaderboard.Entry),
		users:        make(map[uuid.UUID]*user.User),
	}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{s: s})
}

type memoryTx struct {
	s *MemoryStore
}

func (s *MemoryStore) getChallengeLocked(id uuid.UUID) (*challenge.Challenge, error) {
	ch, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ch
	copied.ParticipantCount = len(s.participants[id])
	return &copied, nil
}

func (t *memoryTx) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return t.s.getChallengeLocked(id)
}

func (t *memoryTx) IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error) {
	return t.s.participants[challengeID][userID], nil
}

func (t *memoryTx) AddParticipant(ctx context.Context, challengeID, userID uuid.UUID) error {
	if t.s.participants[challengeID] == nil {
		t.s.participants[challengeID] = make(map[uuid.UUID]bool)
	}
	t.s.participants[challengeID][userID] = true
	return nil
}

func (t *memoryTx) RemoveParticipant(ctx context.Context, challengeID, userID uuid.UUID) error {
	delete(t.s.participants[challengeID], userID)
	return nil
}

func (t *memoryTx) CountActiveParticipations(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	count := 0
	for challengeID, members := range t.s.participants {
		if !members[userID] {
			continue
		}
		ch, ok := t.s.challenges[challengeID]
		if ok && !ch.IsExpired(now) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) progressDaysLocked(challengeID, userID uuid.UUID) []time.Time {
	var days []time.Time
	for day := range s.progress[challengeID][userID] {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

func (t *memoryTx) ProgressDays(ctx context.Context, challengeID, userID uuid.UUID) ([]time.Time, error) {
	return t.s.progressDaysLocked(challengeID, userID), nil
}

func (t *memoryTx) ProgressCounts(ctx context.Context, challengeID uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for userID, days := range t.s.progress[challengeID] {
		counts[userID] = len(days)
	}
	return counts, nil
}

func (t *memoryTx) InsertProgressDay(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (bool, error) {
	if t.s.progress[challengeID] == nil {
		t.s.progress[challengeID] = make(map[uuid.UUID]map[time.Time]bool)
	}
	if t.s.progress[challengeID][userID] == nil {
		t.s.progress[challengeID][userID] = make(map[time.Time]bool)
	}
	if t.s.progress[challengeID][userID][day] {
		return false, nil
	}
	t.s.progress[challengeID][userID][day] = true
	return true, nil
}

func (t *memoryTx) UpsertLeaderboardEntry(ctx context.Context, entry *leaderboard.Entry) error {
	if t.s.entries[entry.ChallengeID] == nil {
		t.s.entries[entry.ChallengeID] = make(map[uuid.UUID]*leaderboard.Entry)
	}
	copied := *entry
	t.s.entries[entry.ChallengeID][entry.UserID] = &copied
	return nil
}

func (t *memoryTx) ResetChallenge(ctx context.Context, challengeID uuid.UUID, startDate time.Time) error {
	ch, ok := t.s.challenges[challengeID]
	if !ok {
		return ErrNotFound
	}
	ch.StartDate = startDate
	delete(t.s.participants, challengeID)
	delete(t.s.progress, challengeID)
	delete(t.s.entries, challengeID)
	return nil
}

func (t *memoryTx) DeleteChallenge(ctx context.Context, challengeID uuid.UUID) error {
	delete(t.s.challenges, challengeID)
	delete(t.s.participants, challengeID)
	delete(t.s.progress, challengeID)
	delete(t.s.entries, challengeID)
	return nil
}

func (t *memoryTx) CreditCompletedChallenge(ctx context.Context, userID uuid.UUID) error {
	if u, ok := t.s.users[userID]; ok {
		u.CompletedChallenges++
	}
	return nil
}

func (s *MemoryStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getChallengeLocked(id)
}

func (s *MemoryStore) CreateChallenge(ctx context.Context, ch *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ch
	s.challenges[ch.ID] = &copied
	return nil
}

func (s *MemoryStore) ListChallenges(ctx context.Context, filter ChallengeFilter) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenges := make([]*challenge.Challenge, 0)
	for id, ch := range s.challenges {
		if filter.Official != nil && ch.IsOfficial != *filter.Official {
			continue
		}
		if filter.Type != "" && ch.ChallengeType != filter.Type {
			continue
		}
		copied := *ch
		copied.ParticipantCount = len(s.participants[id])
		challenges = append(challenges, &copied)
	}
	sort.Slice(challenges, func(i, j int) bool {
		return challenges[i].CreatedAt.After(challenges[j].CreatedAt)
	})
	return challenges, nil
}

func (s *MemoryStore) ListExpiredChallenges(ctx context.Context, now time.Time) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := make([]*challenge.Challenge, 0)
	for id, ch := range s.challenges {
		if ch.IsExpired(now) {
			copied := *ch
			copied.ParticipantCount = len(s.participants[id])
			expired = append(expired, &copied)
		}
	}
	return expired, nil
}

func (s *MemoryStore) IsParticipant(ctx context.Context, challengeID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[challengeID][userID], nil
}

func (s *MemoryStore) HasCompletedOn(ctx context.Context, challengeID, userID uuid.UUID, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[challengeID][userID][day], nil
}

func (s *MemoryStore) rankedEntriesLocked(challengeID uuid.UUID) []*leaderboard.Entry {
	entries := make([]*leaderboard.Entry, 0, len(s.entries[challengeID]))
	for _, e := range s.entries[challengeID] {
		copied := *e
		entries = append(entries, &copied)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].LastUpdated.Before(entries[j].LastUpdated)
	})
	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries
}

func (s *MemoryStore) Leaderboard(ctx context.Context, challengeID uuid.UUID, page, pageSize int) ([]*leaderboard.Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ranked := s.rankedEntriesLocked(challengeID)
	total := len(ranked)

	start := (page - 1) * pageSize
	if start >= total {
		return []*leaderboard.Entry{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return ranked[start:end], total, nil
}

func (s *MemoryStore) LeaderboardEntry(ctx context.Context, challengeID, userID uuid.UUID) (*leaderboard.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.rankedEntriesLocked(challengeID) {
		if e.UserID == userID {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) InsertActivity(ctx context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.activities = append(s.activities, &copied)
	return nil
}

func (s *MemoryStore) RecentActivities(ctx context.Context, limit int) ([]*activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := make([]*activity.Activity, 0, limit)
	for i := len(s.activities) - 1; i >= 0 && len(recent) < limit; i-- {
		copied := *s.activities[i]
		recent = append(recent, &copied)
	}
	return recent, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

func (s *MemoryStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ClerkID == clerkID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) UpdateUserProfile(ctx context.Context, clerkID, email, username, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ClerkID == clerkID {
			if email != "" {
				u.Email = email
			}
			if username != "" {
				u.Username = username
			}
			if imageURL != "" {
				u.ImageURL = imageURL
			}
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UpdateUserTimezone(ctx context.Context, clerkID, timezone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ClerkID == clerkID {
			u.Timezone = timezone
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) UpdateUserDeviceToken(ctx context.Context, clerkID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ClerkID == clerkID {
			u.DeviceToken = token
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SetPremiumByEmail(ctx context.Context, email string, premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			u.IsPremium = premium
		}
	}
	return nil
}

func (s *MemoryStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.ClerkID == clerkID {
			delete(s.users, id)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) InsertHealthSamples(ctx context.Context, userID uuid.UUID, samples []health.SyncSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sample := range samples {
		s.samples = append(s.samples, memorySample{
			userID:     userID,
			metric:     sample.Metric,
			value:      sample.Value,
			recordedAt: sample.RecordedAt,
		})
	}
	return nil
}

func (s *MemoryStore) SumHealthSamples(ctx context.Context, userID uuid.UUID, metric health.Metric, window health.Window) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, sample := range s.samples {
		if sample.userID != userID || sample.metric != metric {
			continue
		}
		if sample.recordedAt.Before(window.Start) || !sample.recordedAt.Before(window.End) {
			continue
		}
		sum += sample.value
	}
	return sum, nil
}
