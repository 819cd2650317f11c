package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"brainjar/internal/apperr"
	"brainjar/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// In-memory stand-ins for the repositories, mirroring their error contracts
// so service behavior can be tested without a database.

type fakeRelationshipRepo struct {
	mu   sync.Mutex
	rels map[string]*model.Relationship
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{rels: make(map[string]*model.Relationship)}
}

func (f *fakeRelationshipRepo) FindByPairKey(pairKey string) (*model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rel, ok := f.rels[pairKey]
	if !ok {
		return nil, fmt.Errorf("no relationship for pair: %w", apperr.ErrNotFound)
	}
	copied := *rel
	return &copied, nil
}

func (f *fakeRelationshipRepo) Insert(requesterID, targetID string) (*model.Relationship, error) {
	if requesterID == targetID {
		return nil, fmt.Errorf("cannot create a relationship with yourself: %w", apperr.ErrInvalidRequest)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pairKey := model.PairKey(requesterID, targetID)
	if existing, ok := f.rels[pairKey]; ok {
		if existing.Status != model.RelationshipStatusDeclined {
			return nil, fmt.Errorf("relationship already exists for pair: %w", apperr.ErrConflict)
		}
		delete(f.rels, pairKey)
	}

	rel := &model.Relationship{
		ID:          uuid.New().String(),
		PairKey:     pairKey,
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.RelationshipStatusPending,
	}
	f.rels[pairKey] = rel

	copied := *rel
	return &copied, nil
}

func (f *fakeRelationshipRepo) Transition(pairKey, actingUserID, newStatus string) (*model.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rel, ok := f.rels[pairKey]
	if !ok {
		return nil, fmt.Errorf("no relationship for pair: %w", apperr.ErrNotFound)
	}
	if rel.TargetID != actingUserID {
		return nil, fmt.Errorf("only the request target may respond: %w", apperr.ErrForbidden)
	}
	if rel.Status != model.RelationshipStatusPending {
		return nil, fmt.Errorf("request is not pending: %w", apperr.ErrForbidden)
	}

	rel.Status = newStatus
	copied := *rel
	return &copied, nil
}

func (f *fakeRelationshipRepo) Remove(pairKey, actingUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rel, ok := f.rels[pairKey]
	if !ok || rel.Status != model.RelationshipStatusAccepted {
		return fmt.Errorf("no accepted relationship for pair: %w", apperr.ErrNotFound)
	}
	if !rel.Involves(actingUserID) {
		return fmt.Errorf("not a participant of this relationship: %w", apperr.ErrForbidden)
	}

	delete(f.rels, pairKey)
	return nil
}

func (f *fakeRelationshipRepo) ListAccepted(userID string) ([]*model.Relationship, error) {
	return f.list(func(rel *model.Relationship) bool {
		return rel.Involves(userID) && rel.Status == model.RelationshipStatusAccepted
	}), nil
}

func (f *fakeRelationshipRepo) ListIncomingPending(userID string) ([]*model.Relationship, error) {
	return f.list(func(rel *model.Relationship) bool {
		return rel.TargetID == userID && rel.Status == model.RelationshipStatusPending
	}), nil
}

func (f *fakeRelationshipRepo) ListOutgoingPending(userID string) ([]*model.Relationship, error) {
	return f.list(func(rel *model.Relationship) bool {
		return rel.RequesterID == userID && rel.Status == model.RelationshipStatusPending
	}), nil
}

func (f *fakeRelationshipRepo) RelatedUserIDs(userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0)
	for _, rel := range f.rels {
		if rel.Involves(userID) {
			ids = append(ids, rel.OtherParty(userID))
		}
	}
	return ids, nil
}

func (f *fakeRelationshipRepo) list(match func(*model.Relationship) bool) []*model.Relationship {
	f.mu.Lock()
	defer f.mu.Unlock()

	rels := make([]*model.Relationship, 0)
	for _, rel := range f.rels {
		if match(rel) {
			copied := *rel
			rels = append(rels, &copied)
		}
	}
	return rels
}

func (f *fakeRelationshipRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rels)
}

type fakeUserRepo struct {
	mu                  sync.Mutex
	users               map[string]*model.User
	listCandidatesCalls int
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) FindByID(id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return user, nil
}

func (f *fakeUserRepo) Exists(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserRepo) SearchByUsername(keyword string, excludeID string, limit int) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users := make([]*model.User, 0)
	for _, user := range f.users {
		if user.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(user.Username), keyword) {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (f *fakeUserRepo) ListCandidates(subjectID string, excludeIDs []string, limit int) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCandidatesCalls++

	excluded := make(map[string]bool, len(excludeIDs)+1)
	excluded[subjectID] = true
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	users := make([]*model.User, 0)
	for _, user := range f.users {
		if !excluded[user.ID] {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].ProblemsSolved != users[j].ProblemsSolved {
			return users[i].ProblemsSolved > users[j].ProblemsSolved
		}
		return users[i].CurrentStreak > users[j].CurrentStreak
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// fakeRankingCache is an in-memory sorted set standing in for the Redis
// ranking cache.
type fakeRankingCache struct {
	mu   sync.Mutex
	sets map[string]map[string]float64
}

func newFakeRankingCache() *fakeRankingCache {
	return &fakeRankingCache{sets: make(map[string]map[string]float64)}
}

func (f *fakeRankingCache) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets, key)
	return nil
}

func (f *fakeRankingCache) ZAdd(key string, score float64, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets[key] == nil {
		f.sets[key] = make(map[string]float64)
	}
	f.sets[key][member] = score
	return nil
}

func (f *fakeRankingCache) ZRevRangeWithScores(key string, start, stop int64) ([]redis.Z, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := make([]redis.Z, 0, len(f.sets[key]))
	for member, score := range f.sets[key] {
		entries = append(entries, redis.Z{Score: score, Member: member})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })

	if start > int64(len(entries)) {
		return nil, nil
	}
	entries = entries[start:]
	if stop >= 0 && stop-start+1 < int64(len(entries)) {
		entries = entries[:stop-start+1]
	}
	return entries, nil
}

func (f *fakeRankingCache) Expire(key string, ttl time.Duration) error {
	return nil
}

func (f *fakeRankingCache) members(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	members := make([]string, 0, len(f.sets[key]))
	for member := range f.sets[key] {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []*model.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{}
}

func (f *fakeChatRepo) Create(message *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	copied := *message
	f.messages = append(f.messages, &copied)
	return nil
}

func (f *fakeChatRepo) FindByID(id string) (*model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, message := range f.messages {
		if message.ID == id {
			copied := *message
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("message %s: %w", id, apperr.ErrNotFound)
}

func (f *fakeChatRepo) GetConversation(userID, otherUserID string, limit, offset int) ([]*model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	messages := make([]*model.ChatMessage, 0)
	for _, message := range f.messages {
		between := (message.SenderID == userID && message.ReceiverID == otherUserID) ||
			(message.SenderID == otherUserID && message.ReceiverID == userID)
		if between {
			copied := *message
			messages = append(messages, &copied)
		}
	}
	if offset > len(messages) {
		offset = len(messages)
	}
	messages = messages[offset:]
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (f *fakeChatRepo) MarkAsRead(userID, senderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, message := range f.messages {
		if message.ReceiverID == userID && message.SenderID == senderID {
			message.IsRead = true
		}
	}
	return nil
}

func (f *fakeChatRepo) GetUnreadCount(userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, message := range f.messages {
		if message.ReceiverID == userID && !message.IsRead {
			count++
		}
	}
	return count, nil
}

func testUser(id, username string, problemsSolved, currentStreak int, traits ...string) *model.User {
	user := &model.User{
		ID:             id,
		Username:       username,
		Email:          username + "@example.com",
		ProblemsSolved: problemsSolved,
		CurrentStreak:  currentStreak,
	}
	if len(traits) > 0 {
		character := &model.Character{UserID: id}
		if err := character.SetPersonalityTraits(traits); err == nil {
			user.Character = character
		}
	}
	return user
}
