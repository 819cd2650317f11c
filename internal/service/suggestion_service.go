package service

import (
	"sort"
	"time"

	"brainjar/internal/model"
	"brainjar/internal/repository"
	"brainjar/internal/util"

	"github.com/redis/go-redis/v9"
)

const (
	suggestionDefaultLimit = 10
	suggestionMaxLimit     = 20

	suggestionCachePrefix     = "suggestion:user:"
	suggestionCacheExpiration = 10 * time.Minute
	// Candidates fetched before ranking; larger than the page so the cap
	// cannot hide a higher-scoring candidate with weaker raw activity.
	suggestionPoolSize = 100
)

// Suggestion is one ranked friend candidate.
type Suggestion struct {
	User   *model.User `json:"user"`
	Score  int         `json:"compatibility_score"`
	Reason string      `json:"reason"`
}

// SuggestionService ranks friend candidates for a user. Anyone with an
// existing relationship record in any status is excluded from the pool;
// a declined counterpart stays reachable by direct re-request only.
type SuggestionService interface {
	Suggest(userID string, limit int) ([]*Suggestion, error)
}

// rankingCache is the slice of the Redis client the ranking cache uses.
type rankingCache interface {
	Delete(key string) error
	ZAdd(key string, score float64, member string) error
	ZRevRangeWithScores(key string, start, stop int64) ([]redis.Z, error)
	Expire(key string, ttl time.Duration) error
}

type suggestionService struct {
	userRepo         repository.UserRepository
	relationshipRepo repository.RelationshipRepository
	cache            rankingCache
}

func NewSuggestionService(
	userRepo repository.UserRepository,
	relationshipRepo repository.RelationshipRepository,
	redisClient *util.RedisClient,
) SuggestionService {
	s := &suggestionService{
		userRepo:         userRepo,
		relationshipRepo: relationshipRepo,
	}
	if redisClient != nil {
		s.cache = redisClient
	}
	return s
}

// Suggest returns up to limit candidates ordered by compatibility score
// descending, ties broken by problems solved descending.
func (s *suggestionService) Suggest(userID string, limit int) ([]*Suggestion, error) {
	if limit <= 0 {
		limit = suggestionDefaultLimit
	}
	if limit > suggestionMaxLimit {
		limit = suggestionMaxLimit
	}

	// The exclusion set is always read fresh; a cached ranking is only served
	// when every cached member still passes it, so a relationship created
	// after the ranking was written forces a recompute.
	relatedIDs, err := s.relationshipRepo.RelatedUserIDs(userID)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(relatedIDs)+1)
	excluded[userID] = true
	for _, id := range relatedIDs {
		excluded[id] = true
	}

	if cached := s.fromCache(userID, limit, excluded); cached != nil {
		return cached, nil
	}

	subject, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	var subjectTraits []string
	if subject.Character != nil {
		subjectTraits = subject.Character.GetPersonalityTraits()
	}

	candidates, err := s.userRepo.ListCandidates(userID, relatedIDs, suggestionPoolSize)
	if err != nil {
		return nil, err
	}

	suggestions := make([]*Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		var candidateTraits []string
		if candidate.Character != nil {
			candidateTraits = candidate.Character.GetPersonalityTraits()
		}

		score, reason := CompatibilityScore(subjectTraits, candidateTraits,
			candidate.ProblemsSolved, candidate.CurrentStreak)
		suggestions = append(suggestions, &Suggestion{
			User:   candidate,
			Score:  score,
			Reason: reason,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].User.ProblemsSolved > suggestions[j].User.ProblemsSolved
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	s.cacheRanking(userID, suggestions)

	return suggestions, nil
}

// cacheRanking stores the ranked candidate ids in a sorted set so repeated
// reads skip the scoring pass
func (s *suggestionService) cacheRanking(userID string, suggestions []*Suggestion) {
	if s.cache == nil {
		return
	}

	key := suggestionCachePrefix + userID
	// Replace the set wholesale so superseded members cannot linger
	if err := s.cache.Delete(key); err != nil {
		return
	}
	for _, suggestion := range suggestions {
		// Fold the tiebreaker into the fraction so the set preserves order
		score := float64(suggestion.Score) + float64(suggestion.User.ProblemsSolved)/1e9
		if err := s.cache.ZAdd(key, score, suggestion.User.ID); err != nil {
			return
		}
	}
	s.cache.Expire(key, suggestionCacheExpiration)
}

// fromCache rebuilds suggestions from the cached ranking. Returns nil on any
// miss, and on any cached member that is now excluded: that means the
// relationship set changed since the ranking was written and it must be
// recomputed.
func (s *suggestionService) fromCache(userID string, limit int, excluded map[string]bool) []*Suggestion {
	if s.cache == nil {
		return nil
	}

	entries, err := s.cache.ZRevRangeWithScores(suggestionCachePrefix+userID, 0, int64(limit-1))
	if err != nil || len(entries) == 0 {
		return nil
	}

	subject, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil
	}
	var subjectTraits []string
	if subject.Character != nil {
		subjectTraits = subject.Character.GetPersonalityTraits()
	}

	suggestions := make([]*Suggestion, 0, len(entries))
	for _, entry := range entries {
		id, ok := entry.Member.(string)
		if !ok {
			return nil
		}
		if excluded[id] {
			return nil
		}
		candidate, err := s.userRepo.FindByID(id)
		if err != nil {
			return nil
		}

		var candidateTraits []string
		if candidate.Character != nil {
			candidateTraits = candidate.Character.GetPersonalityTraits()
		}
		score, reason := CompatibilityScore(subjectTraits, candidateTraits,
			candidate.ProblemsSolved, candidate.CurrentStreak)
		suggestions = append(suggestions, &Suggestion{
			User:   candidate,
			Score:  score,
			Reason: reason,
		})
	}
	return suggestions
}
