package service

import (
	"testing"

	"brainjar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSuggestionFixture() (SuggestionService, RelationshipService, *fakeUserRepo) {
	relRepo := newFakeRelationshipRepo()
	userRepo := newFakeUserRepo(
		testUser(aliceID, "alice", 40, 12, "curious", "analytical"),
		testUser(bobID, "bob", 25, 3, "curious"),
		testUser(caraID, "cara", 120, 30, "patient"),
	)
	relService := NewRelationshipService(relRepo, userRepo, nil)
	return NewSuggestionService(userRepo, relRepo, nil), relService, userRepo
}

func TestSuggestExcludesSubject(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	for _, suggestion := range suggestions {
		assert.NotEqual(t, aliceID, suggestion.User.ID)
	}
}

func TestSuggestExcludesRelatedInAnyStatus(t *testing.T) {
	svc, relService, _ := newSuggestionFixture()

	// Pending pair: bob must disappear from alice's suggestions
	_, err := relService.SendRequest(aliceID, bobID)
	require.NoError(t, err)

	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, caraID, suggestions[0].User.ID)

	// A declined pair is excluded too; re-request is the only road back
	_, err = relService.Respond(bobID, aliceID, false)
	require.NoError(t, err)

	suggestions, err = svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, caraID, suggestions[0].User.ID)
}

func TestSuggestOrdersByScoreThenProblemsSolved(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	// bob: shared trait "curious" -> 50+15+5+3 = 73
	// cara: no shared trait, 120 solved, streak 30 -> 50+0+24+20 = 94
	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	assert.Equal(t, caraID, suggestions[0].User.ID)
	assert.Equal(t, 94, suggestions[0].Score)
	assert.Equal(t, bobID, suggestions[1].User.ID)
	assert.Equal(t, 73, suggestions[1].Score)
	assert.GreaterOrEqual(t, suggestions[0].Score, suggestions[1].Score)
}

func TestSuggestTieBrokenByProblemsSolved(t *testing.T) {
	relRepo := newFakeRelationshipRepo()
	userRepo := newFakeUserRepo(
		testUser(aliceID, "alice", 0, 0),
		// Identical scores (50 base, no traits, no streak contribution
		// difference), different raw activity
		testUser(bobID, "bob", 4, 0),
		testUser(caraID, "cara", 2, 0),
	)
	svc := NewSuggestionService(userRepo, relRepo, nil)

	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, suggestions[0].Score, suggestions[1].Score)
	assert.Equal(t, bobID, suggestions[0].User.ID)
	assert.Equal(t, caraID, suggestions[1].User.ID)
}

func TestSuggestHonorsLimit(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	suggestions, err := svc.Suggest(aliceID, 1)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, caraID, suggestions[0].User.ID)
}

func TestSuggestDefaultsLimitWhenUnset(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	suggestions, err := svc.Suggest(aliceID, 0)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestSuggestUnknownSubject(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	_, err := svc.Suggest("9f00aabb-0000-4000-8000-444444444444", 10)
	assert.Error(t, err)
}

func newCachedSuggestionFixture() (*suggestionService, *fakeRelationshipRepo, *fakeUserRepo, *fakeRankingCache) {
	relRepo := newFakeRelationshipRepo()
	userRepo := newFakeUserRepo(
		testUser(aliceID, "alice", 40, 12, "curious", "analytical"),
		testUser(bobID, "bob", 25, 3, "curious"),
		testUser(caraID, "cara", 120, 30, "patient"),
	)
	cache := newFakeRankingCache()
	svc := &suggestionService{
		userRepo:         userRepo,
		relationshipRepo: relRepo,
		cache:            cache,
	}
	return svc, relRepo, userRepo, cache
}

func TestSuggestServesFromCacheOnRepeat(t *testing.T) {
	svc, _, userRepo, cache := newCachedSuggestionFixture()

	first, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, []string{bobID, caraID}, cache.members(suggestionCachePrefix+aliceID))
	assert.Equal(t, 1, userRepo.listCandidatesCalls)

	second, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, caraID, second[0].User.ID)
	assert.Equal(t, bobID, second[1].User.ID)

	// The repeat read came from the cached ranking, not a fresh pool scan
	assert.Equal(t, 1, userRepo.listCandidatesCalls)
}

func TestSuggestCachedRankingDropsNewlyRelated(t *testing.T) {
	svc, relRepo, _, cache := newCachedSuggestionFixture()

	first, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// A request sent after the ranking was cached must evict the counterpart
	// from alice's suggestions immediately, not after the cache TTL
	_, err = relRepo.Insert(aliceID, bobID)
	require.NoError(t, err)

	second, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, caraID, second[0].User.ID)

	// The recompute replaced the cached set wholesale
	assert.Equal(t, []string{caraID}, cache.members(suggestionCachePrefix+aliceID))
}

func TestSuggestCachedRankingDropsDeclinedCounterpart(t *testing.T) {
	svc, relRepo, _, _ := newCachedSuggestionFixture()

	_, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)

	_, err = relRepo.Insert(bobID, aliceID)
	require.NoError(t, err)
	_, err = relRepo.Transition(model.PairKey(aliceID, bobID), aliceID, model.RelationshipStatusDeclined)
	require.NoError(t, err)

	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, caraID, suggestions[0].User.ID)
}

func TestSuggestReasonsMatchScores(t *testing.T) {
	svc, _, _ := newSuggestionFixture()

	suggestions, err := svc.Suggest(aliceID, 10)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)

	for _, suggestion := range suggestions {
		var traits []string
		if suggestion.User.Character != nil {
			traits = suggestion.User.Character.GetPersonalityTraits()
		}
		score, reason := CompatibilityScore([]string{"curious", "analytical"}, traits,
			suggestion.User.ProblemsSolved, suggestion.User.CurrentStreak)
		assert.Equal(t, score, suggestion.Score)
		assert.Equal(t, reason, suggestion.Reason)
	}
}
