package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/internal/providers"
)

func marketResponse(favOdds, dogOdds float64) *providers.DataGolfMatchupResponse {
	return &providers.DataGolfMatchupResponse{
		EventName: "Test Open",
		RoundNum:  2,
		Tour:      "pga",
		MatchList: []providers.DataGolfMatchup{
			{
				Type: "2ball",
				Players: []providers.DataGolfEntry{
					{PlayerID: 101, PlayerName: "Fav", Odds: &favOdds, OddsFormat: "decimal"},
					{PlayerID: 102, PlayerName: "Dog", Odds: &dogOdds, OddsFormat: "decimal"},
				},
			},
		},
	}
}

// Re-syncing the same market must update the existing rows in place: one
// group keyed by its external id, one row per player, odds moved to the
// latest quote. The second pass hits the conflict path, where the persisted
// group id differs from the id generated on the in-memory struct.
func TestUpsertMatchupsResync(t *testing.T) {
	db := testDB(t)
	svc := NewSyncService(db, nil, nil, nil, []string{"pga"}, "@every 15m", quietLogger())

	first := marketResponse(1.80, 2.10)
	event, err := svc.upsertEvent("pga", first)
	require.NoError(t, err)
	require.NoError(t, svc.upsertMatchups(event, first))

	second := marketResponse(1.60, 2.40)
	event, err = svc.upsertEvent("pga", second)
	require.NoError(t, err)
	require.NoError(t, svc.upsertMatchups(event, second))

	var groups []models.MatchupGroup
	require.NoError(t, db.Find(&groups).Error)
	require.Len(t, groups, 1, "re-sync must not create a second group")

	var players []models.MatchupPlayer
	require.NoError(t, db.Order("player_id").Find(&players).Error)
	require.Len(t, players, 2, "re-sync must not duplicate player rows")

	for _, p := range players {
		assert.Equal(t, groups[0].ID, p.GroupID, "players must hang off the persisted group")
	}
	require.NotNil(t, players[0].Odds)
	assert.InDelta(t, 1.60, *players[0].Odds, 1e-9, "favorite odds follow the latest quote")
	require.NotNil(t, players[1].Odds)
	assert.InDelta(t, 2.40, *players[1].Odds, 1e-9)
	assert.Equal(t, "decimal", players[0].OddsFormat)
}

func TestUpsertEventTracksCurrentRound(t *testing.T) {
	db := testDB(t)
	svc := NewSyncService(db, nil, nil, nil, []string{"pga"}, "@every 15m", quietLogger())

	event, err := svc.upsertEvent("pga", marketResponse(1.80, 2.10))
	require.NoError(t, err)
	assert.Equal(t, 2, event.CurrentRound)

	later := marketResponse(1.80, 2.10)
	later.RoundNum = 3
	event, err = svc.upsertEvent("pga", later)
	require.NoError(t, err)
	assert.Equal(t, 3, event.CurrentRound)

	// An out-of-order round never rolls the event backwards.
	stale := marketResponse(1.80, 2.10)
	stale.RoundNum = 1
	event, err = svc.upsertEvent("pga", stale)
	require.NoError(t, err)
	assert.Equal(t, 3, event.CurrentRound)

	var events []models.Event
	require.NoError(t, db.Find(&events).Error)
	assert.Len(t, events, 1)
}
