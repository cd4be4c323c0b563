// internal/game/game_test.go
package game

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of publishing them.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []GameEvent
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = append(mb.events, ev)
}

func (mb *mockBroadcaster) has(t GameEventType) bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for _, ev := range mb.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

var (
	red3      = Card{Color: types.ColorRed, Type: types.CardNumber, Value: 3}
	red5      = Card{Color: types.ColorRed, Type: types.CardNumber, Value: 5}
	blue7     = Card{Color: types.ColorBlue, Type: types.CardNumber, Value: 7}
	green1    = Card{Color: types.ColorGreen, Type: types.CardNumber, Value: 1}
	redTake   = Card{Color: types.ColorRed, Type: types.CardTake, Value: 2}
	blueTake  = Card{Color: types.ColorBlue, Type: types.CardTake, Value: 2}
	takeFour  = Card{Color: types.ColorBlack, Type: types.CardTakeFour, Value: 4}
	chooseCol = Card{Color: types.ColorBlack, Type: types.CardChooseColor}
)

// setupTestGame starts a game with numPlayers seats named p0..pN and then resets the
// turn state so each test can arrange hands and the top card itself.
func setupTestGame(t *testing.T, numPlayers int, rules ...string) (*MauGame, []*Player, *mockBroadcaster) {
	t.Helper()
	rs, err := NewRuleSet(rules)
	require.NoError(t, err)

	g := NewMauGame(uuid.New(), "p0", rs, rand.New(rand.NewSource(42)))
	mb := &mockBroadcaster{}
	g.BroadcastFn = mb.broadcastFn

	for i := 0; i < numPlayers; i++ {
		id := string(rune('0' + i))
		require.NoError(t, g.AddPlayer("p"+id, "Player "+id))
	}
	require.NoError(t, g.Start())

	// Restore seating order and a neutral turn.
	players := make([]*Player, numPlayers)
	for _, p := range g.Players {
		players[int(p.UserID[1]-'0')] = p
	}
	g.Players = append([]*Player{}, players...)
	g.CurrentPlayerIndex = 0
	g.State = types.StateNext
	g.TakeCounter = 0
	g.TakeFlag = false
	g.Reverse = false
	setTop(g, red3)
	for _, p := range players {
		p.Hand = []Card{blue7, green1}
	}
	return g, players, mb
}

func setTop(g *MauGame, c Card) {
	g.Deck.PutOnTop(c)
}

func currentID(g *MauGame) string {
	return g.Players[g.CurrentPlayerIndex].UserID
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	g := NewMauGame(uuid.New(), "solo", nil, rand.New(rand.NewSource(1)))
	require.NoError(t, g.AddPlayer("solo", "Solo"))

	err := g.Start()
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.False(t, g.Started)
}

func TestStartDealsHands(t *testing.T) {
	g := NewMauGame(uuid.New(), "a", nil, rand.New(rand.NewSource(7)))
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddPlayer(id, id))
	}
	require.NoError(t, g.Start())

	total := g.Deck.Remaining() + g.Deck.Used() + 1
	for _, p := range g.Players {
		assert.Len(t, p.Hand, firstHandSize)
		total += len(p.Hand)
	}
	assert.Equal(t, 108, total, "classic deck has 108 cards")

	top, ok := g.Deck.Top()
	require.True(t, ok)
	assert.NotEqual(t, types.ColorBlack, top.Color, "first card is never black")
	assert.ErrorIs(t, g.Start(), ErrAlreadyStarted)
	assert.ErrorIs(t, g.AddPlayer("a", "a"), ErrAlreadyJoined)
}

func TestDebugCardsHand(t *testing.T) {
	g, _, _ := setupTestGame(t, 2, RuleDebugCards)
	require.NoError(t, g.AddPlayer("late", "Late"))
	p := g.playerByID("late")
	require.Len(t, p.Hand, 26)
	assert.Equal(t, types.CardTakeFour, p.Hand[0].Type)
}

func TestTakeFourLocksUntilColorChosen(t *testing.T) {
	g, players, mb := setupTestGame(t, 3)
	players[0].Hand = []Card{takeFour, red5}

	require.NoError(t, g.PlayCard("p0", takeFour))
	assert.Equal(t, types.StateChooseColor, g.State)
	assert.Equal(t, 4, g.TakeCounter)
	assert.Equal(t, "p0", currentID(g), "turn waits for the color")
	assert.True(t, mb.has(EventStateChange))

	assert.ErrorIs(t, g.PlayCard("p0", red5), ErrWrongState)
	assert.ErrorIs(t, g.Take("p0"), ErrWrongState)
	assert.ErrorIs(t, g.NextTurn("p0"), ErrWrongState)
	assert.ErrorIs(t, g.CallBluff("p0"), ErrWrongState)
	assert.ErrorIs(t, g.ShotgunShot("p0"), ErrWrongState)
	assert.ErrorIs(t, g.ShotgunTake("p0"), ErrWrongState)
	assert.ErrorIs(t, g.ChoosePlayer("p0", "p1"), ErrWrongState)
	assert.ErrorIs(t, g.Take("p1"), ErrNotYourTurn)
	assert.ErrorIs(t, g.Skip("p1", time.Minute), ErrTurnNotExpired)
	assert.ErrorIs(t, g.ChooseColor("p0", types.ColorBlack), ErrInvalidColor)
	assert.Equal(t, types.StateChooseColor, g.State)

	require.NoError(t, g.ChooseColor("p0", types.ColorBlue))
	assert.Equal(t, types.StateNext, g.State)
	assert.Equal(t, "p1", currentID(g))
	top, _ := g.Deck.Top()
	assert.Equal(t, types.ColorBlue, top.Color)
	assert.Equal(t, 4, g.TakeCounter, "penalty passes to the next seat")
}

func TestAutoChooseColor(t *testing.T) {
	g, players, _ := setupTestGame(t, 2, RuleAutoChooseColor)
	players[0].Hand = []Card{chooseCol, red5}

	require.NoError(t, g.PlayCard("p0", chooseCol))
	assert.Equal(t, types.StateNext, g.State)
	top, _ := g.Deck.Top()
	assert.Equal(t, types.ColorBlue, top.Color, "red - 1 wraps to blue")
	assert.Equal(t, "p1", currentID(g))
}

func TestCallBluff(t *testing.T) {
	t.Run("bluffer takes the penalty", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 2)
		players[0].Hand = []Card{takeFour, red5, blue7}
		require.NoError(t, g.PlayCard("p0", takeFour))
		require.NoError(t, g.ChooseColor("p0", types.ColorGreen))

		require.NoError(t, g.CallBluff("p1"))
		assert.Len(t, players[0].Hand, 6)
		assert.Len(t, players[1].Hand, 2)
		assert.Equal(t, 0, g.TakeCounter)
		assert.Equal(t, "p0", currentID(g))
	})

	t.Run("honest player makes the caller take six", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 2)
		players[0].Hand = []Card{takeFour, blue7}
		require.NoError(t, g.PlayCard("p0", takeFour))
		require.NoError(t, g.ChooseColor("p0", types.ColorGreen))

		require.NoError(t, g.CallBluff("p1"))
		assert.Len(t, players[0].Hand, 1)
		assert.Len(t, players[1].Hand, 8)
	})

	t.Run("nothing to challenge", func(t *testing.T) {
		g, _, _ := setupTestGame(t, 2)
		assert.ErrorIs(t, g.CallBluff("p0"), ErrNoBluff)
	})
}

func TestTakeCardStacking(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	players[0].Hand = []Card{redTake, red5}
	players[1].Hand = []Card{blueTake, blue7, red5}

	require.NoError(t, g.PlayCard("p0", redTake))
	assert.Equal(t, 2, g.TakeCounter)
	assert.Equal(t, "p1", currentID(g))

	assert.ErrorIs(t, g.PlayCard("p1", red5), ErrCannotCover, "only take cards stack")
	ctx := g.GetCurrentGameState("p1")
	require.Len(t, ctx.Player.Hand.Cover, 1)
	assert.Equal(t, types.CardTake, ctx.Player.Hand.Cover[0].CardType)

	require.NoError(t, g.PlayCard("p1", blueTake))
	assert.Equal(t, 4, g.TakeCounter)

	before := len(players[2].Hand)
	require.NoError(t, g.Take("p2"))
	assert.Len(t, players[2].Hand, before+4)
	assert.Equal(t, 0, g.TakeCounter)
	assert.Equal(t, "p0", currentID(g), "forced draw ends the turn")
}

func TestTakeAndNext(t *testing.T) {
	g, players, _ := setupTestGame(t, 2)

	assert.ErrorIs(t, g.NextTurn("p0"), ErrMustTake)
	require.NoError(t, g.Take("p0"))
	assert.Len(t, players[0].Hand, 3)
	assert.True(t, g.TakeFlag)
	assert.Equal(t, "p0", currentID(g), "a plain draw keeps the turn")
	assert.ErrorIs(t, g.Take("p0"), ErrAlreadyTook)

	require.NoError(t, g.NextTurn("p0"))
	assert.Equal(t, "p1", currentID(g))
	assert.False(t, g.TakeFlag)
}

func TestTakeUntilCover(t *testing.T) {
	g, players, _ := setupTestGame(t, 2, RuleTakeUntilCover)
	want := g.Deck.CountUntilCover()

	require.NoError(t, g.Take("p0"))
	assert.Len(t, players[0].Hand, 2+want)
	last := players[0].Hand[len(players[0].Hand)-1]
	assert.True(t, last.CanCover(red3))
}

func TestShotgun(t *testing.T) {
	t.Run("miss grows the penalty", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 3, RuleShotgun)
		setTop(g, redTake)
		g.TakeCounter = 4
		players[0].Shotgun = Shotgun{lose: 8}

		require.NoError(t, g.Take("p0"))
		assert.Equal(t, types.StateShotgun, g.State)
		assert.Len(t, players[0].Hand, 2, "nothing drawn yet")

		require.NoError(t, g.ShotgunShot("p0"))
		assert.Equal(t, 6, g.TakeCounter)
		assert.Equal(t, "p1", currentID(g))
		assert.Equal(t, types.StateShotgun, g.State)
		assert.Equal(t, 1, players[0].Shotgun.Cur)

		require.NoError(t, g.ShotgunTake("p1"))
		assert.Len(t, players[1].Hand, 8)
		assert.Equal(t, "p2", currentID(g))
		assert.Equal(t, types.StateNext, g.State)
	})

	t.Run("hit knocks the player out", func(t *testing.T) {
		g, players, mb := setupTestGame(t, 2, RuleShotgun)
		setTop(g, redTake)
		g.TakeCounter = 4
		players[0].Shotgun = Shotgun{lose: 1}

		require.NoError(t, g.Take("p0"))
		require.NoError(t, g.ShotgunShot("p0"))
		assert.True(t, g.GameOver)
		assert.True(t, mb.has(EventGameEnd))

		res := g.Result()
		assert.ElementsMatch(t, []string{"p0", "p1"}, res.Losers)
		assert.Empty(t, res.Winners)
	})
}

func TestLastCardWins(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	players[0].Hand = []Card{red5}

	require.NoError(t, g.PlayCard("p0", red5))
	require.Len(t, g.Winners, 1)
	assert.Equal(t, "p0", g.Winners[0].UserID)
	assert.Len(t, g.Players, 2)
	assert.False(t, g.GameOver)
	assert.Equal(t, "p1", currentID(g))

	players[1].Hand = []Card{red3}
	require.NoError(t, g.PlayCard("p1", red3))
	assert.True(t, g.GameOver)
	res := g.Result()
	assert.Equal(t, []string{"p0", "p1"}, res.Winners)
	assert.Equal(t, []string{"p2"}, res.Losers)
	assert.Equal(t, 1, res.Played["p0"])
}

func TestTwistHand(t *testing.T) {
	g, players, _ := setupTestGame(t, 3, RuleTwistHand)
	red2 := Card{Color: types.ColorRed, Type: types.CardNumber, Value: 2}
	players[0].Hand = []Card{red2, red5}
	players[2].Hand = []Card{blue7, blue7, blue7}

	require.NoError(t, g.PlayCard("p0", red2))
	assert.Equal(t, types.StateTwistHand, g.State)
	assert.ErrorIs(t, g.ChoosePlayer("p0", "p0"), ErrInvalidTarget)
	assert.ErrorIs(t, g.ChoosePlayer("p0", "ghost"), ErrInvalidTarget)

	require.NoError(t, g.ChoosePlayer("p0", "p2"))
	assert.Len(t, players[0].Hand, 3)
	assert.Equal(t, []Card{red5}, players[2].Hand)
	assert.Equal(t, "p1", currentID(g))
}

func TestRotateCards(t *testing.T) {
	g, players, _ := setupTestGame(t, 3, RuleRotateCards)
	red0 := Card{Color: types.ColorRed, Type: types.CardNumber, Value: 0}
	players[0].Hand = []Card{red0, red5}
	players[1].Hand = []Card{blue7}
	players[2].Hand = []Card{green1, green1}

	require.NoError(t, g.PlayCard("p0", red0))
	assert.Equal(t, []Card{green1, green1}, players[0].Hand)
	assert.Equal(t, []Card{red5}, players[1].Hand)
	assert.Equal(t, []Card{blue7}, players[2].Hand)
}

func TestReverseAndTurnCards(t *testing.T) {
	reverse := Card{Color: types.ColorRed, Type: types.CardReverse}
	skip := Card{Color: types.ColorRed, Type: types.CardTurn, Value: 1}

	t.Run("reverse with two players acts as skip", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 2)
		players[0].Hand = []Card{reverse, red5}
		require.NoError(t, g.PlayCard("p0", reverse))
		assert.Equal(t, "p0", currentID(g))
		assert.False(t, g.Reverse)
	})

	t.Run("reverse flips direction", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 3)
		players[0].Hand = []Card{reverse, red5}
		require.NoError(t, g.PlayCard("p0", reverse))
		assert.True(t, g.Reverse)
		assert.Equal(t, "p2", currentID(g))
	})

	t.Run("turn skips a seat", func(t *testing.T) {
		g, players, _ := setupTestGame(t, 3)
		players[0].Hand = []Card{skip, red5}
		require.NoError(t, g.PlayCard("p0", skip))
		assert.Equal(t, "p2", currentID(g))
	})
}

func TestSideEffectContinue(t *testing.T) {
	g, players, _ := setupTestGame(t, 2, RuleSideEffect)
	red1 := Card{Color: types.ColorRed, Type: types.CardNumber, Value: 1}
	players[0].Hand = []Card{red1, red5, blue7}

	require.NoError(t, g.PlayCard("p0", red1))
	assert.Equal(t, types.StateContinue, g.State)
	assert.Equal(t, "p0", currentID(g))
	assert.ErrorIs(t, g.Take("p0"), ErrWrongState)

	require.NoError(t, g.PlayCard("p0", red5))
	assert.Equal(t, "p1", currentID(g))
}

func TestIntervention(t *testing.T) {
	g, players, _ := setupTestGame(t, 3, RuleIntervention)
	players[2].Hand = []Card{red3, blue7}

	require.NoError(t, g.PlayCard("p2", red3))
	assert.Equal(t, "p0", currentID(g), "turn continues after the intervening seat")
	assert.Equal(t, []Card{blue7}, players[2].Hand)

	assert.ErrorIs(t, g.PlayCard("p2", blue7), ErrNotYourTurn)
}

func TestPlayCardRejections(t *testing.T) {
	g, players, _ := setupTestGame(t, 2)
	players[0].Hand = []Card{blue7}

	assert.ErrorIs(t, g.PlayCard("p1", green1), ErrNotYourTurn)
	assert.ErrorIs(t, g.PlayCard("p0", red5), ErrCardNotInHand)
	assert.ErrorIs(t, g.PlayCard("p0", blue7), ErrCannotCover)
	assert.ErrorIs(t, g.PlayCard("ghost", blue7), ErrNotPlayer)
}

func TestSkip(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	now := time.Now()
	g.SetClock(func() time.Time { return now })
	g.TurnStart = now

	assert.ErrorIs(t, g.Skip("p1", 30*time.Second), ErrTurnNotExpired)
	assert.ErrorIs(t, g.Skip("ghost", 0), ErrNotPlayer)

	now = now.Add(time.Minute)
	require.NoError(t, g.Skip("p1", 30*time.Second))
	assert.Len(t, players[0].Hand, 3)
	assert.Equal(t, "p1", currentID(g))

	require.NoError(t, g.Skip("p0", time.Hour), "the owner skips at any time")
	assert.Equal(t, "p2", currentID(g))
}

func TestRemovePlayer(t *testing.T) {
	g, _, _ := setupTestGame(t, 3)

	require.NoError(t, g.RemovePlayer("p0"))
	assert.Equal(t, "p1", currentID(g), "next seat takes the turn")
	require.Len(t, g.Losers, 1)
	assert.ErrorIs(t, g.RemovePlayer("p0"), ErrNotPlayer)

	require.NoError(t, g.RemovePlayer("p2"))
	assert.True(t, g.GameOver)
	assert.Empty(t, g.Players)
}

func TestLeaveWhileChoosingColor(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	players[0].Hand = []Card{chooseCol, red5}
	yellow9 := Card{Color: types.ColorYellow, Type: types.CardNumber, Value: 9}
	players[1].Hand = []Card{red3, blue7, green1, yellow9}

	require.NoError(t, g.PlayCard("p0", chooseCol))
	require.Equal(t, types.StateChooseColor, g.State)
	require.NoError(t, g.RemovePlayer("p0"))

	assert.Equal(t, types.StateNext, g.State)
	assert.Equal(t, "p1", currentID(g))
	top, ok := g.Deck.Top()
	require.True(t, ok)
	assert.NotEqual(t, types.ColorBlack, top.Color)
	assert.Len(t, g.sortHand(players[1]).Cover, 1, "exactly one card matches the new color")
}

func TestLeaveReturnsHandToDeck(t *testing.T) {
	g, players, _ := setupTestGame(t, 3)
	players[2].Hand = []Card{red5, takeFour, blue7}
	used := g.Deck.Used()

	require.NoError(t, g.RemovePlayer("p2"))
	assert.Equal(t, used+3, g.Deck.Used())
	assert.Empty(t, players[2].Hand)
	require.Len(t, g.Losers, 1)
	assert.Equal(t, "p2", g.Losers[0].UserID)
}

func TestGameStateHidesOtherHands(t *testing.T) {
	g, _, _ := setupTestGame(t, 2)

	ctx := g.GetCurrentGameState("p0")
	require.NotNil(t, ctx.Game)
	require.NotNil(t, ctx.Player)
	assert.Equal(t, "p0", ctx.Player.UserID)
	assert.Len(t, ctx.Player.Hand.Cover, 0)
	assert.Len(t, ctx.Player.Hand.Uncover, 2)
	require.Len(t, ctx.Game.Players, 2)
	assert.Equal(t, 2, ctx.Game.Players[1].Hand)
	require.NotNil(t, ctx.Game.Deck.Top)
	assert.Equal(t, 3, ctx.Game.Deck.Top.Value)
	assert.Len(t, ctx.Game.Rules, len(Rules))

	spectator := g.GetCurrentGameState("nobody")
	assert.Nil(t, spectator.Player)
}

func TestDeck(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(3)))
	d.Fill(ClassicPreset)
	require.Equal(t, 108, d.Remaining())

	drawn := d.Take(100)
	require.Len(t, drawn, 100)
	for _, c := range drawn {
		d.Put(c)
	}
	assert.Equal(t, 100, d.Used())

	more := d.Take(20)
	assert.Len(t, more, 20, "used pile is reshuffled back in")
	assert.Equal(t, 88, d.Remaining())
	assert.Zero(t, d.Used())

	wild := takeFour
	wild.Color = types.ColorGreen
	d.Put(wild)
	assert.Equal(t, types.ColorBlack, d.used[len(d.used)-1].Color)

	empty := NewDeck(rand.New(rand.NewSource(3)))
	_, err := empty.TakeOne()
	assert.ErrorIs(t, err, ErrDeckEmpty)
}

func TestCardCover(t *testing.T) {
	assert.True(t, red5.CanCover(red3), "same color")
	assert.True(t, Card{Color: types.ColorBlue, Type: types.CardNumber, Value: 3}.CanCover(red3), "same value")
	assert.False(t, blue7.CanCover(red3))
	assert.True(t, takeFour.CanCover(blue7))
	assert.True(t, blueTake.CanCover(redTake))
	assert.Equal(t, 50, takeFour.Cost())
	assert.Equal(t, 20, redTake.Cost())
	assert.Equal(t, 7, blue7.Cost())

	_, err := CardFromData(types.Card{Color: types.ColorBlack, CardType: types.CardNumber, Value: 1})
	assert.ErrorIs(t, err, ErrInvalidCard)
	c, err := CardFromData(types.Card{Color: types.ColorBlack, CardType: types.CardTakeFour})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Value)
}

func TestGameStore(t *testing.T) {
	s := NewGameStore()
	g := NewMauGame(uuid.New(), "a", nil, nil)

	assert.True(t, s.AddGame(g))
	assert.False(t, s.AddGame(g))
	got, ok := s.GetGameByRoomID(g.RoomID)
	require.True(t, ok)
	assert.Same(t, g, got)

	other := NewMauGame(g.RoomID, "b", nil, nil)
	assert.False(t, s.DeleteGame(other))
	assert.True(t, s.DeleteGame(g))
	assert.False(t, s.DeleteGame(g))
	_, ok = s.GetGameByRoomID(g.RoomID)
	assert.False(t, ok)
}
