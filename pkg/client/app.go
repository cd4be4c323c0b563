package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
)

// App is the feature layer over Client. Failures are reported to the Notifier and the
// call returns an empty list, nil or false. Session state changes only on login, logout,
// join and leave.
type App struct {
	Client   *Client
	Session  SessionStore
	Notifier Notifier
}

func NewApp(c *Client, session SessionStore, notifier Notifier) *App {
	return &App{Client: c, Session: session, Notifier: notifier}
}

func (a *App) fail(title string, err error) {
	body := err.Error()
	var e *Error
	if errors.As(err, &e) {
		body = e.Detail
	}
	a.Notifier.Notify(Notification{Title: title, Body: body, Severity: SeverityError})
}

// Token returns the stored session token.
func (a *App) Token() string {
	t, _ := a.Session.Get(KeySessionToken)
	return t
}

// ActiveRoomID returns the cached id of the room the user is in.
func (a *App) ActiveRoomID() (uuid.UUID, bool) {
	v, ok := a.Session.Get(KeyActiveRoomID)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (a *App) LoggedIn() bool { return a.Token() != "" }

func (a *App) storeLogin(username, token string) bool {
	if err := a.Session.Set(KeySessionID, username); err != nil {
		a.fail("Cannot save session", err)
		return false
	}
	if err := a.Session.Set(KeySessionToken, token); err != nil {
		a.fail("Cannot save session", err)
		return false
	}
	return true
}

func (a *App) setActiveRoom(id uuid.UUID) {
	if err := a.Session.Set(KeyActiveRoomID, id.String()); err != nil {
		a.fail("Cannot save session", err)
	}
}

func (a *App) clearActiveRoom() {
	if err := a.Session.Delete(KeyActiveRoomID); err != nil {
		a.fail("Cannot save session", err)
	}
}

// Login stores the session of username on success.
func (a *App) Login(ctx context.Context, username, password string) bool {
	token, err := a.Client.Login(ctx, types.Credentials{Username: username, Password: password})
	if err != nil {
		a.fail("Login failed", err)
		return false
	}
	return a.storeLogin(username, token)
}

func (a *App) Register(ctx context.Context, username, password string) bool {
	token, err := a.Client.Register(ctx, types.Credentials{Username: username, Password: password})
	if err != nil {
		a.fail("Registration failed", err)
		return false
	}
	return a.storeLogin(username, token)
}

// Logout forgets every stored session key.
func (a *App) Logout() {
	for _, key := range []string{KeySessionID, KeySessionToken, KeyActiveRoomID} {
		if err := a.Session.Delete(key); err != nil {
			a.fail("Cannot clear session", err)
		}
	}
}

func (a *App) Me(ctx context.Context) *types.User {
	u, err := a.Client.Me(ctx, a.Token())
	if err != nil {
		a.fail("Cannot load profile", err)
		return nil
	}
	return &u
}

func (a *App) UpdateProfile(ctx context.Context, name, avatarURL string) *types.User {
	u, err := a.Client.UpdateProfile(ctx, a.Token(), types.ProfileUpdate{Name: name, AvatarURL: avatarURL})
	if err != nil {
		a.fail("Cannot update profile", err)
		return nil
	}
	return &u
}

func (a *App) ChangePassword(ctx context.Context, oldPassword, newPassword string) bool {
	_, err := a.Client.ChangePassword(ctx, a.Token(), types.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		a.fail("Cannot change password", err)
		return false
	}
	return true
}

func (a *App) User(ctx context.Context, username string) *types.User {
	u, err := a.Client.User(ctx, username)
	if err != nil {
		a.fail("Cannot load user", err)
		return nil
	}
	return &u
}

func (a *App) Challenges(ctx context.Context) []types.Challenge {
	out, err := a.Client.Challenges(ctx, a.Token())
	if err != nil {
		a.fail("Cannot load challenges", err)
		return []types.Challenge{}
	}
	return out
}

func (a *App) Rooms(ctx context.Context, filter types.RoomFilter) []types.Room {
	out, err := a.Client.Rooms(ctx, filter)
	if err != nil {
		a.fail("Cannot load rooms", err)
		return []types.Room{}
	}
	return out
}

func (a *App) Room(ctx context.Context, id uuid.UUID) *types.Room {
	room, err := a.Client.Room(ctx, id)
	if err != nil {
		a.fail("Cannot load room", err)
		return nil
	}
	return &room
}

func (a *App) RandomRoom(ctx context.Context) *types.Room {
	room, err := a.Client.RandomRoom(ctx)
	if err != nil {
		a.fail("No open room", err)
		return nil
	}
	return &room
}

// ActiveRoom asks the server which room the user is in.
func (a *App) ActiveRoom(ctx context.Context) *types.Room {
	room, err := a.Client.ActiveRoom(ctx, a.Token())
	if err != nil {
		a.fail("Cannot load active room", err)
		return nil
	}
	return &room
}

// CreateRoom creates a room owned by the user and makes it the active room.
func (a *App) CreateRoom(ctx context.Context) *types.Room {
	room, err := a.Client.CreateRoom(ctx, a.Token())
	if err != nil {
		a.fail("Cannot create room", err)
		return nil
	}
	a.setActiveRoom(room.ID)
	return &room
}

func (a *App) UpdateRoom(ctx context.Context, id uuid.UUID, settings types.RoomSettings) *types.Room {
	room, err := a.Client.UpdateRoom(ctx, a.Token(), id, settings)
	if err != nil {
		a.fail("Cannot update room", err)
		return nil
	}
	return &room
}

func (a *App) JoinRoom(ctx context.Context, id uuid.UUID, password string) *types.Room {
	room, err := a.Client.JoinRoom(ctx, a.Token(), id, password)
	if err != nil {
		a.fail("Cannot join room", err)
		return nil
	}
	a.setActiveRoom(room.ID)
	return &room
}

// LeaveRoom leaves the room and forgets the active room whether or not the server agreed.
func (a *App) LeaveRoom(ctx context.Context, id uuid.UUID) bool {
	defer a.clearActiveRoom()
	if _, err := a.Client.LeaveRoom(ctx, a.Token(), id); err != nil {
		a.fail("Cannot leave room", err)
		return false
	}
	return true
}

func (a *App) Kick(ctx context.Context, id uuid.UUID, username string) *types.Room {
	room, err := a.Client.Kick(ctx, a.Token(), id, username)
	if err != nil {
		a.fail("Cannot kick player", err)
		return nil
	}
	return &room
}

func (a *App) TransferOwner(ctx context.Context, id uuid.UUID, username string) *types.Room {
	room, err := a.Client.TransferOwner(ctx, a.Token(), id, username)
	if err != nil {
		a.fail("Cannot transfer ownership", err)
		return nil
	}
	return &room
}

func (a *App) Rules(ctx context.Context, id uuid.UUID) []types.RoomRule {
	out, err := a.Client.Rules(ctx, id)
	if err != nil {
		a.fail("Cannot load rules", err)
		return []types.RoomRule{}
	}
	return out
}

func (a *App) UpdateRules(ctx context.Context, id uuid.UUID, keys []string) []types.RoomRule {
	out, err := a.Client.UpdateRules(ctx, a.Token(), id, keys)
	if err != nil {
		a.fail("Cannot update rules", err)
		return []types.RoomRule{}
	}
	return out
}

func (a *App) Leaderboard(ctx context.Context, category types.Category) []types.User {
	out, err := a.Client.Leaderboard(ctx, category)
	if err != nil {
		a.fail("Cannot load leaderboard", err)
		return []types.User{}
	}
	return out
}

// Rank returns 0 when the rank cannot be loaded.
func (a *App) Rank(ctx context.Context, username string, category types.Category) int {
	rank, err := a.Client.Rank(ctx, username, category)
	if err != nil {
		a.fail("Cannot load rank", err)
		return 0
	}
	return rank
}

// GameAction is a Client game call bound to everything but the token.
type GameAction func(ctx context.Context, token string) (types.GameContext, error)

// Act runs one game action and returns the resulting snapshot.
func (a *App) Act(ctx context.Context, title string, action GameAction) *types.GameContext {
	snapshot, err := action(ctx, a.Token())
	if err != nil {
		a.fail(title, err)
		return nil
	}
	return &snapshot
}

func (a *App) Game(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot load game", a.Client.Game)
}

func (a *App) StartGame(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot start game", a.Client.StartGame)
}

func (a *App) EndGame(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot end game", a.Client.EndGame)
}

func (a *App) JoinGame(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot join game", a.Client.JoinGame)
}

func (a *App) LeaveGame(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot leave game", a.Client.LeaveGame)
}

func (a *App) Take(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot take cards", a.Client.Take)
}

func (a *App) NextTurn(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot end turn", a.Client.NextTurn)
}

func (a *App) Skip(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot skip turn", a.Client.Skip)
}

func (a *App) Bluff(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot call bluff", a.Client.Bluff)
}

func (a *App) ShotgunTake(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot take from shotgun", a.Client.ShotgunTake)
}

func (a *App) ShotgunShot(ctx context.Context) *types.GameContext {
	return a.Act(ctx, "Cannot fire shotgun", a.Client.ShotgunShot)
}

func (a *App) ChooseColor(ctx context.Context, color types.CardColor) *types.GameContext {
	return a.Act(ctx, "Cannot choose color", func(ctx context.Context, token string) (types.GameContext, error) {
		return a.Client.ChooseColor(ctx, token, color)
	})
}

func (a *App) ChoosePlayer(ctx context.Context, userID string) *types.GameContext {
	return a.Act(ctx, "Cannot choose player", func(ctx context.Context, token string) (types.GameContext, error) {
		return a.Client.ChoosePlayer(ctx, token, userID)
	})
}

func (a *App) KickPlayer(ctx context.Context, userID string) *types.GameContext {
	return a.Act(ctx, "Cannot kick player", func(ctx context.Context, token string) (types.GameContext, error) {
		return a.Client.KickPlayer(ctx, token, userID)
	})
}

func (a *App) PlayCard(ctx context.Context, card types.Card) *types.GameContext {
	return a.Act(ctx, "Cannot play card", func(ctx context.Context, token string) (types.GameContext, error) {
		return a.Client.PlayCard(ctx, token, card)
	})
}
