package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/mau/pkg/types"
)

// gameCall posts to a /game route and decodes the caller's snapshot.
func (c *Client) gameCall(ctx context.Context, method, path, token string, body interface{}) (types.GameContext, error) {
	var out types.GameContext
	err := c.do(ctx, method, "/game"+path, token, body, &out)
	return out, err
}

// Game returns the caller's view of the game in their active room.
func (c *Client) Game(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodGet, "", token, nil)
}

func (c *Client) JoinGame(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/join", token, nil)
}

func (c *Client) LeaveGame(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/leave", token, nil)
}

// StartGame deals a game for the active room. Owner only.
func (c *Client) StartGame(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/start", token, nil)
}

// EndGame forces the running game to finish. Owner only.
func (c *Client) EndGame(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/end", token, nil)
}

// KickPlayer removes the seat of userID from the game. Owner only.
func (c *Client) KickPlayer(ctx context.Context, token, userID string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/kick/"+url.PathEscape(userID), token, nil)
}

// Skip passes the turn of the current seat.
func (c *Client) Skip(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/skip", token, nil)
}

func (c *Client) NextTurn(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/next", token, nil)
}

// Take draws a card, or the pending penalty when one is stacked.
func (c *Client) Take(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/take", token, nil)
}

func (c *Client) ShotgunTake(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/shotgun/take", token, nil)
}

func (c *Client) ShotgunShot(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/shotgun/shot", token, nil)
}

// Bluff challenges the last take-four.
func (c *Client) Bluff(ctx context.Context, token string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/bluff", token, nil)
}

func (c *Client) ChooseColor(ctx context.Context, token string, color types.CardColor) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/color/"+strconv.Itoa(int(color)), token, nil)
}

// ChoosePlayer picks the seat to swap hands with.
func (c *Client) ChoosePlayer(ctx context.Context, token, userID string) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/player/"+url.PathEscape(userID), token, nil)
}

func (c *Client) PlayCard(ctx context.Context, token string, card types.Card) (types.GameContext, error) {
	return c.gameCall(ctx, http.MethodPost, "/card", token, card)
}

// WatchGame streams snapshots of the caller's game to fn until ctx is done or the
// server closes the stream. A normal closure returns nil.
func (c *Client) WatchGame(ctx context.Context, token string, fn func(types.GameContext)) error {
	u := c.baseURL + "/game/ws?token=" + url.QueryEscape(token)
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}

	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{HTTPClient: c.http})
	if err != nil {
		if resp != nil {
			return &Error{Kind: kindFor(resp.StatusCode), Status: resp.StatusCode, Detail: "cannot open game stream", Err: err}
		}
		return &Error{Kind: ServerError, Detail: err.Error(), Err: err}
	}
	defer conn.CloseNow()

	for {
		var snapshot types.GameContext
		if err := wsjson.Read(ctx, conn, &snapshot); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return &Error{Kind: ServerError, Detail: err.Error(), Err: err}
		}
		fn(snapshot)
	}
}
