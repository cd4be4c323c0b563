package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/mau/pkg/types"
)

// Rooms lists the public rooms that have not ended.
func (c *Client) Rooms(ctx context.Context, filter types.RoomFilter) ([]types.Room, error) {
	q := url.Values{}
	if filter.OrderBy != "" {
		q.Set("order_by", string(filter.OrderBy))
	}
	if filter.Invert {
		q.Set("invert", strconv.FormatBool(true))
	}
	path := "/rooms"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []types.Room
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, id uuid.UUID) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodGet, "/rooms/"+id.String(), "", nil, &room)
	return room, err
}

func (c *Client) RandomRoom(ctx context.Context) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodGet, "/rooms/random", "", nil, &room)
	return room, err
}

// ActiveRoom returns the room the caller is a member of.
func (c *Client) ActiveRoom(ctx context.Context, token string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodGet, "/rooms/active", token, nil, &room)
	return room, err
}

func (c *Client) CreateRoom(ctx context.Context, token string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPost, "/rooms", token, nil, &room)
	return room, err
}

func (c *Client) UpdateRoom(ctx context.Context, token string, id uuid.UUID, settings types.RoomSettings) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPut, "/rooms/"+id.String(), token, settings, &room)
	return room, err
}

// JoinRoom joins a room. password is only checked for private rooms.
func (c *Client) JoinRoom(ctx context.Context, token string, id uuid.UUID, password string) (types.Room, error) {
	var body interface{}
	if password != "" {
		body = types.JoinRequest{Password: password}
	}
	var room types.Room
	err := c.do(ctx, http.MethodPost, pathID("/rooms/%s/join", id), token, body, &room)
	return room, err
}

func (c *Client) LeaveRoom(ctx context.Context, token string, id uuid.UUID) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPost, pathID("/rooms/%s/leave", id), token, nil, &room)
	return room, err
}

// Kick removes username from the room. Owner only.
func (c *Client) Kick(ctx context.Context, token string, id uuid.UUID, username string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPost, pathID("/rooms/%s/kick/%s", id, url.PathEscape(username)), token, nil, &room)
	return room, err
}

// TransferOwner hands the room to username. Owner only.
func (c *Client) TransferOwner(ctx context.Context, token string, id uuid.UUID, username string) (types.Room, error) {
	var room types.Room
	err := c.do(ctx, http.MethodPost, pathID("/rooms/%s/owner/%s", id, url.PathEscape(username)), token, nil, &room)
	return room, err
}

// Rules lists every known rule with its status in the room.
func (c *Client) Rules(ctx context.Context, id uuid.UUID) ([]types.RoomRule, error) {
	var out []types.RoomRule
	err := c.do(ctx, http.MethodGet, pathID("/rooms/%s/modes", id), "", nil, &out)
	return out, err
}

// UpdateRules replaces the enabled rules of the room.
func (c *Client) UpdateRules(ctx context.Context, token string, id uuid.UUID, keys []string) ([]types.RoomRule, error) {
	if keys == nil {
		keys = []string{}
	}
	var out []types.RoomRule
	err := c.do(ctx, http.MethodPut, pathID("/rooms/%s/modes", id), token, types.RulesUpdate{Rules: keys}, &out)
	return out, err
}
