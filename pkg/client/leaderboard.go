package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jason-s-yu/mau/pkg/types"
)

// Leaderboard returns the top users for a category.
func (c *Client) Leaderboard(ctx context.Context, category types.Category) ([]types.User, error) {
	var out []types.User
	err := c.do(ctx, http.MethodGet, "/leaderboard/"+url.PathEscape(string(category)), "", nil, &out)
	return out, err
}

// Rank returns the 1-based position of username in a category.
func (c *Client) Rank(ctx context.Context, username string, category types.Category) (int, error) {
	var out types.Rank
	path := "/leaderboard/" + url.PathEscape(username) + "/" + url.PathEscape(string(category))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return 0, err
	}
	return out.Rank, nil
}
