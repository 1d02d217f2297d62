package controller

import (
	"net/http"

	"github.com/KeithSSmith/switcheolytics-api/pkg/analytics"
)

func (c *Controller) leaderboard(dim analytics.Dimension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := c.requestContext(r)
		defer cancel()

		out, err := c.App.Engine.Leaderboard(ctx, dim)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleRichList returns addresses ranked by total balance.
func (c *Controller) HandleRichList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.RichList(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
