package controller

import (
	"net/http"
)

// HandleOpenOffers lists every open offer. An offer on an unknown pair fails the whole listing.
func (c *Controller) HandleOpenOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.OpenOffers(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
