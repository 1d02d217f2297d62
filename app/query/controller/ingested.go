package controller

import (
	"net/http"
)

// ingested serves {key: count} for an ingested collection.
func (c *Controller) ingested(collection, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := c.requestContext(r)
		defer cancel()

		n, err := c.App.Engine.IngestedCount(ctx, collection)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{key: n})
	}
}
