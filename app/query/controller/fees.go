package controller

import (
	"net/http"
)

// HandleFeeAmounts returns window -> asset -> raw summed fee amount.
func (c *Controller) HandleFeeAmounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.FeeAmounts(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleFeeCounts returns window -> asset -> fee record count.
func (c *Controller) HandleFeeCounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.FeeCounts(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleFeeGraph returns the per-asset daily fee series.
func (c *Controller) HandleFeeGraph(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.FeeGraph(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleBurn returns the burn report.
func (c *Controller) HandleBurn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.requestContext(r)
	defer cancel()

	out, err := c.App.Engine.Burn(ctx)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
