package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

const defaultListLimit = 50

func (a *API) listReceipts(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.fail(c, common.NewValidationError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	recs, err := a.svc.ListReceipts(c.Request.Context(), limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": recs, "count": len(recs)})
}

func (a *API) getReceipt(c *gin.Context) {
	rec, err := a.svc.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) getJob(c *gin.Context) {
	job, err := a.svc.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type parseRequest struct {
	Lines []string `json:"lines" binding:"required"`
}

func (a *API) parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.fail(c, common.NewValidationError("body must be {\"lines\": [...]}: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": a.svc.Parse(req.Lines)})
}
