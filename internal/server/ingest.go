package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

type upload struct {
	name string
	data []byte
	lang string
}

func (a *API) readUpload(c *gin.Context) (upload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return upload{}, common.NewValidationError("multipart field \"file\" is required")
	}
	if fh.Size > maxUpload {
		return upload{}, common.NewValidationError(fmt.Sprintf("file is larger than %d bytes", maxUpload))
	}
	f, err := fh.Open()
	if err != nil {
		return upload{}, common.WrapError(err, "open upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload))
	if err != nil {
		return upload{}, common.WrapError(err, "read upload")
	}
	lang := strings.TrimSpace(c.PostForm("lang"))
	if lang == "" {
		lang = strings.TrimSpace(c.Query("lang"))
	}
	return upload{name: fh.Filename, data: data, lang: lang}, nil
}

// submitReceipt queues an uploaded image and answers 202 with the job.
func (a *API) submitReceipt(c *gin.Context) {
	up, err := a.readUpload(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	job, err := a.svc.Submit(c.Request.Context(), up.name, up.data, up.lang)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Header("Location", "/api/v1/jobs/"+job.ID)
	c.JSON(http.StatusAccepted, job)
}

// extract runs the pipeline inline and answers with the stored record.
func (a *API) extract(c *gin.Context) {
	up, err := a.readUpload(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	out, err := a.svc.Extract(c.Request.Context(), up.name, up.data, up.lang)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
