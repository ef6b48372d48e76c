package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *API) exportXLSX(c *gin.Context) {
	data, err := a.svc.ExportXLSX(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	name := fmt.Sprintf("fisler-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
