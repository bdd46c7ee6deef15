package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/dataroom/pkg/internal/service"
)

// GetStats 当前用户的存量统计，按数据室分组.
//
//	@Summary	存量统计
//	@Tags		统计
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.StatsResponse
//	@Failure	401	{object}	types.ErrorResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/api/v1/stats [get]
func GetStats(c *gin.Context) {
	stats, err := service.NewStatsService(c.Request.Context()).Summary(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
