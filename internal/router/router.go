package router

import (
	"github.com/gin-gonic/gin"

	"clipcast/internal/handler"
)

func SetupRouter(r *gin.Engine) {
	api := r.Group("/api")

	hdl := handler.NewHandler()
	{
		api.GET("/jobs", hdl.GetJobHistory)
		api.GET("/job", hdl.GetClipJob)
		api.DELETE("/job/:jobId", hdl.DeleteClipJob)
	}
}
