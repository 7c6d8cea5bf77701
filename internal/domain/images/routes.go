package images

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the image endpoints under /images.
// Static segments (upload, ref, allmeta) take precedence over :id.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	images := r.Group("/images")
	{
		images.POST("/upload", h.Upload)
		images.GET("/ref", h.GetByReference)
		images.GET("/allmeta", h.ListAllMeta)
		images.GET("/:id", h.GetImage)
		images.GET("/:id/meta", h.GetMeta)
		images.PUT("/:id/meta", h.UpdateMeta)
		images.DELETE("/:id", h.Delete)
	}
}
