package api

import (
	"net/http"
	"os"
	"path/filepath"

	"gamelib/db"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
)

const (
	coverFile      = "cover.webp"
	backgroundFile = "background.webp"
)

// serveImage sends a webp from the content tree. ok is false when the id is
// unusable or the file does not exist; nothing has been written in that case.
func serveImage(c *gin.Context, dir func(string) string, id, name string) bool {
	if !db.SafeID(id) {
		return false
	}
	path := filepath.Join(dir(id), name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	c.Header("Content-Type", "image/webp")
	c.File(path)
	return true
}

// GetGameCoverHandler serves a game's cover image.
// @Summary      Game Cover
// @Tags         Images
// @Produce      image/webp
// @Param        gameId path string true "Game id"
// @Success      200
// @Failure      404  {object}  utils.APIError "Cover not found"
// @Router       /covers/{gameId} [get]
func GetGameCoverHandler(c *gin.Context, layout db.Layout) {
	if !serveImage(c, layout.GameDir, c.Param("gameId"), coverFile) {
		utils.GinNotFound(c, "Cover not found")
	}
}

// GetGameBackgroundHandler serves a game's background image. A missing image is an empty 404.
// @Summary      Game Background
// @Tags         Images
// @Produce      image/webp
// @Param        gameId path string true "Game id"
// @Success      200
// @Failure      404
// @Router       /backgrounds/{gameId} [get]
func GetGameBackgroundHandler(c *gin.Context, layout db.Layout) {
	if !serveImage(c, layout.GameDir, c.Param("gameId"), backgroundFile) {
		c.Status(http.StatusNotFound)
	}
}

// GetCategoryCoverHandler
// @Summary      Category Cover
// @Tags         Images
// @Produce      image/webp
// @Param        id path string true "Category id"
// @Success      200
// @Failure      404
// @Router       /category-covers/{id} [get]
func GetCategoryCoverHandler(c *gin.Context, layout db.Layout) {
	if !serveImage(c, layout.CategoryDir, c.Param("id"), coverFile) {
		c.Status(http.StatusNotFound)
	}
}

// GetCollectionCoverHandler
// @Summary      Collection Cover
// @Tags         Images
// @Produce      image/webp
// @Param        id path string true "Collection id"
// @Success      200
// @Failure      404
// @Router       /collection-covers/{id} [get]
func GetCollectionCoverHandler(c *gin.Context, layout db.Layout) {
	if !serveImage(c, layout.CollectionDir, c.Param("id"), coverFile) {
		c.Status(http.StatusNotFound)
	}
}
