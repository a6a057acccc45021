package api

import (
	"net/http"

	"gamelib/db"
	"gamelib/models"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
)

// SectionsResponse is returned by GET /recommended.
type SectionsResponse struct {
	Sections []models.RecommendedSection `json:"sections"`
}

// CreateCategoryRequest is the body of POST /categories.
type CreateCategoryRequest struct {
	Title string `json:"title" example:"Point and Click"`
}

// ReorderRequest is the body of PUT /collections/{id}/games/order.
type ReorderRequest struct {
	Games []string `json:"games"`
}

// --- Recommended ---

// GetRecommendedHandler returns the recommended sections with their games resolved.
// @Summary      Recommended Games
// @Description  Flat legacy files (an array of game ids or game objects) are returned as a single section with id `recommended`.
// @Description  Ids that do not resolve in the game index are left out.
// @Tags         Recommended
// @Produce      json
// @Security     ApiToken
// @Success      200  {object}  SectionsResponse
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /recommended [get]
func GetRecommendedHandler(c *gin.Context, database *db.Database) {
	sections := database.RecommendedSections()
	out := make([]models.RecommendedSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, models.RecommendedSection{ID: s.ID, Games: projectGames(s.Games)})
	}
	c.JSON(http.StatusOK, SectionsResponse{Sections: out})
}

// --- Categories ---

// ListCategoriesHandler
// @Summary      List Categories
// @Tags         Categories
// @Produce      json
// @Security     ApiToken
// @Success      200  {array}   models.Category
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /categories [get]
func ListCategoriesHandler(c *gin.Context, database *db.Database) {
	recs := database.ListCategories()
	out := make([]models.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, projectCategory(rec))
	}
	c.JSON(http.StatusOK, out)
}

// CreateCategoryHandler adds a category.
// @Summary      Create Category
// @Description  The title is stored trimmed and lowercased; the id is `genre_` followed by the title with whitespace replaced by `_`.
// @Description  The list is kept sorted by title.
// @Tags         Categories
// @Accept       json
// @Produce      json
// @Security     ApiToken
// @Param        category body CreateCategoryRequest true "New category"
// @Success      201  {object}  models.Category
// @Failure      400  {object}  utils.APIError "Title is required"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      409  {object}  utils.APIError "Category already exists"
// @Router       /categories [post]
func CreateCategoryHandler(c *gin.Context, database *db.Database) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, msgInvalidBody)
		return
	}
	rec, err := database.CreateCategory(req.Title)
	if err != nil {
		respondStoreError(c, err, msgCategoryNotFound)
		return
	}
	c.JSON(http.StatusCreated, projectCategory(rec))
}

// DeleteCategoryHandler removes a category no game references.
// @Summary      Delete Category
// @Tags         Categories
// @Security     ApiToken
// @Param        id path string true "Category id"
// @Success      204
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Category not found"
// @Failure      409  {object}  utils.APIError "Category is in use by one or more games"
// @Router       /categories/{id} [delete]
func DeleteCategoryHandler(c *gin.Context, database *db.Database) {
	if err := database.DeleteCategory(c.Param("id")); err != nil {
		respondStoreError(c, err, msgCategoryNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Collections ---

// ListCollectionsHandler
// @Summary      List Collections
// @Tags         Collections
// @Produce      json
// @Security     ApiToken
// @Success      200  {array}   models.Collection
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /collections [get]
func ListCollectionsHandler(c *gin.Context, database *db.Database) {
	recs := database.ListCollections()
	out := make([]models.Collection, 0, len(recs))
	for _, rec := range recs {
		out = append(out, projectCollection(rec))
	}
	c.JSON(http.StatusOK, out)
}

// GetCollectionGamesHandler resolves a collection's game ids in order.
// @Summary      Collection Games
// @Tags         Collections
// @Produce      json
// @Security     ApiToken
// @Param        id path string true "Collection id"
// @Success      200  {object}  GamesResponse
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Collection not found"
// @Router       /collections/{id}/games [get]
func GetCollectionGamesHandler(c *gin.Context, database *db.Database) {
	games, err := database.CollectionGames(c.Param("id"))
	if err != nil {
		respondStoreError(c, err, msgCollectionNotFound)
		return
	}
	c.JSON(http.StatusOK, GamesResponse{Games: projectGames(games)})
}

// UpdateCollectionHandler merges title and summary into a collection.
// @Summary      Update Collection
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Security     ApiToken
// @Param        id         path string true "Collection id"
// @Param        collection body object true "Fields to change (title, summary)"
// @Success      200  {object}  models.Collection
// @Failure      400  {object}  utils.APIError "No valid fields to update"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Collection not found"
// @Router       /collections/{id} [put]
func UpdateCollectionHandler(c *gin.Context, database *db.Database) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.GinBadRequest(c, msgInvalidBody)
		return
	}
	rec, err := database.UpdateCollection(c.Param("id"), patch)
	if err != nil {
		respondStoreError(c, err, msgCollectionNotFound)
		return
	}
	c.JSON(http.StatusOK, projectCollection(rec))
}

// ReorderCollectionHandler replaces a collection's game order.
// @Summary      Reorder Collection
// @Description  The given ids replace the stored `games` array verbatim.
// @Tags         Collections
// @Accept       json
// @Produce      json
// @Security     ApiToken
// @Param        id    path string         true "Collection id"
// @Param        order body ReorderRequest true "New order"
// @Success      200  {object}  models.Collection
// @Failure      400  {object}  utils.APIError "Games must be an array of game ids"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Collection not found"
// @Router       /collections/{id}/games/order [put]
func ReorderCollectionHandler(c *gin.Context, database *db.Database) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondStoreError(c, db.ErrInvalidGameOrder, msgCollectionNotFound)
		return
	}
	rec, err := database.ReorderCollection(c.Param("id"), req.Games)
	if err != nil {
		respondStoreError(c, err, msgCollectionNotFound)
		return
	}
	c.JSON(http.StatusOK, projectCollection(rec))
}

// --- Settings ---

// GetSettingsHandler
// @Summary      Get Settings
// @Description  Returns the stored settings over the defaults (`{"language": "en"}`).
// @Tags         Settings
// @Produce      json
// @Security     ApiToken
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /settings [get]
func GetSettingsHandler(c *gin.Context, database *db.Database) {
	c.JSON(http.StatusOK, database.GetSettings())
}

// UpdateSettingsHandler shallow-merges the body into the settings.
// @Summary      Update Settings
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     ApiToken
// @Param        settings body object true "Settings to change"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  utils.APIError "Invalid request body"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /settings [put]
func UpdateSettingsHandler(c *gin.Context, database *db.Database) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.GinBadRequest(c, msgInvalidBody)
		return
	}
	settings, err := database.UpdateSettings(patch)
	if err != nil {
		respondStoreError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, settings)
}
