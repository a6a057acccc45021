package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"gamelib/db"
	"gamelib/launcher"
	"gamelib/models"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxScriptSize caps uploaded launch scripts.
const maxScriptSize = 1 << 20

// GamesResponse wraps a list of projected games.
type GamesResponse struct {
	Games []models.Game `json:"games"`
}

// ReloadResponse is returned by POST /reload-games.
type ReloadResponse struct {
	Status string `json:"status" example:"reloaded"`
	Count  int    `json:"count" example:"42"`
}

// LaunchResponse is returned once the OS accepted a launch.
type LaunchResponse struct {
	Status string `json:"status" example:"launched"`
	PID    int    `json:"pid" example:"12345"`
}

// --- Library ---

// GetLibraryGamesHandler lists the games of one library file.
// @Summary      List Library Games
// @Description  Re-reads the library file from disk and returns every game in file order, projected to the API shape.
// @Description
// @Description  Optional server-side filtering uses repeated `filter` parameters of the form `path operator value`,
// @Description  joined by `and`/`or` parts and evaluated left to right. Operators: `equals`, `notequals`, `greaterthan`,
// @Description  `lessthan`, `greaterthanorequals`, `lessthanorequals`, `contains`, `startswith`, `endswith`; the string
// @Description  operators accept an `-insensitive` suffix. `contains` on an array field (such as `genre`) matches elements.
// @Description
// @Description  Example: `/libraries/library/games?filter=genre contains-insensitive rpg&filter=and&filter=year greaterthan 2000&sort_by=year&order=desc`
// @Tags         Games
// @Produce      json
// @Security     ApiToken
// @Param        libraryId path  string   true  "Library id (file name without .json)" example(library)
// @Param        filter    query []string false "Filter parts" collectionFormat(multi)
// @Param        sort_by   query string   false "Sort field" Enums(title, year, stars)
// @Param        order     query string   false "Sort direction" Enums(asc, desc) default(asc)
// @Success      200  {object}  GamesResponse
// @Failure      400  {object}  utils.APIError "Invalid library id, filter or sort parameters"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /libraries/{libraryId}/games [get]
func GetLibraryGamesHandler(c *gin.Context, database *db.Database) {
	filter, err := db.ParseGameFilter(c.QueryArray("filter"))
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid filter: %v", err))
		return
	}

	games, err := database.LibraryGames(c.Param("libraryId"))
	if err != nil {
		respondStoreError(c, err, "Library not found")
		return
	}

	games = db.FilterGames(games, filter)
	if err := db.SortGames(games, c.Query("sort_by"), c.Query("order")); err != nil {
		utils.GinBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, GamesResponse{Games: projectGames(games)})
}

// --- Single game ---

// GetGameHandler returns one game from the index.
// @Summary      Get Game
// @Tags         Games
// @Produce      json
// @Security     ApiToken
// @Param        gameId path string true "Game id"
// @Success      200  {object}  models.Game
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Game not found"
// @Router       /games/{gameId} [get]
func GetGameHandler(c *gin.Context, database *db.Database) {
	rec, ok := database.GetGame(c.Param("gameId"))
	if !ok {
		utils.GinNotFound(c, msgGameNotFound)
		return
	}
	c.JSON(http.StatusOK, projectGame(rec))
}

// UpdateGameHandler merges whitelisted fields into a game.
// @Summary      Update Game
// @Description  Merges the editable fields (`title, summary, year, month, day, stars, genre, command`) into the stored
// @Description  record; other keys in the body are ignored and other keys in the stored record are kept.
// @Description  `command` must be `sh` or `bat`. Sending `"command": null` unlinks the executable: the key is removed
// @Description  and the game's `script.sh`/`script.bat` are deleted.
// @Tags         Games
// @Accept       json
// @Produce      json
// @Security     ApiToken
// @Param        gameId path string true "Game id"
// @Param        game   body object true "Fields to change"
// @Success      200  {object}  models.Game
// @Failure      400  {object}  utils.APIError "No valid fields to update, or an invalid value"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Game not found"
// @Failure      500  {object}  utils.APIError "Failed to save changes"
// @Router       /games/{gameId} [put]
func UpdateGameHandler(c *gin.Context, database *db.Database) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.GinBadRequest(c, msgInvalidBody)
		return
	}

	rec, err := database.UpdateGame(c.Param("gameId"), patch)
	if err != nil {
		respondStoreError(c, err, msgGameNotFound)
		return
	}
	c.JSON(http.StatusOK, projectGame(rec))
}

// ReloadGameHandler rebuilds the index and returns the refreshed game.
// @Summary      Reload Game
// @Tags         Games
// @Produce      json
// @Security     ApiToken
// @Param        gameId path string true "Game id"
// @Success      200  {object}  models.Game
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Game not found"
// @Router       /games/{gameId}/reload [post]
func ReloadGameHandler(c *gin.Context, database *db.Database) {
	rec, err := database.ReloadGame(c.Param("gameId"))
	if err != nil {
		respondStoreError(c, err, msgGameNotFound)
		return
	}
	c.JSON(http.StatusOK, projectGame(rec))
}

// UploadExecutableHandler stores an uploaded launch script for a game.
// @Summary      Upload Launch Script
// @Description  Accepts a multipart `file` ending in `.sh` or `.bat`, stores it as the game's `script.sh`/`script.bat`
// @Description  (executable for `.sh`) and sets the game's `command` accordingly.
// @Tags         Games
// @Accept       multipart/form-data
// @Produce      json
// @Security     ApiToken
// @Param        gameId path     string true "Game id"
// @Param        file   formData file   true "Launch script"
// @Success      200  {object}  models.Game
// @Failure      400  {object}  utils.APIError "Missing file or unsupported extension"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      404  {object}  utils.APIError "Game not found"
// @Router       /games/{gameId}/upload-executable [post]
func UploadExecutableHandler(c *gin.Context, database *db.Database) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.GinBadRequest(c, "Missing file")
		return
	}
	ext, err := db.NormalizeCommand(filepath.Ext(header.Filename))
	if err != nil {
		utils.GinBadRequest(c, "Only .sh and .bat files are allowed")
		return
	}
	if header.Size > maxScriptSize {
		utils.GinBadRequest(c, "File is too large")
		return
	}

	f, err := header.Open()
	if err != nil {
		utils.GinBadRequest(c, "Failed to read upload")
		return
	}
	defer f.Close()
	contents, err := io.ReadAll(io.LimitReader(f, maxScriptSize))
	if err != nil {
		utils.GinBadRequest(c, "Failed to read upload")
		return
	}

	rec, err := database.SetGameExecutable(c.Param("gameId"), ext, contents)
	if err != nil {
		respondStoreError(c, err, msgGameNotFound)
		return
	}
	zap.S().Infow("Launch script uploaded", "id", rec.ID(), "ext", ext, "bytes", len(contents))
	c.JSON(http.StatusOK, projectGame(rec))
}

// --- Index ---

// ReloadGamesHandler rebuilds the game index and the collections cache.
// @Summary      Reload All Games
// @Tags         Games
// @Produce      json
// @Security     ApiToken
// @Success      200  {object}  ReloadResponse
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Router       /reload-games [post]
func ReloadGamesHandler(c *gin.Context, database *db.Database) {
	count := database.ReloadGames()
	c.JSON(http.StatusOK, ReloadResponse{Status: "reloaded", Count: count})
}

// --- Launcher ---

// LaunchGameHandler starts a game's executable as a detached process.
// @Summary      Launch Game
// @Description  Starts the game's `command` with its `args`, without a shell, detached from the server.
// @Description  The response confirms only that the OS accepted the spawn; the process is not tracked afterwards.
// @Description  When the game record has `allowed_dir`, the resolved executable must lie inside it.
// @Tags         Launcher
// @Produce      json
// @Security     ApiToken
// @Param        gameId query string true "Game id"
// @Success      200  {object}  LaunchResponse
// @Failure      400  {object}  utils.APIError "Missing gameId"
// @Failure      401  {object}  utils.APIError "Unauthorized"
// @Failure      403  {object}  utils.APIError "Command outside allowed directory"
// @Failure      404  {object}  utils.APIError "Game not found"
// @Failure      500  {object}  utils.APIError "The process could not be started"
// @Router       /launcher [get]
func LaunchGameHandler(c *gin.Context, database *db.Database, l *launcher.Launcher, metrics *Metrics) {
	id := strings.TrimSpace(c.Query("gameId"))
	if id == "" {
		utils.GinBadRequest(c, "Missing gameId")
		return
	}
	rec, ok := database.GetGame(id)
	if !ok {
		metrics.countLaunch("not_found")
		utils.GinNotFound(c, msgGameNotFound)
		return
	}

	pid, err := l.Launch(rec)
	switch {
	case err == nil:
		metrics.countLaunch("launched")
		c.JSON(http.StatusOK, LaunchResponse{Status: "launched", PID: pid})
	case errors.Is(err, launcher.ErrOutsideAllowedDir):
		metrics.countLaunch("forbidden")
		utils.GinForbidden(c, "Command outside allowed directory")
	case errors.Is(err, launcher.ErrNoCommand):
		metrics.countLaunch("error")
		utils.GinBadRequest(c, "Game has no command")
	case errors.Is(err, launcher.ErrCommandNotFound):
		metrics.countLaunch("error")
		utils.GinInternalServerError(c, capitalize(err.Error()))
	default:
		metrics.countLaunch("error")
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to launch game: %v", err))
	}
}
