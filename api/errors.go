package api

import (
	"errors"

	"gamelib/db"
	"gamelib/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed messages the web client matches on.
const (
	msgGameNotFound       = "Game not found"
	msgCollectionNotFound = "Collection not found"
	msgCategoryNotFound   = "Category not found"
	msgNoValidFields      = "No valid fields to update"
	msgInvalidBody        = "Invalid request body"
	msgStorageFailure     = "Failed to save changes"
)

// Validation errors reported with their own message.
var badRequestErrors = []error{
	db.ErrInvalidCommand,
	db.ErrInvalidGenre,
	db.ErrInvalidTitle,
	db.ErrInvalidGameOrder,
	db.ErrInvalidID,
}

// respondStoreError maps a db error onto the HTTP error taxonomy. Anything
// unrecognised is a storage failure: logged in full, reported generically.
func respondStoreError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.GinNotFound(c, notFound)
		return
	case errors.Is(err, db.ErrNoValidFields):
		utils.GinBadRequest(c, msgNoValidFields)
		return
	case errors.Is(err, db.ErrCategoryExists):
		utils.GinConflict(c, "Category already exists")
		return
	case errors.Is(err, db.ErrCategoryInUse):
		utils.GinConflict(c, "Category is in use by one or more games")
		return
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			utils.GinBadRequest(c, capitalize(target.Error()))
			return
		}
	}
	zap.S().Errorw("Storage operation failed", "path", c.Request.URL.Path, "error", err)
	utils.GinInternalServerError(c, msgStorageFailure)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
