package db

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoValidFields    = errors.New("no valid fields to update")
	ErrInvalidCommand   = errors.New("command must be 'sh' or 'bat'")
	ErrInvalidGenre     = errors.New("genre must be a string, an array of strings or null")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidTitle     = errors.New("title is required")
	ErrInvalidGameOrder = errors.New("games must be an array of game ids")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is in use")
)
