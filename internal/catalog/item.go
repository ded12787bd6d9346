// =============================================================================
// Transaction Aggregator - Library Catalog
// =============================================================================
//
// Package catalog is a standalone library of the borrowable items and the
// members of a lending library. The transaction pipeline does not use it.
//
// Item and User are validated value objects: construction fails with a
// descriptive error when a field is invalid. Field rules are declared as
// go-playground/validator struct tags.
//
// =============================================================================

package catalog

import (
	"errors"
)

// Item validation errors.
var (
	ErrInvalidItemID = errors.New("Item Id must be numeric.")
	ErrBlankTitle    = errors.New("Title cannot be blank.")
	ErrBlankAuthor   = errors.New("Author cannot be blank.")
	ErrInvalidGenre  = errors.New("Invalid Genre.")
)

// Genre is the closed set of item categories.
type Genre string

const (
	Fiction    Genre = "FICTION"
	NonFiction Genre = "NON_FICTION"
	Reference  Genre = "REFERENCE"
	Magazine   Genre = "MAGAZINE"
	DVD        Genre = "DVD"
)

// itemFields carries the NewItem arguments through validation.
type itemFields struct {
	ID     int    `validate:"gt=0"`
	Title  string `validate:"notblank"`
	Author string `validate:"notblank"`
	Genre  Genre  `validate:"oneof=FICTION NON_FICTION REFERENCE MAGAZINE DVD"`
}

var itemErrors = map[string]error{
	"ID":     ErrInvalidItemID,
	"Title":  ErrBlankTitle,
	"Author": ErrBlankAuthor,
	"Genre":  ErrInvalidGenre,
}

// Item is a borrowable library item.
type Item struct {
	id         int
	title      string
	author     string
	genre      Genre
	isBorrowed bool
}

// NewItem validates its arguments and returns the item.
func NewItem(id int, title, author string, genre Genre, isBorrowed bool) (*Item, error) {
	fields := itemFields{ID: id, Title: title, Author: author, Genre: genre}
	if err := check(fields, itemErrors); err != nil {
		return nil, err
	}

	return &Item{
		id:         id,
		title:      title,
		author:     author,
		genre:      genre,
		isBorrowed: isBorrowed,
	}, nil
}

func (i *Item) ID() int          { return i.id }
func (i *Item) Title() string    { return i.title }
func (i *Item) Author() string   { return i.author }
func (i *Item) Genre() Genre     { return i.genre }
func (i *Item) IsBorrowed() bool { return i.isBorrowed }
