package model

import "tourbook/shared/model"

const (
	TableName  = "reviews"
	EntityName = "review"

	FieldID      = "id"
	FieldTourID  = "tour_id"
	FieldUserID  = "user_id"
	FieldRating  = "rating"
	FieldComment = "comment"
)

type Review struct {
	ID      string `db:"id"`
	TourID  string `db:"tour_id"`
	UserID  string `db:"user_id"`
	Rating  int    `db:"rating"`
	Comment string `db:"comment"`
	model.Metadata
}
