package model

// Category is a user-defined spending category from the category definition
// file. Only Name participates in matching; Description is for humans.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
