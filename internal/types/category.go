package types

type Category struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// CategoryRequest is the body of category create and update.
type CategoryRequest struct {
	Nome string `json:"nome" validate:"required,min=3,max=100"`
}
