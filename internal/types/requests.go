package types

// RegisterRequest is the payload for user self-registration.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the payload for token login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SetPasswordRequest changes the current user's password.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=6"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// UpdateProfileRequest carries the editable profile fields; nil means
// "leave unchanged".
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// SetAvatarRequest carries a base64 data-URI encoded image.
type SetAvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

// RecipeIngredientRequest references an ingredient with its amount.
type RecipeIngredientRequest struct {
	ID     string `json:"id" binding:"required"`
	Amount int    `json:"amount"`
}

// RecipeWriteRequest is the payload for recipe create and update.
// Image is a base64 data URI; it is required on create and optional on
// update (empty keeps the stored image).
type RecipeWriteRequest struct {
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
	Tags        []string                  `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" binding:"required,max=256"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time"`
}
