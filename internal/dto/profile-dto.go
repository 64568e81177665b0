package dto

// UpdateProfileRequest carries the self-service patch. Email and phone are
// deliberately absent: changing a proven address means re-proving it, which
// is an admin concern, not a profile edit.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}
