package dto

type SendPhoneRequest struct {
	// Carrier only changes the delivery address format, never the code logic.
	Carrier string `json:"carrier,omitempty"`
}

type VerifyPhoneRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type VerifyPhoneResponse struct {
	Verified bool `json:"verified"`
}
