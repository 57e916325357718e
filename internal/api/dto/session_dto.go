package dto

// LoginViewResponse echoes the denial context forwarded by a guard so the
// landing view can explain why the user arrived and route them back.
type LoginViewResponse struct {
	Reason   string `json:"reason,omitempty"`
	ReturnTo string `json:"return_to,omitempty"`
	Message  string `json:"message"`
}
