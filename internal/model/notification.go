package model

// PasswordResetTitle is the reserved title that marks a notification as a
// password reset request raised by a driver or helper.
const PasswordResetTitle = "Password Reset Request"

// Notification is a single operator alert. It is a value record: once
// normalized, only Read changes.
type Notification struct {
	// Title is the short headline shown in the list and the bell.
	Title string `json:"title"`

	// Message is the body text.
	Message string `json:"message"`

	// EmailAddress is the address of the user the alert concerns.
	EmailAddress string `json:"emailAddress"`

	// Username is the account name of the user the alert concerns.
	Username string `json:"username"`

	// VehicleRegistrationNo identifies the vehicle the alert concerns.
	VehicleRegistrationNo string `json:"vehicleRegistrationNo"`

	// IsPasswordReset is true when Title equals PasswordResetTitle.
	IsPasswordReset bool `json:"isPasswordReset"`

	// Time is the human-readable receipt time captured at normalization.
	Time string `json:"time"`

	// Read indicates whether the operator has acknowledged this alert.
	Read bool `json:"read"`
}

// PushNotification is the display part of an inbound push message.
type PushNotification struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// PushData is the data part of an inbound push message.
type PushData struct {
	EmailAddress          string `json:"emailAddress,omitempty"`
	Username              string `json:"username,omitempty"`
	VehicleRegistrationNo string `json:"vehicleRegistrationNo,omitempty"`
}

// PushPayload is the envelope delivered by the push provider. Every field is
// optional.
type PushPayload struct {
	Notification *PushNotification `json:"notification,omitempty"`
	Data         *PushData         `json:"data,omitempty"`
}
