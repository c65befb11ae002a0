// Package normalize turns raw push payloads into notification records.
package normalize

import (
	"time"

	"github.com/nhle/fleetbell/internal/model"
)

// Placeholders used when a payload field is absent or empty.
const (
	NoTitle   = "No title"
	NoBody    = "No body"
	NoEmail   = "No email"
	NoUser    = "Unknown"
	NoVehicle = "No vehicle registration number"
)

// TimeLayout renders receipt times in the en-US long form with weekday,
// e.g. "Saturday, October 17, 2026 at 9:05:03 PM".
const TimeLayout = "Monday, January 2, 2006 at 3:04:05 PM"

// Normalize builds the canonical record for payload received at receivedAt.
// It reads no clock; the time string is receivedAt rendered in loc.
func Normalize(payload model.PushPayload, receivedAt time.Time, loc *time.Location) model.Notification {
	if loc == nil {
		loc = time.UTC
	}

	var title, body string
	if payload.Notification != nil {
		title = payload.Notification.Title
		body = payload.Notification.Body
	}

	var data model.PushData
	if payload.Data != nil {
		data = *payload.Data
	}

	title = orDefault(title, NoTitle)

	return model.Notification{
		Title:                 title,
		Message:               orDefault(body, NoBody),
		EmailAddress:          orDefault(data.EmailAddress, NoEmail),
		Username:              orDefault(data.Username, NoUser),
		VehicleRegistrationNo: orDefault(data.VehicleRegistrationNo, NoVehicle),
		IsPasswordReset:       title == model.PasswordResetTitle,
		Time:                  receivedAt.In(loc).Format(TimeLayout),
		Read:                  false,
	}
}

func orDefault(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

// Normalizer binds a display zone and a clock so callers on the receive
// path need not carry either.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Normalizer stamping receipt times in loc.
func New(loc *time.Location) *Normalizer {
	return &Normalizer{loc: loc, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Now normalizes payload with the current time as the receipt instant.
func (n *Normalizer) Now(payload model.PushPayload) model.Notification {
	return Normalize(payload, n.now(), n.loc)
}
