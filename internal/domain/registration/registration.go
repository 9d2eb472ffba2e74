package registration

import (
	"errors"
	"strings"
)

const DefaultGroupSize = 1

var (
	// both attendee fields have to be present before anything is sent upstream
	ErrMissingAttendee  = errors.New("attendeeEmail and attendeeName are required")
	ErrInvalidGroupSize = errors.New("groupSize must be at least 1")
)

// Request is the body accepted from the browser. GroupSize is a pointer so an
// omitted value can be told apart from an explicit zero.
type Request struct {
	AttendeeEmail string `json:"attendeeEmail" form:"attendeeEmail"`
	AttendeeName  string `json:"attendeeName" form:"attendeeName"`
	GroupSize     *int   `json:"groupSize,omitempty" form:"groupSize" binding:"omitempty,min=1"`
}

// Upstream is exactly what gets forwarded to the upstream register endpoint.
type Upstream struct {
	AttendeeEmail string `json:"attendeeEmail"`
	AttendeeName  string `json:"attendeeName"`
	GroupSize     int    `json:"groupSize"`
}

// Response is the upstream success payload. The gateway relays it verbatim,
// this type is only used where the fields are read (web confirmation view).
type Response struct {
	Success        bool   `json:"success"`
	RegistrationID string `json:"registrationId"`
	Event          struct {
		ID string `json:"id"`
	} `json:"event"`
	Attendee struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"attendee"`
}

// MissingAttendee reports whether either attendee field is blank.
func (r Request) MissingAttendee() bool {
	return strings.TrimSpace(r.AttendeeEmail) == "" || strings.TrimSpace(r.AttendeeName) == ""
}

// Validate checks the request and returns the payload to forward upstream.
// Anything past the attendee check and a positive group size is left to upstream.
func (r Request) Validate() (Upstream, error) {
	if r.MissingAttendee() {
		return Upstream{}, ErrMissingAttendee
	}

	size := DefaultGroupSize
	if r.GroupSize != nil {
		size = *r.GroupSize
	}

	if size < 1 {
		return Upstream{}, ErrInvalidGroupSize
	}

	return Upstream{
		AttendeeEmail: r.AttendeeEmail,
		AttendeeName:  r.AttendeeName,
		GroupSize:     size,
	}, nil
}
