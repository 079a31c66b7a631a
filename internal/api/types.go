package api

type BookAppointmentRequest struct {
	CustomerID string `json:"customer_id"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Notes      string `json:"notes,omitempty"`
}

type RescheduleAppointmentRequest struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// PublishHoursRequest maps weekday names to open times, the shape the
// provider's publish screen submits.
type PublishHoursRequest map[string][]string

type AppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	CustomerID    string `json:"customer_id,omitempty"`
	Day           string `json:"day"`
	Time          string `json:"time"`
	Notes         string `json:"notes,omitempty"`
}

type AvailabilityResponse struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
