package calendarbridge

// Envelope is the status part every calendar response carries. GET endpoints
// often omit success; only an explicit false is a failure.
type Envelope struct {
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
}

func (e *Envelope) envelope() *Envelope { return e }

// Failed reports an explicit success=false.
func (e Envelope) Failed() bool {
	return e.Success != nil && !*e.Success
}

type enveloped interface {
	envelope() *Envelope
}

// AppointmentRequest is the body of POST /api/sofia/appointment.
type AppointmentRequest struct {
	PatientName   string `json:"patientName"`
	PatientPhone  string `json:"patientPhone"`
	RequestedDate string `json:"requestedDate"`
	RequestedTime string `json:"requestedTime"`
	TreatmentType string `json:"treatmentType"`
}

// CalendarAppointment is an appointment as the calendar service stores it.
type CalendarAppointment struct {
	ID            int64  `json:"id"`
	PatientName   string `json:"patient_name"`
	Phone         string `json:"phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	EndTime       string `json:"end_time,omitempty"`
	TreatmentType string `json:"treatment_type,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status,omitempty"`
}

// AppointmentResponse answers CreateAppointment.
type AppointmentResponse struct {
	Envelope
	Appointment *CalendarAppointment `json:"appointment,omitempty"`
}

// AppointmentList answers Today and PatientAppointments.
type AppointmentList struct {
	Envelope
	Appointments []CalendarAppointment `json:"appointments"`
	Count        int                   `json:"count"`
}

// NextAvailableResponse answers NextAvailable.
type NextAvailableResponse struct {
	Envelope
	Available         bool     `json:"available"`
	Date              string   `json:"date,omitempty"`
	Time              string   `json:"time,omitempty"`
	FormattedDate     string   `json:"formattedDate,omitempty"`
	AllAvailableTimes []string `json:"allAvailableTimes,omitempty"`
}

// DateAvailability answers CheckDate.
type DateAvailability struct {
	Envelope
	Available      bool     `json:"available"`
	Date           string   `json:"date,omitempty"`
	FormattedDate  string   `json:"formattedDate,omitempty"`
	AvailableTimes []string `json:"availableTimes,omitempty"`
	BookedTimes    []string `json:"bookedTimes,omitempty"`
	TotalSlots     int      `json:"totalSlots"`
	FreeSlots      int      `json:"freeSlots"`
	IsWeekend      bool     `json:"isWeekend,omitempty"`
	IsPast         bool     `json:"isPast,omitempty"`
}

// Suggestion is the first free time of one day.
type Suggestion struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	FormattedDate  string `json:"formattedDate,omitempty"`
	AvailableCount int    `json:"availableCount"`
}

// SuggestionsResponse answers SuggestTimes.
type SuggestionsResponse struct {
	Envelope
	Suggestions []Suggestion `json:"suggestions"`
	Count       int          `json:"count"`
}
