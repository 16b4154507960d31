package homework

// Status is the review state reported by the homework API.
type Status string

const (
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
	StatusApproved  Status = "approved"
)

// ParseStatus maps a raw API value onto one of the known statuses.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusReviewing, StatusRejected, StatusApproved:
		return s, true
	default:
		return "", false
	}
}

// Record is a single homework entry. Only the name and status are read;
// nil means the field was missing from the response.
type Record struct {
	Name   *string `json:"homework_name"`
	Status *string `json:"status"`
}

// NameOrEmpty is used for logging and the delivery journal.
func (r Record) NameOrEmpty() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

func (r Record) StatusOrEmpty() string {
	if r.Status == nil {
		return ""
	}
	return *r.Status
}

// Response is the decoded body of a homework_statuses call.
type Response struct {
	Homeworks   []Record `json:"homeworks"`
	CurrentDate *int64   `json:"current_date"`
}

// First returns the most recent homework, if the response carries any.
func (r *Response) First() (Record, bool) {
	if r == nil || len(r.Homeworks) == 0 {
		return Record{}, false
	}
	return r.Homeworks[0], true
}

// NextCursor returns current_date when the server supplied one, otherwise prev.
func (r *Response) NextCursor(prev int64) int64 {
	if r == nil || r.CurrentDate == nil {
		return prev
	}
	return *r.CurrentDate
}
