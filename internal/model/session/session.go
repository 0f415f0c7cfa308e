package session

// State enumerates the workflow steps a conversation moves through.
type State int

const (
	StateStart State = iota
	StateWaitingPassport
	StateConfirmingPassport
	StateWaitingVehicle
	StateConfirmingVehicle
	StatePriceAgreement
	StateCompleted
)

// String returns a log-friendly name for the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateWaitingPassport:
		return "waiting_passport"
	case StateConfirmingPassport:
		return "confirming_passport"
	case StateWaitingVehicle:
		return "waiting_vehicle"
	case StateConfirmingVehicle:
		return "confirming_vehicle"
	case StatePriceAgreement:
		return "price_agreement"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Session holds everything the bot knows about one conversation.
// An empty string means the field has not been detected yet.
type Session struct {
	ChatID int64 `json:"chatId"`
	State  State `json:"state"`

	GivenNames     string `json:"givenNames,omitempty"`
	Surname        string `json:"surname,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`

	VehicleDescription string `json:"vehicleDescription,omitempty"`
	LicensePlate       string `json:"licensePlate,omitempty"`
}

// Record is the outcome of one document extraction. Only the fields
// belonging to the scanned document type are ever populated.
type Record struct {
	GivenNames     string
	Surname        string
	DocumentNumber string

	VehicleDescription string
	LicensePlate       string
}

// Empty reports whether the extraction produced nothing at all.
func (r Record) Empty() bool {
	return r == Record{}
}

// ApplyPassport overwrites the identity half of the session with the record.
func (s *Session) ApplyPassport(r Record) {
	s.GivenNames = r.GivenNames
	s.Surname = r.Surname
	s.DocumentNumber = r.DocumentNumber
}

// ApplyVehicle overwrites the vehicle half of the session with the record.
func (s *Session) ApplyVehicle(r Record) {
	s.VehicleDescription = r.VehicleDescription
	s.LicensePlate = r.LicensePlate
}

// ClearPassport drops the identity fields after a rejected confirmation.
func (s *Session) ClearPassport() {
	s.GivenNames = ""
	s.Surname = ""
	s.DocumentNumber = ""
}

// ClearVehicle drops the vehicle fields after a rejected confirmation.
func (s *Session) ClearVehicle() {
	s.VehicleDescription = ""
	s.LicensePlate = ""
}

// Reset returns the session to its initial state with all fields cleared.
func (s *Session) Reset() {
	s.State = StateStart
	s.ClearPassport()
	s.ClearVehicle()
}
