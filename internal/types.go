package internal

// MatchStatus is the outcome of one enrichment stage for one anomaly.
type MatchStatus string

const (
	StatusMatch         MatchStatus = "MATCH"
	StatusNoMatch       MatchStatus = "NO_MATCH"
	StatusNotApplicable MatchStatus = "NOT_APPLICABLE"
)

// ReportKind classifies a fetched export file.
type ReportKind string

const (
	ReportDispute ReportKind = "dispute"
	ReportCapture ReportKind = "capture"
	ReportBooking ReportKind = "booking"
	ReportUnknown ReportKind = "unknown"
)

// Sentinel values produced by normalization. Last4Unknown marks a dispute row
// whose card column was empty or missing; FieldNA marks any other field whose
// column could not be resolved.
const (
	FieldNA      = "N/A"
	Last4Unknown = "unknown"
)

// LedgerRecord is one canonical dispute row. Amount fields stay as the raw
// stringified cell value; they are cleaned only where a stage needs a number.
// CaseReference (trimmed) is the identity key for snapshot comparison.
type LedgerRecord struct {
	Cycle             string
	Merchant          string
	DueDate           string
	CaseReference     string
	ReasonCode        string
	ReasonCategory    string
	TransactionDate   string
	TransactionAmount string
	PostDate          string
	DisputeAmount     string
	CardLast4         string

	// Original decoded row, kept for audit display only.
	Raw map[string]any

	CaptureStatus MatchStatus
	BookingStatus MatchStatus

	// Populated by the capture stage on MATCH. The reference is copied
	// verbatim from the Opayo row for display.
	OpayoReference string
	OpayoAddress   string
	OpayoPostcode  string

	// Populated by the booking stage on MATCH.
	BookingReference string
	FolderNumber     string
	TravelDate       string
	Origin           string
	Destination      string
	AirlineCode      string
	InvoiceDate      string
	ReturnDate       string
	ContactEmail     string
}

// CaptureRecord is one canonical Opayo capture row. Rows with a zero amount
// or a malformed last-4 are dropped at normalization time.
type CaptureRecord struct {
	Amount    float64
	Last4     string
	Reference string
	Address   string
	Postcode  string
}

// BookingRecord is one canonical back-office booking row. An empty reference
// is kept; booking matching tolerates absence.
type BookingRecord struct {
	Reference    string
	FolderNumber string
	TravelDate   string
	Origin       string
	Destination  string
	AirlineCode  string
	InvoiceDate  string
	ReturnDate   string
	ContactEmail string
}

type ImportRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type RunRow struct {
	ID             int
	TraceID        string
	ImportID       *int
	BaselineSource string
	UpdatedSource  string
	Anomalies      int
	CaptureMatched int
	BookingMatched int
	CreatedAt      string
}
