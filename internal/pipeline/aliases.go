package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Canonical field names for the three schemas.
const (
	FieldCycle             = "cycle"
	FieldMerchant          = "merchant"
	FieldDueDate           = "dueDate"
	FieldCaseReference     = "caseReference"
	FieldReasonCode        = "reasonCode"
	FieldReasonCategory    = "reasonCategory"
	FieldTransactionDate   = "transactionDate"
	FieldTransactionAmount = "transactionAmount"
	FieldPostDate          = "postDate"
	FieldDisputeAmount     = "disputeAmount"
	FieldCardLast4         = "cardLast4"

	FieldAmount    = "amount"
	FieldLast4     = "last4"
	FieldReference = "reference"
	FieldAddress   = "address"
	FieldPostcode  = "postcode"

	FieldFolderNumber = "folderNumber"
	FieldTravelDate   = "travelDate"
	FieldOrigin       = "origin"
	FieldDestination  = "destination"
	FieldAirlineCode  = "airlineCode"
	FieldInvoiceDate  = "invoiceDate"
	FieldReturnDate   = "returnDate"
	FieldContactEmail = "contactEmail"
)

// Schemas holds the per-schema field alias lists the header mapper works
// from. Acquirers rename columns between portal releases, so the defaults
// can be extended from a YAML file without a rebuild.
type Schemas struct {
	Ledger  []FieldAliases
	Capture []FieldAliases
	Booking []FieldAliases
}

func DefaultSchemas() Schemas {
	return Schemas{
		Ledger: []FieldAliases{
			{Field: FieldCycle, Aliases: []string{"cycle", "dispute cycle", "stage"}},
			{Field: FieldMerchant, Aliases: []string{"merchant", "merchant name", "merchant descriptor"}},
			{Field: FieldDueDate, Aliases: []string{"due date", "respond by", "reply by", "action due date"}},
			{Field: FieldCaseReference, Aliases: []string{"case reference", "case ref", "caseid", "reference", "case no", "case number"}},
			{Field: FieldReasonCode, Aliases: []string{"reason code", "rc"}},
			{Field: FieldReasonCategory, Aliases: []string{"reason category", "reason description", "category"}},
			{Field: FieldTransactionDate, Aliases: []string{"transaction date", "trans date", "txn date"}},
			{Field: FieldTransactionAmount, Aliases: []string{"transaction amount", "trans amount", "txn amount", "amount"}},
			{Field: FieldPostDate, Aliases: []string{"post date", "posting date", "processed date"}},
			{Field: FieldDisputeAmount, Aliases: []string{"dispute amount", "disputed amount", "claim amount", "chargeback amount", "cb amount"}},
			{Field: FieldCardLast4, Aliases: []string{"card last 4", "last 4", "account number", "card number", "last four", "card no"}},
		},
		Capture: []FieldAliases{
			{Field: FieldAmount, Aliases: []string{"Amount(Inc. Surcharge)", "Amount (Inc. Surcharge)", "Amount"}},
			{Field: FieldLast4, Aliases: []string{"last 4 digits", "last 4", "card last 4"}},
			{Field: FieldReference, Aliases: []string{"Reference", "Ref", "Transaction ID", "Txn Ref"}},
			{Field: FieldAddress, Aliases: []string{"address 1", "billing address", "address"}},
			{Field: FieldPostcode, Aliases: []string{"post code", "postcode", "billing post code"}},
		},
		Booking: []FieldAliases{
			{Field: FieldReference, Aliases: []string{"Inet Ref", "InetRef", "Inet Reference", "inet", "reference", "ref no", "ref"}},
			{Field: FieldFolderNumber, Aliases: []string{"folder number", "folder no", "folder"}},
			{Field: FieldTravelDate, Aliases: []string{"travel date", "departure date", "outbound date"}},
			{Field: FieldOrigin, Aliases: []string{"origin", "from", "departure airport"}},
			{Field: FieldDestination, Aliases: []string{"destination", "to", "arrival airport"}},
			{Field: FieldAirlineCode, Aliases: []string{"airline code", "airline", "carrier"}},
			{Field: FieldInvoiceDate, Aliases: []string{"invoice date", "invoiced"}},
			{Field: FieldReturnDate, Aliases: []string{"return date", "inbound date"}},
			{Field: FieldContactEmail, Aliases: []string{"contact email", "email", "email address"}},
		},
	}
}

type aliasOverrides struct {
	Ledger  map[string][]string `yaml:"ledger"`
	Capture map[string][]string `yaml:"capture"`
	Booking map[string][]string `yaml:"booking"`
}

// LoadSchemas returns the defaults with any per-field overrides from the
// YAML file applied. An empty path yields plain defaults. Overrides replace
// the field's whole alias list; unknown field names are rejected.
func LoadSchemas(path string) (Schemas, error) {
	schemas := DefaultSchemas()
	if path == "" {
		return schemas, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return Schemas{}, err
	}

	var overrides aliasOverrides
	if err := yaml.Unmarshal(blob, &overrides); err != nil {
		return Schemas{}, fmt.Errorf("parse alias config: %w", err)
	}

	for name, fields := range map[string]struct {
		list      []FieldAliases
		overrides map[string][]string
	}{
		"ledger":  {schemas.Ledger, overrides.Ledger},
		"capture": {schemas.Capture, overrides.Capture},
		"booking": {schemas.Booking, overrides.Booking},
	} {
		if err := applyOverrides(name, fields.list, fields.overrides); err != nil {
			return Schemas{}, err
		}
	}

	return schemas, nil
}

func applyOverrides(schema string, fields []FieldAliases, overrides map[string][]string) error {
	for field, aliases := range overrides {
		found := false
		for i := range fields {
			if fields[i].Field == field {
				fields[i].Aliases = aliases
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("alias config: unknown %s field %q", schema, field)
		}
	}
	return nil
}
