package connectors

import "disputeflow/internal"

// MailConnector fetches raw report mail from one mailbox provider. The query
// narrows the search where the provider supports server-side search syntax
// (Gmail); providers without it may ignore the query.
type MailConnector interface {
	FetchInbox(label, query string, max int) ([]internal.FetchedMailMessage, error)
}
