// Package mail delivers invoice emails with the rendered PDF attached.
//
// NewInvoiceMessage builds the message. A Sender delivers it:
//
//   - ResendSender posts through the Resend API (github.com/resend/resend-go)
//   - LogSender only logs the envelope, for development
//
// Selection happens at startup from TALLY_MAIL_PROVIDER.
package mail
