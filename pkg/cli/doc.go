// Package cli implements tallyctl, an offline companion to the tally API.
//
// tallyctl works on invoice files rather than the database, so documents can
// be totalled and rendered on a workstation or in CI without credentials.
// Invoice files are JSON, or YAML when the name ends in .yaml or .yml, and use
// the same field names as the API.
//
// # Commands
//
// total: Print the rounded total of one or more invoices
//
//	tallyctl total invoice.yaml
//
// render pdf: Produce the PDF document for an invoice
//
//	tallyctl render pdf invoice.yaml --profile business.yaml --out invoice.pdf
//
// render csv: Produce a CSV report, or a single row with --row
//
//	tallyctl render csv jan.json feb.json > report.csv
//
// gate: Ask whether an account may create another invoice
//
//	tallyctl gate --pro=false --count 3
//
// # Business profile
//
// The profile names the issuing business. Values of the form ${VAR} are read
// from the environment, and logo is a path to a PNG or JPEG file:
//
//	name: Olive Design
//	address: ${BUSINESS_ADDRESS}
//	phone: "+1 555 0100"
//	logo: ./logo.png
package cli
