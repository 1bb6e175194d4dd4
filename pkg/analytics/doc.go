// Package analytics summarizes an account's invoices for the dashboard.
//
// Summaries are computed in memory from the account's invoice list. Amounts in
// different currencies are never added together; every monetary figure is a
// map from ISO currency code to total.
package analytics
