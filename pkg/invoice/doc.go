// Package invoice holds the invoice data model and the arithmetic around it.
//
// # Overview
//
// An Invoice carries a list of LineItems. Its total is never taken from a
// caller: ComputeTotal derives it from the items with decimal arithmetic and
// rounds the result to the minor units of the invoice currency, half away
// from zero.
//
// # Usage Example
//
//	total, err := invoice.ComputeTotal([]invoice.LineItem{
//		{Description: "Design", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("150")},
//		{Description: "Hosting", Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("29.99")},
//	}, "USD")
//	fmt.Println(invoice.FormatMoney(total, "USD")) // $329.99
//
// # Related Packages
//
//   - pkg/render: PDF and CSV documents built from invoices
//   - pkg/plan: free-tier invoice quota
package invoice
