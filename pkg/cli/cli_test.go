package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/plan"
	"github.com/platinummonkey/tally/pkg/render"
)

const invoiceYAML = `invoice_number: INV-2024-0001
issue_date: 2024-03-05
due_date: "2024-04-04"
business_name: Olive Design
client_name: Acme, Inc.
client_email: billing@acme.test
currency: USD
payment_methods: Bank transfer
items:
  - description: Design work
    quantity: 2
    price: 100.20
  - description: Hosting
    quantity: 1
    price: "0"
`

const invoiceJSON = `{
  "invoice_number": "INV-2024-0002",
  "issue_date": "2024-03-06",
  "client_name": "Bolt Ltd",
  "currency": "JPY",
  "items": [{"description": "Consulting", "quantity": "3", "price": "333.5"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "tallyctl", root.Name())

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"total", "render", "gate", "version"}, names)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "tallyctl 1.2.3\n", out)
}

func TestLoadInvoice(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		inv, err := LoadInvoice(writeFile(t, dir, "a.yaml", invoiceYAML))
		require.NoError(t, err)
		assert.Equal(t, "INV-2024-0001", inv.InvoiceNumber)
		assert.Equal(t, "2024-03-05", inv.IssueDate.String())
		assert.Equal(t, "2024-04-04", inv.DueDate.String())
		require.Len(t, inv.Items, 2)
		assert.Equal(t, "100.2", inv.Items[0].Price.String())
	})

	t.Run("json", func(t *testing.T) {
		inv, err := LoadInvoice(writeFile(t, dir, "b.json", invoiceJSON))
		require.NoError(t, err)
		assert.Equal(t, "JPY", inv.Currency)
		require.Len(t, inv.Items, 1)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadInvoice(writeFile(t, dir, "c.json", "{"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadInvoice(filepath.Join(dir, "nope.json"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestTotalCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", invoiceYAML)
	b := writeFile(t, dir, "b.json", invoiceJSON)

	out, err := run(t, "total", a)
	require.NoError(t, err)
	assert.Equal(t, "200.40 USD\n", out)

	out, err = run(t, "total", "--format", a)
	require.NoError(t, err)
	assert.Equal(t, "$200.40\n", out)

	// 1000.5 JPY rounds half away from zero
	out, err = run(t, "total", a, b)
	require.NoError(t, err)
	assert.Equal(t, a+"\t200.40 USD\n"+b+"\t1001 JPY\n", out)
}

func TestTotalCommand_NegativeQuantity(t *testing.T) {
	path := writeFile(t, t.TempDir(), "neg.json", `{"items":[{"description":"Refund","quantity":"-1","price":"5"}]}`)

	_, err := run(t, "total", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity")
}

func TestGateCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "free under limit", args: []string{"--count", "2"}, want: "allowed"},
		{name: "free at limit", args: []string{"--count", "3"}, want: plan.UpgradeMessage, wantErr: true},
		{name: "pro over limit", args: []string{"--pro", "--count", "50"}, want: "allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"gate"}, tt.args...)...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, plan.IsLimitExceeded(err))
			} else {
				require.NoError(t, err)
			}
			assert.True(t, strings.HasPrefix(out, tt.want), out)
		})
	}
}

func TestRenderCSVCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", invoiceYAML)
	b := writeFile(t, dir, "b.json", invoiceJSON)

	out, err := run(t, "render", "csv", a, b)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, render.CSVHeader, lines[0])
	assert.Equal(t, `INV-2024-0001,"Acme, Inc.",billing@acme.test,2024-03-05,2024-04-04,200.40,USD,Bank transfer`, lines[1])
	assert.Equal(t, "INV-2024-0002,Bolt Ltd,,2024-03-06,,1001,JPY,", lines[2])

	out, err = run(t, "render", "csv", "--row", a)
	require.NoError(t, err)
	assert.Equal(t, lines[1]+"\n", out)

	_, err = run(t, "render", "csv", "--row", a, b)
	assert.Error(t, err)

	target := filepath.Join(dir, "report.csv")
	_, err = run(t, "render", "csv", "--out", target, a)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), render.CSVHeader+"\n"))
}

func TestRenderPDFCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", invoiceYAML)
	t.Setenv("TALLY_TEST_ADDRESS", "1 Main St")
	profile := writeFile(t, dir, "profile.yaml", "name: Olive Design Studio\naddress: ${TALLY_TEST_ADDRESS}\nphone: \"555 0100\"\n")

	target := filepath.Join(dir, "out.pdf")
	out, err := run(t, "render", "pdf", a, "--profile", profile, "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	out, err = run(t, "render", "pdf", a, "--out", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
}

func TestRenderPDFCommand_MissingItems(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.json", `{"invoice_number":"INV-1"}`)

	_, err := run(t, "render", "pdf", path, "--out", "-")
	require.Error(t, err)
	assert.True(t, render.IsRenderError(err))
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TALLY_TEST_PHONE", "555 0199")
	writeFile(t, dir, "logo.png", "not really a png")
	path := writeFile(t, dir, "profile.yaml", "name: Olive\nphone: ${TALLY_TEST_PHONE}\naddress: $HOME_CITY Works\nlogo: logo.png\n")
	t.Setenv("HOME_CITY", "Leeds")

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Olive", p.Name)
	assert.Equal(t, "555 0199", p.Phone)
	assert.Equal(t, "Leeds Works", p.Address)

	bp, err := p.BusinessProfile()
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a png"), bp.Logo)

	p.Logo = "missing.png"
	_, err = p.BusinessProfile()
	assert.Error(t, err)
}
