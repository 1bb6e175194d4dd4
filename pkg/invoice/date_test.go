package invoice

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-15"`), &d))
	assert.Equal(t, "2024-01-15", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15"`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`"2024-02-01T23:30:00Z"`), &d))
	assert.Equal(t, "2024-02-01", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())

	out, err = json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"15/01/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-06", d.String())

	require.NoError(t, d.Scan("2023-12-31"))
	assert.Equal(t, "2023-12-31", d.String())

	require.NoError(t, d.Scan([]byte("2023-11-30")))
	assert.Equal(t, "2023-11-30", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2024, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", v)
}

func TestDraft_Apply(t *testing.T) {
	var draft Draft
	body := `{
		"invoice_number": "INV-1",
		"issue_date": "2024-01-15",
		"due_date": "2024-02-15",
		"client_name": "Acme",
		"currency": "USD",
		"total": "9999",
		"items": [
			{"description": "Design", "quantity": 2, "price": "150"},
			{"description": "Hosting", "quantity": 1, "price": 29.99}
		]
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &draft))

	inv := &Invoice{}
	require.NoError(t, draft.Apply(inv))
	assert.Equal(t, "329.99", inv.Total.String())
	assert.Equal(t, "Acme", inv.ClientName)
	assert.Equal(t, "2024-02-15", inv.DueDate.String())
	assert.Len(t, inv.Items, 2)
}

func TestDraft_ApplyRejectsNegative(t *testing.T) {
	draft := Draft{Items: []LineItem{item("A", "1", "-3")}}
	err := draft.Apply(&Invoice{})
	assert.True(t, IsValidationError(err))
}

func TestDraft_ApplyNilItems(t *testing.T) {
	inv := &Invoice{}
	require.NoError(t, (&Draft{}).Apply(inv))
	assert.NotNil(t, inv.Items)
	assert.True(t, inv.Total.IsZero())
	assert.Equal(t, DefaultCurrency, inv.CurrencyOrDefault())
}

func TestLineItem_NonNumericRejected(t *testing.T) {
	var li LineItem
	err := json.Unmarshal([]byte(`{"description":"x","quantity":"two","price":"1"}`), &li)
	assert.Error(t, err)
}
