package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communisafe/communisafe/internal/model"
)

func TestDecodeListAcceptsBareArray(t *testing.T) {
	items, err := decodeList([]byte(`[{"a":1},{"a":2}]`), "data")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeListAcceptsEnvelope(t *testing.T) {
	body := []byte(`{"total":2,"announcements":[{"a":1},{"a":2}]}`)
	items, err := decodeList(body, "data", "announcements")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeListTriesKeysInOrder(t *testing.T) {
	body := []byte(`{"data":null,"reports":[{"a":1}]}`)
	items, err := decodeList(body, "data", "reports")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDecodeListEmptyAndNullBodies(t *testing.T) {
	for _, body := range []string{"", "null", "  "} {
		items, err := decodeList([]byte(body), "data")
		require.NoError(t, err, "body %q", body)
		assert.Empty(t, items)
	}
}

func TestDecodeListRejectsUnknownEnvelope(t *testing.T) {
	_, err := decodeList([]byte(`{"other":[]}`), "data", "reports")
	assert.Error(t, err)
}

func TestUnwrap(t *testing.T) {
	inner := `{"_id":"a","title":"x"}`

	assert.JSONEq(t, inner, string(unwrap([]byte(`{"data":`+inner+`}`), "data")))
	assert.JSONEq(t, inner, string(unwrap([]byte(`{"incident":`+inner+`}`), "data", "incident")))

	// Unenveloped bodies pass through untouched.
	assert.JSONEq(t, inner, string(unwrap([]byte(inner), "data")))

	// An envelope key holding a non-object does not unwrap.
	body := `{"data":"nope","x":1}`
	assert.JSONEq(t, body, string(unwrap([]byte(body), "data")))
}

func TestWireTimeLayouts(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{`"2026-03-01T12:30:45Z"`, time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)},
		{`"2026-03-01T12:30:45.123Z"`, time.Date(2026, 3, 1, 12, 30, 45, 123000000, time.UTC)},
		{`"2026-03-01T12:30:45"`, time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)},
		{`"2026-03-01T12:30"`, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{`"2026-03-01 12:30:45"`, time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)},
		{`"2026-03-01"`, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
		{`"not a date"`, time.Time{}},
	}
	for _, tc := range cases {
		var wt wireTime
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &wt), "raw %s", tc.raw)
		assert.True(t, tc.want.Equal(wt.Time), "raw %s: got %v", tc.raw, wt.Time)
	}
}

func TestWireCoordAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A wireCoord `json:"a"`
		B wireCoord `json:"b"`
		C wireCoord `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":14.5995,"b":"120.9842","c":"garbage"}`), &payload)
	require.NoError(t, err)
	assert.InDelta(t, 14.5995, float64(payload.A), 1e-9)
	assert.InDelta(t, 120.9842, float64(payload.B), 1e-9)
	assert.Zero(t, float64(payload.C))
}

func TestDecodeAnnouncementFoldsAliases(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "abc",
		"title": "Road closure",
		"category": "Maintenance",
		"timestamp": "2026-03-01T08:00:00Z"
	}`)

	a, err := DecodeAnnouncement(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", a.ID)
	assert.Equal(t, "Road closure", a.Title)

	// "timestamp" stands in for a missing "createdAt".
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), a.CreatedAt)

	// "_id" wins when both spellings are present.
	raw = json.RawMessage(`{"_id":"primary","id":"secondary","title":"x"}`)
	a, err = DecodeAnnouncement(raw)
	require.NoError(t, err)
	assert.Equal(t, "primary", a.ID)
}

func TestDecodeFloodAlertNormalizesSeverity(t *testing.T) {
	cases := map[string]string{
		"HIGH":    model.SeverityHigh,
		"High":    model.SeverityHigh,
		" medium": model.SeverityMedium,
		"low":     model.SeverityLow,
		"weird":   model.SeverityNone,
		"":        model.SeverityNone,
	}
	for wire, want := range cases {
		raw, _ := json.Marshal(map[string]string{"_id": "f1", "severity": wire})
		f, err := DecodeFloodAlert(raw)
		require.NoError(t, err)
		assert.Equal(t, want, f.Severity, "wire %q", wire)
	}
}

func TestDecodeIncidentNormalizesStatus(t *testing.T) {
	cases := map[string]string{
		"Pending":    model.IncidentPending,
		"responding": model.IncidentResponding,
		"Resolved":   model.IncidentResolved,
		"Solved":     model.IncidentResolved,
		"":           model.IncidentPending,
	}
	for wire, want := range cases {
		raw, _ := json.Marshal(map[string]string{"_id": "i1", "status": wire})
		inc, err := DecodeIncident(raw)
		require.NoError(t, err)
		assert.Equal(t, want, inc.Status, "wire %q", wire)
	}
}

func TestDecodeVisitorRequestFoldsAliases(t *testing.T) {
	raw := json.RawMessage(`{
		"_id": "v1",
		"name": "Juan Dela Cruz",
		"datetime": "2026-03-02T14:00",
		"status": "Accepted"
	}`)

	v, err := DecodeVisitorRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", v.FullName)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), v.DateOfVisit)
	assert.Equal(t, model.VisitorApproved, v.Status)

	// Canonical spellings win over the aliases.
	raw = json.RawMessage(`{
		"_id": "v2",
		"fullName": "Maria Clara",
		"name": "ignored",
		"dateOfVisit": "2026-03-03T09:00",
		"datetime": "2026-01-01T00:00",
		"status": "declined"
	}`)
	v, err = DecodeVisitorRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "Maria Clara", v.FullName)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), v.DateOfVisit)
	assert.Equal(t, model.VisitorRejected, v.Status)
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "invalid credentials",
		serverMessage([]byte(`{"message":"invalid credentials"}`)))
	assert.Equal(t, "boom",
		serverMessage([]byte(`{"error":"boom"}`)))
	assert.Empty(t, serverMessage([]byte(`not json`)))
	assert.Empty(t, serverMessage(nil))
}
