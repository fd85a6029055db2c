package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"yinyom/internal/consent/models"
	"yinyom/internal/identity"
	"yinyom/pkg/domain"
)

func sampleRecords(t *testing.T) []models.Record {
	t.Helper()
	accepted := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	thai, err := models.NewRecord(
		domain.NewConsentID(), identity.KindThaiID, "*-****-*****-**-2", "hash-a",
		domain.UserTypeCustomer, domain.LanguageThai,
		domain.NewDocumentID(), "1.0", accepted, "203.0.113.7",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	)
	require.NoError(t, err)

	passport, err := models.NewRecord(
		domain.NewConsentID(), identity.KindPassport, "*****4567", "hash-b",
		domain.UserTypeEmployee, domain.LanguageEnglish,
		domain.NewDocumentID(), "2.1", accepted.Add(time.Hour), "", "",
	)
	require.NoError(t, err)

	return []models.Record{*thai, *passport}
}

func TestWriteCSV(t *testing.T) {
	records := sampleRecords(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two records")

	assert.Equal(t, header, rows[0])
	assert.Equal(t, "2025-06-01T12:30:00Z", rows[1][0])
	assert.Equal(t, "*-****-*****-**-2", rows[1][1])
	assert.Equal(t, "thai_id", rows[1][2])
	assert.Equal(t, "customer", rows[1][3])
	assert.Equal(t, "th", rows[1][4])
	assert.Equal(t, "1.0", rows[1][5])
	assert.Equal(t, "passport", rows[2][2])
	assert.Equal(t, "en", rows[2][4])

	// The raw user agent is broken out into parsed browser and OS columns.
	assert.Contains(t, rows[1][8], "Chrome")
	assert.Contains(t, rows[1][9], "Windows")
	assert.Empty(t, rows[2][8])

	// No column leaks the hash or a full identity.
	assert.NotContains(t, strings.Join(rows[1], ","), "hash-a")
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestWriteXLSX(t *testing.T) {
	records := sampleRecords(t)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Consents")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, "*-****-*****-**-2", rows[1][1])
	assert.Equal(t, "2.1", rows[2][5])
}
