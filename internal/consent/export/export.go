// Package export renders consent records for administrators, as CSV or as an
// Excel workbook. Only masked identities reach an export; the hash and raw
// identity never leave the service.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"yinyom/internal/consent/models"
)

var header = []string{
	"accepted_at",
	"identity",
	"identity_kind",
	"user_type",
	"language",
	"document_version",
	"document_id",
	"ip_address",
	"browser",
	"os",
	"user_agent",
}

func row(rec models.Record) []string {
	client := models.ParseClient(rec.UserAgent)
	return []string{
		rec.AcceptedAt.UTC().Format(time.RFC3339),
		rec.MaskedIdentity,
		string(rec.IdentityKind),
		rec.UserType.String(),
		rec.Language.String(),
		rec.DocumentVersion,
		rec.DocumentID.String(),
		rec.IPAddress,
		client.Browser,
		client.OS,
		rec.UserAgent,
	}
}

// WriteCSV streams records as RFC 4180 CSV.
func WriteCSV(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes records as a single-sheet Excel workbook.
func WriteXLSX(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Consents"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	for i, rec := range records {
		for col, value := range row(rec) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
