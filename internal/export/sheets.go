package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gstdash/internal/core"
	"gstdash/internal/log"
)

// ValuesAPI is the part of the Sheets values service the exporter uses.
type ValuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

// SheetsExporter replaces a sheet's contents with flattened filing rows.
type SheetsExporter struct {
	values ValuesAPI
	logger *log.Logger
}

func NewSheetsExporter(values ValuesAPI, logger *log.Logger) *SheetsExporter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SheetsExporter{values: values, logger: logger.WithComponent(log.ComponentExport)}
}

// Export clears sheet and writes the header plus one row per invoice.
func (e *SheetsExporter) Export(ctx context.Context, spreadsheetID, sheet string, filings []core.Filing) error {
	if strings.TrimSpace(spreadsheetID) == "" {
		return errors.New("missing spreadsheet id")
	}
	if sheet == "" {
		sheet = SheetFilings
	}

	if err := e.values.Clear(ctx, spreadsheetID, sheet); err != nil {
		return fmt.Errorf("clear %s: %w", sheet, err)
	}

	header := Header()
	rows := make([][]any, 0, len(filings)+1)
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	rows = append(rows, hdr)
	for _, vs := range flatValues(filings) {
		row := make([]any, len(vs))
		for i, v := range vs {
			row[i] = cellNumber(v)
		}
		rows = append(rows, row)
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	if err := e.values.Update(ctx, spreadsheetID, rng, rows); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	e.logger.InfoContext(ctx, "Exported filings to Google Sheets",
		log.FieldOperation, log.OpExport,
		"sheet", sheet,
		log.FieldCount, len(rows)-1)
	return nil
}

// googleValues adapts the Sheets v4 service to ValuesAPI.
type googleValues struct {
	svc *gsheet.Service
}

func (g googleValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g googleValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// Credentials selects a service account: inline JSON wins over a file path.
type Credentials struct {
	JSON string
	File string
}

// NewGoogleValues builds a Sheets client from service account credentials.
// With neither set it falls back to GOOGLE_APPLICATION_CREDENTIALS.
func NewGoogleValues(ctx context.Context, creds Credentials) (ValuesAPI, error) {
	var (
		raw []byte
		err error
	)
	file := strings.TrimSpace(creds.File)
	if file == "" && strings.TrimSpace(creds.JSON) == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case strings.TrimSpace(creds.JSON) != "":
		raw = []byte(creds.JSON)
	case file != "":
		raw, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return googleValues{svc: svc}, nil
}
