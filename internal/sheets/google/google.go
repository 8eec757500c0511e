// Package google exports shopping lists to a Google Sheets spreadsheet, one
// tab per user.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetai/internal/log"
	"budgetai/internal/sheets"
)

// Settings select the spreadsheet and credentials.
type Settings struct {
	SpreadsheetID      string
	TabPrefix          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabPrefix     string
	logger        *log.Logger

	mu   sync.Mutex
	tabs map[string]bool
}

var _ sheets.ShoppingListExporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, s Settings) (*Exporter, error) {
	if strings.TrimSpace(s.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, s.ServiceAccountJSON, s.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, s.SpreadsheetID, s.TabPrefix), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, tabPrefix string) *Exporter {
	if tabPrefix == "" {
		tabPrefix = "Shopping List"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabPrefix:     tabPrefix,
		logger:        log.Default(log.ComponentSheets),
		tabs:          map[string]bool{},
	}
}

// newSheetsService initializes a Sheets service from service account
// credentials, inline JSON taking precedence over a file path.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	var creds []byte
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		creds = []byte(credentialsJSON)
	case strings.TrimSpace(credentialsFile) != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportShoppingList replaces the contents of the owner's tab with list.
func (e *Exporter) ExportShoppingList(ctx context.Context, list sheets.ShoppingList) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := sheets.TabName(e.tabPrefix, list.Owner)
	if err := e.ensureTab(ctx, tab); err != nil {
		return err
	}

	rng := quoteTab(tab) + "!A:H"
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	vr := &gsheet.ValueRange{Values: sheets.Rows(list)}
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, quoteTab(tab)+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}

	e.logger.InfoContext(ctx, "Shopping list exported",
		log.FieldUserID, list.UserID, "tab", tab, "version", list.Version, "items", len(list.Items))
	return nil
}

// ensureTab creates tab unless it is known to exist.
func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	e.mu.Lock()
	known := e.tabs[tab]
	e.mu.Unlock()
	if known {
		return nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			exists = true
			break
		}
	}

	if !exists {
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}}}
		if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("create tab %s: %w", tab, err)
		}
		e.logger.InfoContext(ctx, "Created sheet tab", "tab", tab)
	}

	e.mu.Lock()
	e.tabs[tab] = true
	e.mu.Unlock()
	return nil
}

// quoteTab quotes a tab name for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
