package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/pkg/mailer"
)

// Compile-time check to ensure ReportServiceImpl implements ReportService
var _ ReportService = (*ReportServiceImpl)(nil)

// reportHeaders are the campaign report columns, in order. The first columns
// are seeded from the prospect upload, the last two are filled per call.
var reportHeaders = []string{
	"name",
	"phoneNumber",
	"businessName",
	"NewownerName",
	"NewNumber",
	"BestTimetoCall",
	"callConnection",
	"callOutcomes",
}

// ReportServiceImpl maintains a disposable CSV per campaign under a temp
// directory and converts it to a spreadsheet on finalize. The report is a
// side artifact, never source of truth.
type ReportServiceImpl struct {
	root      string
	mailer    mailer.Sender
	recipient string
	mu        sync.Mutex
}

// NewReportService creates a new ReportServiceImpl
func NewReportService(sender mailer.Sender, cfg *config.Config) *ReportServiceImpl {
	return &ReportServiceImpl{
		root:      filepath.Join(os.TempDir(), "campaign_reports"),
		mailer:    sender,
		recipient: cfg.Report.Recipient,
	}
}

func (s *ReportServiceImpl) csvPath(campaignID string) string {
	return filepath.Join(s.root, campaignID, campaignID+".csv")
}

func (s *ReportServiceImpl) xlsxPath(campaignID string) string {
	return filepath.Join(s.root, campaignID, campaignID+".xlsx")
}

// Seed ensures a report row exists for each prospect. Existing rows are
// never overwritten.
func (s *ReportServiceImpl) Seed(campaignID string, prospects []*models.Prospect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.csvPath(campaignID)
	rows, err := s.readRows(path)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		seen[strings.TrimSpace(row["phoneNumber"])] = true
	}

	added := false
	for _, p := range prospects {
		phone := strings.TrimSpace(p.PhoneNumber)
		if phone == "" || seen[phone] {
			continue
		}
		rows = append(rows, map[string]string{
			"name":         p.Name,
			"phoneNumber":  phone,
			"businessName": p.BusinessName,
		})
		seen[phone] = true
		added = true
	}
	if !added {
		return nil
	}
	return s.writeRows(path, rows)
}

// RecordOutcome fills the connection/outcome columns for a phone number
func (s *ReportServiceImpl) RecordOutcome(campaignID, phone, connection, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.csvPath(campaignID)
	rows, err := s.readRows(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	updated := false
	for _, row := range rows {
		if strings.TrimSpace(row["phoneNumber"]) != strings.TrimSpace(phone) {
			continue
		}
		if connection != "" {
			row["callConnection"] = connection
		}
		if outcome != "" {
			row["callOutcomes"] = outcome
		}
		updated = true
		break
	}
	if !updated {
		return nil
	}
	return s.writeRows(path, rows)
}

// FinalizeIfComplete converts, emails and removes the report once every row
// has both outcome columns populated
func (s *ReportServiceImpl) FinalizeIfComplete(ctx context.Context, campaignID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(s.csvPath(campaignID))
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	for _, row := range rows {
		if strings.TrimSpace(row["callConnection"]) == "" || strings.TrimSpace(row["callOutcomes"]) == "" {
			return false, nil
		}
	}

	xlsxPath, err := s.convertToXLSX(campaignID, rows)
	if err != nil {
		return false, fmt.Errorf("convert report to spreadsheet: %w", err)
	}

	subject := fmt.Sprintf("Campaign Report %s", campaignID)
	body := fmt.Sprintf("<p>Report generated on %s</p>", time.Now().UTC().Format(time.RFC3339))
	if err := s.mailer.Send(ctx, s.recipient, subject, body, xlsxPath); err != nil {
		return false, fmt.Errorf("email report: %w", err)
	}

	s.cleanup(campaignID)
	slog.Info("Campaign report finalized and sent", "campaignId", campaignID, "recipient", s.recipient, "rows", len(rows))
	return true, nil
}

func (s *ReportServiceImpl) convertToXLSX(campaignID string, rows []map[string]string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", err
		}
	}
	for r, row := range rows {
		for col, header := range reportHeaders {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(sheet, cell, row[header]); err != nil {
				return "", err
			}
		}
	}

	path := s.xlsxPath(campaignID)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *ReportServiceImpl) cleanup(campaignID string) {
	for _, path := range []string{s.csvPath(campaignID), s.xlsxPath(campaignID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove report artifact", "error", err, "path", path)
		}
	}
}

func (s *ReportServiceImpl) readRows(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := map[string]string{}
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ReportServiceImpl) writeRows(path string, rows []map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(reportHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(reportHeaders))
		for i, header := range reportHeaders {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
