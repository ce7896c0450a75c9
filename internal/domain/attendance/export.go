package attendance

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

var ErrEmptyReport = errors.New("report has no rows")

const unassignedDepartment = "Unassigned"

var reportHeaders = []string{"Name", "Department", "Position", "Present", "Absent", "Late", "Marked", "Working Days", "Attendance %"}

// ReportXLSX renders the report as a workbook with one sheet per department.
func ReportXLSX(report Report) (*bytes.Buffer, error) {
	if len(report.Rows) == 0 {
		return nil, ErrEmptyReport
	}

	byDept := make(map[string][]ReportRow)
	for _, row := range report.Rows {
		dept := strings.TrimSpace(row.Department)
		if dept == "" {
			dept = unassignedDepartment
		}
		byDept[dept] = append(byDept[dept], row)
	}
	depts := make([]string, 0, len(byDept))
	for dept := range byDept {
		depts = append(depts, dept)
	}
	sort.Strings(depts)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A237E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := map[string]bool{"sheet1": true}
	for _, dept := range depts {
		sheet := uniqueSheetName(dept, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &reportHeaders); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
		lastCol, _ := excelize.ColumnNumberToName(len(reportHeaders))
		if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
			return nil, fmt.Errorf("failed to style headers: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", "C", 24); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
		for i, row := range byDept[dept] {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			values := []any{
				row.Name, row.Department, row.Position,
				row.PresentDays, row.AbsentDays, row.LateDays, row.TotalMarkedDays,
				row.WorkingDays, row.AttendancePercentage,
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// uniqueSheetName truncates to the 31 rune limit and strips characters
// excel rejects in sheet names.
func uniqueSheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, name)
	if utf8.RuneCountInString(name) > 28 {
		name = string([]rune(name)[:28])
	}
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s %d", name, i)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ReportPDF renders the report as a landscape table.
func ReportPDF(report Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Attendance Report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s to %s", report.Summary.StartDate, report.Summary.EndDate))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Working days: %d    Employees: %d", report.Summary.WorkingDays, report.Summary.TotalEmployees))
	pdf.Ln(10)

	widths := []float64{55, 40, 45, 20, 20, 20, 20, 25, 30}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(26, 35, 126)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range reportHeaders {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range report.Rows {
		cells := []string{
			tr(row.Name), tr(row.Department), tr(row.Position),
			fmt.Sprint(row.PresentDays), fmt.Sprint(row.AbsentDays), fmt.Sprint(row.LateDays),
			fmt.Sprint(row.TotalMarkedDays), fmt.Sprint(row.WorkingDays),
			fmt.Sprintf("%.2f", row.AttendancePercentage),
		}
		for i, c := range cells {
			align := "R"
			if i < 3 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
