package export

import (
	"bytes"
	"fmt"

	"ambulance-list/internal/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Transports"

var TransportHeader = []string{
	"Patient Name",
	"Patient ID",
	"From",
	"To",
	"Scheduled",
	"Duration (min)",
	"Mobility",
	"Transport ID",
}

var columnWidths = []float64{28, 14, 14, 14, 18, 14, 16, 38}

// TransportsXLSX writes transports as a single-sheet workbook in list order.
func TransportsXLSX(transports []models.TransportRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &TransportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(TransportHeader), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range transports {
		t := &transports[i]
		scheduled := ""
		if !t.ScheduledDateTime.IsZero() {
			scheduled = t.ScheduledDateTime.Format("2006-01-02 15:04")
		}
		mobility := t.MobilityStatus.Value
		if mobility == "" {
			mobility = t.MobilityStatus.Code
		}
		row := []interface{}{
			t.PatientName,
			t.PatientID,
			t.FromDepartmentID,
			t.ToDepartmentID,
			scheduled,
			t.EstimatedDurationMinutes,
			mobility,
			t.ID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
