package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/furniscan/furniscan-backend/internal/projects"
)

const sheetName = "Project"

// RenderXLSX writes a project as a two-column worksheet: the title row, a
// blank separator, then one row per list section with the section name in
// column A and the items joined with "; " in column B.
func RenderXLSX(p *projects.Project) ([]byte, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	rows := [][2]string{
		{"Title", p.Title},
		{"", ""},
		{"Materials", strings.Join(p.Materials, "; ")},
		{"Measurements", strings.Join(p.Measurements, "; ")},
		{"Steps", strings.Join(p.Instructions, "; ")},
	}
	for i, row := range rows {
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "B", "B", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
