// Package export renders rollout plans as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/vocatrack/internal/rollout"
)

// SheetName is the worksheet that holds the plan.
const SheetName = "Rollout Plan"

// ContentType is the MIME type of the XLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet.
var Header = []string{"Module", "Code", "Unit Standard", "Credits", "Start", "End", "Assessing", "Summative"}

// WritePlan writes plan as an XLSX workbook with one row per unit standard,
// followed by the module's workplace activity when it has one.
func WritePlan(w io.Writer, plan rollout.Plan) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	put := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
		return nil
	}

	for _, m := range plan.Modules {
		module := fmt.Sprintf("%d. %s", m.ModuleNumber, m.ModuleName)
		for _, u := range m.UnitStandards {
			if err := put([]any{
				module, u.Code, u.Title, u.Credits,
				u.StartDate.String(), u.EndDate.String(),
				u.AssessingDate.String(), u.SummativeDate.String(),
			}); err != nil {
				return err
			}
		}
		if wp := m.Workplace; wp != nil {
			if err := put([]any{
				module, "", wp.Label, "",
				wp.StartDate.String(), wp.EndDate.String(), "", "",
			}); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename is the download name for a group's plan.
func Filename(plan rollout.Plan) string {
	name := plan.GroupName
	if name == "" {
		name = "group"
	}
	return fmt.Sprintf("rollout-plan-%s.xlsx", sanitize(name))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	return string(out)
}
