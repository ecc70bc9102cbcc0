// Package export renders day plans to XLSX workbooks for the planning office.
package export

import (
	"bytes"
	"fmt"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

var planHeader = []string{
	"Date",
	"Statut",
	"Salle",
	"Période",
	"Spécialité",
	"Chirurgien",
	"Personnel",
	"Rôle",
	"Référent",
}

var dutyHeader = []string{
	"Date",
	"Type",
	"Personnel",
	"Statut",
	"Début",
	"Fin",
}

// BuildWorkbook writes one sheet with the room/staff assignments and one with
// the duty assignments of a date range.
func BuildWorkbook(plans []*domain.DayPlan, duties []*domain.DutyAssignment) ([]byte, error) {
	f := excelize.NewFile()

	planSheet := "Planning bloc"
	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, planSheet, 1, toRow(planHeader)); err != nil {
		return nil, err
	}

	rowIdx := 2
	for _, plan := range plans {
		date := plan.Date.Format("02/01/2006")
		for _, ra := range plan.RoomAssignments {
			surgeon := ""
			if ra.SurgeonID != nil {
				surgeon = *ra.SurgeonID
			}

			if len(ra.StaffAssignments) == 0 {
				row := []any{date, string(plan.Status), ra.RoomID, string(ra.Period), ra.ExpectedSpecialty, surgeon, "", "", ""}
				if err := writeRow(f, planSheet, rowIdx, row); err != nil {
					return nil, err
				}
				rowIdx++
				continue
			}

			for _, sa := range ra.StaffAssignments {
				referent := "non"
				if sa.IsPrimary {
					referent = "oui"
				}
				row := []any{date, string(plan.Status), ra.RoomID, string(ra.Period), ra.ExpectedSpecialty, surgeon, sa.StaffID, string(sa.Role), referent}
				if err := writeRow(f, planSheet, rowIdx, row); err != nil {
					return nil, err
				}
				rowIdx++
			}
		}
	}

	dutySheet := "Gardes et astreintes"
	if _, err := f.NewSheet(dutySheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, dutySheet, 1, toRow(dutyHeader)); err != nil {
		return nil, err
	}

	for i, duty := range duties {
		row := []any{
			duty.Date.Format("02/01/2006"),
			string(duty.Type),
			duty.StaffID,
			string(duty.Status),
			duty.StartTime,
			duty.EndTime,
		}
		if err := writeRow(f, dutySheet, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("écriture de la ligne %d : %w", row, err)
	}
	return nil
}

func toRow(header []string) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}
