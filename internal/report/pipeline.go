// Package report формирует выгрузки для кадровой службы.
package report

import (
	"fmt"
	"time"

	"github.com/headoffice-api/internal/dto"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Candidates"
)

// PipelineWorkbook строит книгу XLSX с двумя листами: число кандидатов по стадиям
// и список кандидатов
func PipelineWorkbook(pipeline *dto.PipelineResponse, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	summary := [][]any{
		{"Recruitment pipeline", generatedAt.UTC().Format(time.RFC3339)},
		{"Stage", "Candidates"},
	}
	for _, s := range pipeline.Stages {
		summary = append(summary, []any{string(s.Stage), s.Count})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}

	rows := [][]any{{"ID", "Name", "Email", "Employment stage", "Recruitment stage", "Updated"}}
	for _, c := range pipeline.Candidates {
		rows = append(rows, []any{
			c.ID,
			c.FullName,
			c.Email,
			string(c.Stage),
			string(c.RecruitmentStage),
			c.UpdatedAt.UTC().Format(dto.DateLayout),
		})
	}
	if err := writeRows(f, candidatesSheet, rows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
