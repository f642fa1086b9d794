package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/headoffice-api/internal/domain"
	"github.com/headoffice-api/internal/dto"
	"github.com/xuri/excelize/v2"
)

func TestPipelineWorkbook(t *testing.T) {
	pipeline := &dto.PipelineResponse{
		Stages: []dto.StageCount{
			{Stage: domain.StageApplication, Count: 3},
			{Stage: domain.StageShortlisted, Count: 1},
		},
		Candidates: []dto.CandidateSummary{
			{
				ID:               7,
				FullName:         "Ada Lovelace",
				Email:            "ada@example.com",
				Stage:            domain.EmploymentCandidate,
				RecruitmentStage: domain.StageShortlisted,
				UpdatedAt:        time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC),
			},
		},
	}

	data, err := PipelineWorkbook(pipeline, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	tests := []struct {
		sheet string
		cell  string
		want  string
	}{
		{summarySheet, "A3", "application"},
		{summarySheet, "B3", "3"},
		{summarySheet, "B4", "1"},
		{candidatesSheet, "B2", "Ada Lovelace"},
		{candidatesSheet, "E2", "shortlisted"},
		{candidatesSheet, "F2", "2024-06-14"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Fatalf("%s!%s: %v", tt.sheet, tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s!%s: expected %q, got %q", tt.sheet, tt.cell, tt.want, got)
		}
	}
}
