package services

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"alfredoptarigan/interview-agent/internal/models"
)

const (
	summarySheet = "Summary"
	roundsSheet  = "Rounds"
)

var roundHeaders = []string{"Round", "Owner", "Attempt", "Question", "Score", "Threshold", "Passed", "Submitted At"}

// ExportSummary writes the session summary as an xlsx workbook with a Summary
// sheet and one Rounds row per attempt.
func ExportSummary(w io.Writer, summary *SessionSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if _, err := f.NewSheet(roundsSheet); err != nil {
		return fmt.Errorf("failed to create rounds sheet: %w", err)
	}

	if err := writeSummarySheet(f, summary); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := writeRoundsSheet(f, summary); err != nil {
		return fmt.Errorf("failed to write rounds sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, summary *SessionSummary) error {
	if err := setColWidths(f, summarySheet, map[string]float64{"A": 20, "B": 45}); err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	session := summary.Session
	decision, finalScore, completedAt := "", "", ""
	if session.FinalDecision != nil {
		decision = string(*session.FinalDecision)
	}
	if session.FinalScore != nil {
		finalScore = fmt.Sprintf("%.2f", *session.FinalScore)
	}
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.Format(time.RFC3339)
	}

	rows := [][2]string{
		{"Session", session.ID.String()},
		{"Candidate", summary.Candidate.Name},
		{"Role", session.Role},
		{"Stage", fmt.Sprintf("%d (%s)", int(session.Stage), session.Stage)},
		{"State", string(summary.State())},
		{"Decision", decision},
		{"Final Score", finalScore},
		{"Completed At", completedAt},
	}

	for i, r := range rows {
		label := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(summarySheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r[1]); err != nil {
			return err
		}
	}

	return nil
}

func writeRoundsSheet(f *excelize.File, summary *SessionSummary) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	passStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	failStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	widths := map[string]float64{"A": 10, "B": 20, "C": 10, "D": 40, "E": 12, "F": 12, "G": 12, "H": 24}
	if err := setColWidths(f, roundsSheet, widths); err != nil {
		return err
	}

	if err := f.SetSheetRow(roundsSheet, "A1", &roundHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(roundsSheet, "A1", fmt.Sprintf("%c1", 'A'+len(roundHeaders)-1), headerStyle); err != nil {
		return err
	}

	row := 2
	for _, round := range models.Rounds() {
		for _, r := range summary.Rounds[round] {
			err := f.SetSheetRow(roundsSheet, fmt.Sprintf("A%d", row), &[]any{
				int(r.RoundNo),
				r.Owner,
				r.Attempt,
				r.Question,
				r.Score,
				r.Threshold,
				r.Passed,
				r.CreatedAt.Format(time.RFC3339),
			})
			if err != nil {
				return err
			}

			style := failStyle
			if r.Passed {
				style = passStyle
			}
			passed := fmt.Sprintf("G%d", row)
			if err := f.SetCellStyle(roundsSheet, passed, passed, style); err != nil {
				return err
			}
			row++
		}
	}

	return nil
}

func setColWidths(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}
	return nil
}
