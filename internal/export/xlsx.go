package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
)

const (
	VocabularySheet = "Vocabulary"
	SummarySheet    = "Summary"
)

// WriteVocabulary writes the learner's vocabulary and totals as an XLSX workbook.
func WriteVocabulary(w io.Writer, p *entities.ProgressRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", VocabularySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeVocabSheet(f, p); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, p); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeVocabSheet(f *excelize.File, p *entities.ProgressRecord) error {
	header := []any{"Word", "Times correct", "First seen"}
	if err := f.SetSheetRow(VocabularySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetRowStyle(VocabularySheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	words := make([]string, 0, len(p.Vocab))
	for w := range p.Vocab {
		words = append(words, w)
	}
	sort.Strings(words)

	for i, word := range words {
		entry := p.Vocab[word]

		firstSeen := ""
		if !entry.FirstSeen.IsZero() {
			firstSeen = entry.FirstSeen.UTC().Format("2006-01-02 15:04")
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{word, entry.TimesCorrect, firstSeen}
		if err := f.SetSheetRow(VocabularySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetColWidth(VocabularySheet, "A", "C", 18)
}

func writeSummarySheet(f *excelize.File, p *entities.ProgressRecord) error {
	rows := [][]any{
		{"Total XP", p.XPTotal},
		{"Streak", p.Streak},
		{"Last active day", p.LastActiveDay},
		{"Words learned", p.WordsLearned},
		{"Lessons completed", p.LessonsCompleted()},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	return f.SetColWidth(SummarySheet, "A", "A", 20)
}
