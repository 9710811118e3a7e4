package report

import (
	"bytes"
	"fmt"
	"regexp"
	"time"

	"mockinterview/internal/interview/model"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	dateLayout = "Jan 02, 2006 15:04"
	pageMargin = 15.0
)

type rgb struct{ r, g, b int }

var (
	primaryColor = rgb{99, 102, 241}
	lightGray    = rgb{243, 244, 246}
	darkGray     = rgb{107, 114, 128}
	scoreGreen   = rgb{34, 197, 94}
	scoreOrange  = rgb{249, 115, 22}
	scoreRed     = rgb{239, 68, 68}
	black        = rgb{17, 24, 39}

	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Data is everything the interview report shows.
type Data struct {
	Interview     *model.Interview
	CandidateName string
	GeneratedAt   time.Time
}

// Summary holds the aggregate score of an interview.
type Summary struct {
	Answered int
	Total    int
	Average  float64
}

// Summarize averages the first answer of every answered question.
func Summarize(interview *model.Interview) Summary {
	s := Summary{Total: len(interview.Questions)}
	total := 0
	for _, q := range interview.Questions {
		if a := q.FirstAnswer(); a != nil {
			total += a.Score
			s.Answered++
		}
	}
	if s.Answered > 0 {
		s.Average = float64(total) / float64(s.Answered)
	}
	return s
}

// FileName returns the download name for an interview report.
func FileName(interview *model.Interview) string {
	return fmt.Sprintf("Interview_%s_%d.pdf", unsafeFileChars.ReplaceAllString(interview.JobTitle, "_"), interview.ID)
}

// Render lays out the report as a PDF document.
func Render(d Data) ([]byte, error) {
	if d.Interview == nil {
		return nil, fmt.Errorf("interview is required")
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 9)
		setText(pdf, darkGray)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Generated by Mock Interview on %s", d.GeneratedAt.Format(dateLayout))),
			"", 1, "C", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	iv := d.Interview
	writeHeader(pdf, tr, iv)
	writeDetails(pdf, tr, iv, d.CandidateName)
	writeQuestions(pdf, tr, iv)
	writeSummary(pdf, iv)

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, iv *model.Interview) {
	pdf.SetFont(fontFamily, "B", 28)
	setText(pdf, primaryColor)
	pdf.CellFormat(0, 14, "Interview Report", "", 1, "C", false, 0, "")
	pdf.SetFont(fontFamily, "", 18)
	setText(pdf, darkGray)
	pdf.CellFormat(0, 10, tr(iv.JobTitle), "", 1, "C", false, 0, "")
	pdf.Ln(6)
}

func writeDetails(pdf *fpdf.Fpdf, tr func(string) string, iv *model.Interview, candidate string) {
	rows := [][2]string{
		{"Job Title:", iv.JobTitle},
		{"Started At:", iv.StartedAt.Format(dateLayout)},
	}
	if iv.FinishedAt != nil {
		rows = append(rows, [2]string{"Finished At:", iv.FinishedAt.Format(dateLayout)})
	}
	if iv.RoundType != "" {
		rows = append(rows, [2]string{"Round:", iv.RoundType})
	}
	rows = append(rows,
		[2]string{"Total Questions:", fmt.Sprintf("%d", len(iv.Questions))},
		[2]string{"Candidate:", candidate},
	)

	width, _ := pdf.GetPageSize()
	labelW := (width - 2*pageMargin) / 3
	for _, row := range rows {
		pdf.SetFont(fontFamily, "B", 11)
		setText(pdf, black)
		setFill(pdf, lightGray)
		pdf.CellFormat(labelW, 9, tr(row[0]), "", 0, "L", true, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, 9, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func writeQuestions(pdf *fpdf.Fpdf, tr func(string) string, iv *model.Interview) {
	sectionTitle(pdf, "Questions & Answers")
	for i, q := range iv.Questions {
		pdf.SetFont(fontFamily, "B", 14)
		setText(pdf, primaryColor)
		pdf.CellFormat(0, 9, fmt.Sprintf("Question %d", i+1), "", 1, "L", false, 0, "")

		pdf.SetFont(fontFamily, "", 12)
		setText(pdf, black)
		pdf.MultiCell(0, 6, tr(q.QuestionText), "", "L", false)
		pdf.Ln(2)

		a := q.FirstAnswer()
		if a == nil {
			pdf.SetFont(fontFamily, "I", 11)
			setText(pdf, darkGray)
			pdf.CellFormat(0, 7, "Not answered", "", 1, "L", false, 0, "")
			pdf.Ln(4)
			continue
		}

		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(0, 7, "Your Answer:", "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		setFill(pdf, lightGray)
		pdf.MultiCell(0, 6, tr(a.UserAnswer), "", "L", true)
		pdf.Ln(2)

		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(0, 7, "AI Feedback:", "", 1, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.MultiCell(0, 6, tr(a.AIFeedback), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont(fontFamily, "B", 12)
		setText(pdf, scoreColor(a.Score))
		pdf.CellFormat(0, 8, fmt.Sprintf("Score: %d/100", a.Score), "", 1, "L", false, 0, "")
		setText(pdf, black)
		pdf.Ln(4)
	}
}

func writeSummary(pdf *fpdf.Fpdf, iv *model.Interview) {
	s := Summarize(iv)
	sectionTitle(pdf, "Summary")

	width, _ := pdf.GetPageSize()
	half := (width - 2*pageMargin) / 2
	rows := [][2]string{
		{"Questions Answered", fmt.Sprintf("%d / %d", s.Answered, s.Total)},
		{"Average Score", fmt.Sprintf("%.1f/100", s.Average)},
	}
	for i, row := range rows {
		pdf.SetFont(fontFamily, "B", 11)
		setText(pdf, black)
		setFill(pdf, lightGray)
		pdf.CellFormat(half, 10, row[0], "", 0, "L", true, 0, "")
		pdf.SetFont(fontFamily, "B", 11)
		if i == 1 {
			setText(pdf, scoreColor(int(s.Average)))
		}
		pdf.CellFormat(half, 10, row[1], "", 1, "L", false, 0, "")
	}
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont(fontFamily, "B", 20)
	setText(pdf, primaryColor)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// scoreColor picks green for 80 and above, orange for 60 and above, red otherwise.
func scoreColor(score int) rgb {
	switch {
	case score >= 80:
		return scoreGreen
	case score >= 60:
		return scoreOrange
	default:
		return scoreRed
	}
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
