package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"taskfigma/internal/models"
	"taskfigma/internal/notify"
)

const dateLayout = "02.01.2006 15:04"

// Generator renders a task report (easy to mock in handler tests).
type Generator interface {
	RenderTask(task *models.Task) ([]byte, error)
}

// ReportGenerator draws with a UTF-8 TTF when FontPath is set and with core Helvetica
// otherwise. Core fonts only cover cp1252, so other characters come out as '?'.
type ReportGenerator struct {
	FontPath string
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath}
}

// page bundles the document with the font and text translation in use.
type page struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *ReportGenerator) newPage(title string) *page {
	pdf := gofpdf.New("P", "mm", "A4", "")
	p := &page{pdf: pdf, font: "Helvetica", tr: func(s string) string { return s }}
	if g.FontPath != "" {
		p.font = "DejaVu"
		pdf.AddUTF8Font(p.font, "", g.FontPath)
		pdf.AddUTF8Font(p.font, "B", g.FontPath)
	} else {
		p.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetTitle(title, g.FontPath != "")
	pdf.SetAuthor("taskfigma", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(p.font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return p
}

func (g *ReportGenerator) RenderTask(task *models.Task) ([]byte, error) {
	if task == nil {
		return nil, fmt.Errorf("render task report: no task")
	}
	heading := strings.TrimSpace(task.Alias + " " + task.Title)
	p := g.newPage(heading)
	p.pdf.AddPage()

	p.pdf.SetFont(p.font, "B", 16)
	p.pdf.MultiCell(0, 9, p.tr(heading), "", "L", false)
	p.hr()

	p.sectionTitle("Details")
	if task.Project != nil {
		p.kvLine("Project", task.Project.ProjectName)
	}
	p.kvLine("Status", task.Status.String())
	p.kvLine("Priority", task.Priority.String())
	if task.Reporter != nil {
		p.kvLine("Reporter", task.Reporter.Name)
	}
	p.kvLine("Assignees", userNames(task.Assignees))
	if task.DueDate != nil {
		p.kvLine("Due date", task.DueDate.Format(dateLayout))
	}
	p.kvLine("Created", task.CreatedAt.Format(dateLayout))
	p.kvLine("Updated", task.UpdatedAt.Format(dateLayout))
	if len(task.Attachments) > 0 {
		names := make([]string, 0, len(task.Attachments))
		for _, a := range task.Attachments {
			names = append(names, a.FileName)
		}
		p.kvLine("Attachments", strings.Join(names, ", "))
	}
	if task.Description != "" {
		p.pdf.Ln(2)
		p.pdf.SetFont(p.font, "", 11)
		p.pdf.MultiCell(0, 6, p.tr(task.Description), "", "L", false)
	}
	p.hr()

	p.sectionTitle(fmt.Sprintf("Comments (%d)", len(task.Comments)))
	for _, c := range task.Comments {
		author := "unknown"
		if c.CreatedBy != nil {
			author = c.CreatedBy.Name
		}
		p.pdf.SetFont(p.font, "B", 10)
		p.pdf.CellFormat(0, 6, p.tr(fmt.Sprintf("%s, %s", author, c.CreatedAt.Format(dateLayout))), "", 1, "L", false, 0, "")
		p.pdf.SetFont(p.font, "", 10)
		p.pdf.MultiCell(0, 5, p.tr(c.CommentText), "", "L", false)
		p.pdf.Ln(1)
	}
	p.hr()

	p.sectionTitle("Activity")
	p.pdf.SetFont(p.font, "", 10)
	for _, a := range task.ActivityLog {
		p.pdf.CellFormat(32, 5, a.CreatedAt.Format(dateLayout), "", 0, "L", false, 0, "")
		p.pdf.MultiCell(0, 5, p.tr(notify.Line(a)), "", "L", false)
	}

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render task report: %w", err)
	}
	return buf.Bytes(), nil
}

func userNames(users []models.User) string {
	if len(users) == 0 {
		return "-"
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return strings.Join(names, ", ")
}

func (p *page) sectionTitle(s string) {
	p.pdf.SetFont(p.font, "B", 12)
	p.pdf.CellFormat(0, 7, p.tr(s), "", 1, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
}

func (p *page) kvLine(key, val string) {
	p.pdf.SetFont(p.font, "B", 11)
	p.pdf.CellFormat(35, 6, p.tr(key+":"), "", 0, "L", false, 0, "")
	p.pdf.SetFont(p.font, "", 11)
	p.pdf.MultiCell(0, 6, p.tr(val), "", "L", false)
}

func (p *page) hr() {
	y := p.pdf.GetY() + 1.5
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(20, y, 190, y)
	p.pdf.SetY(y + 2)
}
