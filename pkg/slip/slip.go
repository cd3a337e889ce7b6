package slip

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// DocumentLine is one row of the documents-collected table.
type DocumentLine struct {
	Label     string
	Collected bool
}

// Details carries everything printed on an admission slip.
type Details struct {
	StudentID         string
	StudentName       string
	ParentName        string
	ApplicationNumber string
	Department        string
	ProgramName       string
	AdmissionType     string
	RegistrationDate  time.Time
	VerifiedBy        string
	Documents         []DocumentLine
	GeneratedAt       time.Time
}

// Renderer produces admission slip PDFs.
type Renderer struct {
	collegeName    string
	collegeAddress string
}

// NewRenderer constructs a slip renderer branded with the college identity.
func NewRenderer(collegeName, collegeAddress string) *Renderer {
	if collegeName == "" {
		collegeName = "Admissions Office"
	}
	return &Renderer{collegeName: collegeName, collegeAddress: collegeAddress}
}

// Render lays out a single-page A4 admission slip.
func (r *Renderer) Render(d Details) ([]byte, error) {
	if d.StudentID == "" || d.StudentName == "" {
		return nil, fmt.Errorf("slip requires student id and name")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, strings.ToUpper(r.collegeName), "", 1, "C", false, 0, "")
	if r.collegeAddress != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, r.collegeAddress, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, "ADMISSION SLIP", "1", 1, "C", true, 0, "")
	pdf.Ln(6)

	rows := []struct {
		label, value string
	}{
		{"Student ID", d.StudentID},
		{"Student Name", d.StudentName},
		{"Parent Name", d.ParentName},
		{"Application Number", d.ApplicationNumber},
		{"Department", d.Department},
		{"Program", d.ProgramName},
		{"Admission Type", d.AdmissionType},
		{"Registration Date", formatDate(d.RegistrationDate)},
		{"Documents Verified By", d.VerifiedBy},
	}

	labelWidth := 60.0
	valueWidth := 120.0
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(labelWidth, 9, row.label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		value := row.value
		if value == "" {
			value = "-"
		}
		pdf.CellFormat(valueWidth, 9, value, "1", 1, "L", false, 0, "")
	}

	if len(d.Documents) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "DOCUMENTS COLLECTED", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(12, 8, "S.No", "1", 0, "C", false, 0, "")
		pdf.CellFormat(138, 8, "Document", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, "Collected", "1", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for i, doc := range d.Documents {
			mark := ""
			if doc.Collected {
				mark = "Yes"
			}
			pdf.CellFormat(12, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
			pdf.CellFormat(138, 7, doc.Label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, mark, "1", 1, "C", false, 0, "")
		}
	}

	pdf.Ln(14)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(90, 8, "_______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 8, "_______________________", "", 1, "R", false, 0, "")
	pdf.CellFormat(90, 6, "Candidate Signature", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Admissions Officer", "", 1, "R", false, 0, "")

	pdf.Ln(10)
	generated := d.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated on %s. This slip is valid only with a government photo ID.", generated.Format("02 Jan 2006 15:04 MST")), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render admission slip: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}
