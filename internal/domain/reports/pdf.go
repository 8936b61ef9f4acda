package reports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

const dateLayout = "02/01/2006"

// VerificationCode identifies one generated report. It is printed and
// encoded in the QR block of the PDF.
func VerificationCode(patientID string, generatedAt time.Time) string {
	return fmt.Sprintf("clinic-report:%s:%s", patientID, generatedAt.UTC().Format(time.RFC3339))
}

// ExportPatientReportPDF builds the patient report and renders it as PDF.
func (s *Service) ExportPatientReportPDF(ctx context.Context, req PatientReportRequest) ([]byte, error) {
	report, err := s.GeneratePatientReport(ctx, req)
	if err != nil {
		return nil, err
	}
	return RenderPatientReportPDF(report)
}

func RenderPatientReportPDF(r *PatientReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	heading := func(text string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(text), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.Ln(1)
	}
	line := func(label, value string) {
		if value == "" {
			return
		}
		pdf.MultiCell(0, 6, tr(label+": "+value), "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Relatório do Paciente"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, tr("Gerado em "+r.GeneratedAt.Format("02/01/2006 15:04")+" UTC"), "", 1, "C", false, 0, "")

	heading("Dados do paciente")
	line("Nome", r.Patient.Name)
	line("CPF", r.Patient.CPF)
	line("Nascimento", fmt.Sprintf("%s (%d anos)", r.Patient.BirthDate.Format(dateLayout), r.Patient.Age))
	line("Gênero", r.Patient.Gender)
	line("Telefone", r.Patient.Phone)
	line("E-mail", r.Patient.Email)
	if r.Period.StartDate != nil || r.Period.EndDate != nil {
		line("Período", formatPeriod(r.Period))
	}

	if h := r.MedicalHistory; h != nil {
		heading("Histórico médico")
		line("Queixa principal", h.MainComplaint)
		line("História da doença atual", h.CurrentIllnessHistory)
		line("Doenças crônicas", strings.Join(h.ChronicDiseases, ", "))
		line("Medicamentos", strings.Join(h.Medications, ", "))
		line("Alergias", strings.Join(h.Allergies, ", "))
		line("Histórico familiar", h.FamilyHistory)
	}

	if len(r.Evolutions) > 0 {
		heading(fmt.Sprintf("Evoluções (%d)", len(r.Evolutions)))
		for _, e := range r.Evolutions {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s - %s (%s)", e.Date.Format(dateLayout), e.ProfessionalName, e.ProfessionalRole)), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			line("Subjetivo", e.SubjectiveData)
			line("Objetivo", e.ObjectiveData)
			line("Avaliação", e.Assessment)
			line("Conduta", e.Plan)
			line("Observações", e.Notes)
			pdf.Ln(2)
		}
	}

	if len(r.Appointments) > 0 {
		heading(fmt.Sprintf("Agendamentos (%d)", len(r.Appointments)))
		for _, a := range r.Appointments {
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s %s - %s - %s - %s", a.Date.Format(dateLayout), a.StartTime, a.ProfessionalName, a.Type, a.Status)), "", "L", false)
		}
	}

	if len(r.AnthropometricData) > 0 {
		heading("Dados antropométricos")
		for _, p := range r.AnthropometricData {
			pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  peso %s  altura %s  IMC %s",
				p.Date.Format(dateLayout), formatFloat(p.Weight), formatFloat(p.Height), formatFloat(p.BMI))), "", 1, "L", false, 0, "")
		}
	}

	heading("Estatísticas")
	st := r.Statistics
	line("Evoluções", fmt.Sprint(st.TotalEvolutions))
	line("Agendamentos", fmt.Sprintf("%d (concluídos %d, cancelados %d, faltas %d)",
		st.TotalAppointments, st.CompletedAppointments, st.CancelledAppointments, st.MissedAppointments))
	if st.WeightChange != nil {
		line("Variação de peso", formatFloat(st.WeightChange)+" kg")
	}
	if st.BMIChange != nil {
		line("Variação de IMC", formatFloat(st.BMIChange))
	}
	if st.DaysInTreatment > 0 {
		line("Dias em acompanhamento", fmt.Sprint(st.DaysInTreatment))
	}

	if r.Comments != "" {
		heading("Comentários")
		pdf.MultiCell(0, 6, tr(r.Comments), "", "L", false)
	}

	code := VerificationCode(r.Patient.ID, r.GeneratedAt)
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode verification qr: %w", err)
	}
	keepTogether(pdf, verificationBlockHeight)
	heading("Verificação")
	drawVerification(pdf, tr, png, code)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

const qrSize = 30

// verificationBlockHeight covers the section heading plus the QR image.
const verificationBlockHeight = 12 + qrSize

// keepTogether starts a new page when fewer than h millimetres remain above
// the bottom margin.
func keepTogether(pdf *fpdf.Fpdf, h float64) {
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+h > pageH-bottom {
		pdf.AddPage()
	}
}

// drawVerification places the QR image at the current position with the
// code printed beside it, and leaves the cursor below the image. It returns
// the image's top edge.
func drawVerification(pdf *fpdf.Fpdf, tr func(string) string, png []byte, code string) float64 {
	keepTogether(pdf, qrSize)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(png))
	left, _, _, _ := pdf.GetMargins()
	y := pdf.GetY()
	pdf.ImageOptions("verification-qr", left, y, qrSize, qrSize, false, opts, 0, "")
	pdf.SetXY(left+qrSize+5, y+10)
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 5, tr("Código de verificação: "+code), "", "L", false)
	pdf.SetY(y + qrSize)
	return y
}

func formatPeriod(p Period) string {
	from, to := "...", "..."
	if p.StartDate != nil {
		from = p.StartDate.Format(dateLayout)
	}
	if p.EndDate != nil {
		to = p.EndDate.Format(dateLayout)
	}
	return from + " a " + to
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
