package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template data is rendered with html/template so client-supplied names and
// notes are escaped before they reach an inbox.

type InquiryReceivedData struct {
	Name        string
	ServiceType string
}

type QuoteSentData struct {
	ClientName  string
	QuoteNumber int64
	Total       string
}

type QuoteDecidedData struct {
	ClientName  string
	QuoteNumber int64
	Accepted    bool
}

type AppointmentData struct {
	ClientName     string
	TechnicianName string
	Date           string
	Time           string
}

type RescheduleData struct {
	ClientName    string
	RescheduleURL string
	ExpiresAt     string
}

var (
	inquiryReceivedTmpl = template.Must(template.New("inquiry_received").Parse(`
<p>Hola {{.Name}},</p>
<p>Hemos recibido su consulta sobre <strong>{{.ServiceType}}</strong>. Nuestro equipo la revisará y le responderá dentro de un día hábil.</p>
<p>Istmo Energía</p>`))

	quoteSentTmpl = template.Must(template.New("quote_sent").Parse(`
<p>Hola {{.ClientName}},</p>
<p>Su cotización <strong>#{{.QuoteNumber}}</strong> está lista. Total: <strong>{{.Total}}</strong> (ITBMS incluido).</p>
<p>Responda a este correo para aceptar o rechazar la cotización.</p>
<p>Istmo Energía</p>`))

	quoteDecidedTmpl = template.Must(template.New("quote_decided").Parse(`
<p>Hola {{.ClientName}},</p>
{{if .Accepted}}<p>Gracias por aceptar la cotización <strong>#{{.QuoteNumber}}</strong>. Coordinaremos la instalación en breve.</p>{{else}}<p>Hemos registrado su decisión sobre la cotización <strong>#{{.QuoteNumber}}</strong>. Quedamos a su disposición.</p>{{end}}
<p>Istmo Energía</p>`))

	appointmentScheduledTmpl = template.Must(template.New("appointment_scheduled").Parse(`
<p>Hola {{.ClientName}},</p>
<p>Su visita técnica fue agendada para el <strong>{{.Date}}</strong> a las <strong>{{.Time}}</strong>.</p>
{{if .TechnicianName}}<p>Técnico asignado: {{.TechnicianName}}.</p>{{end}}
<p>Istmo Energía</p>`))

	appointmentReminderTmpl = template.Must(template.New("appointment_reminder").Parse(`
<p>Hola {{.ClientName}},</p>
<p>Le recordamos su visita técnica de mañana, <strong>{{.Date}}</strong> a las <strong>{{.Time}}</strong>.</p>
{{if .TechnicianName}}<p>Técnico asignado: {{.TechnicianName}}.</p>{{end}}
<p>Istmo Energía</p>`))

	appointmentRebookedTmpl = template.Must(template.New("appointment_rebooked").Parse(`
<p>Hola {{.ClientName}},</p>
<p>Su visita técnica fue reprogramada para el <strong>{{.Date}}</strong> a las <strong>{{.Time}}</strong>.</p>
{{if .TechnicianName}}<p>Técnico asignado: {{.TechnicianName}}.</p>{{end}}
<p>Istmo Energía</p>`))

	rescheduleRequestedTmpl = template.Must(template.New("reschedule_requested").Parse(`
<p>Hola {{.ClientName}},</p>
<p>Necesitamos reprogramar su visita técnica. Elija un nuevo horario en el siguiente enlace:</p>
<p><a href="{{.RescheduleURL}}">Reprogramar visita</a></p>
<p>El enlace vence el {{.ExpiresAt}}.</p>
<p>Istmo Energía</p>`))
)

func renderInquiryReceived(data InquiryReceivedData) (string, string, error) {
	html, err := render(inquiryReceivedTmpl, data)
	return "Hemos recibido su consulta", html, err
}

func renderQuoteSent(data QuoteSentData) (string, string, error) {
	html, err := render(quoteSentTmpl, data)
	return fmt.Sprintf("Su cotización #%d de Istmo Energía", data.QuoteNumber), html, err
}

func renderQuoteDecided(data QuoteDecidedData) (string, string, error) {
	html, err := render(quoteDecidedTmpl, data)
	return fmt.Sprintf("Cotización #%d actualizada", data.QuoteNumber), html, err
}

func renderAppointmentScheduled(data AppointmentData) (string, string, error) {
	html, err := render(appointmentScheduledTmpl, data)
	return "Visita técnica agendada", html, err
}

func renderAppointmentReminder(data AppointmentData) (string, string, error) {
	html, err := render(appointmentReminderTmpl, data)
	return "Recordatorio de visita técnica", html, err
}

func renderAppointmentRebooked(data AppointmentData) (string, string, error) {
	html, err := render(appointmentRebookedTmpl, data)
	return "Visita técnica reprogramada", html, err
}

func renderRescheduleRequested(data RescheduleData) (string, string, error) {
	html, err := render(rescheduleRequestedTmpl, data)
	return "Reprogramación de su visita técnica", html, err
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
