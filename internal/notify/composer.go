package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"
)

const dateLayout = "Monday, January 2, 2006"

type recipient int

const (
	toPatient recipient = iota
	toDoctor
)

type copyText struct {
	Subject string
	Heading string
	Intro   string
	Closing string
}

// copies holds the wording for each kind and recipient. %s in Subject is
// the clinic name.
var copies = map[Kind]map[recipient]copyText{
	KindConfirmation: {
		toPatient: {
			Subject: "Appointment Confirmation - %s",
			Heading: "Appointment Confirmation",
			Intro:   "Your appointment has been successfully booked:",
			Closing: "If you need to reschedule or cancel, please contact us at least 24 hours in advance.",
		},
		toDoctor: {
			Subject: "New Appointment Scheduled - %s",
			Heading: "New Appointment",
			Intro:   "A new appointment has been scheduled:",
			Closing: "Please review the appointment details in your dashboard.",
		},
	},
	KindReminder: {
		toPatient: {
			Subject: "Appointment Reminder - %s",
			Heading: "Appointment Reminder",
			Intro:   "This is a reminder of your upcoming appointment:",
			Closing: "Please arrive 10 minutes early for in-person appointments.",
		},
		toDoctor: {
			Subject: "Upcoming Appointment - %s",
			Heading: "Upcoming Appointment",
			Intro:   "You have an upcoming appointment:",
			Closing: "Please review the patient's details in your dashboard.",
		},
	},
	KindCancellation: {
		toPatient: {
			Subject: "Appointment Cancellation - %s",
			Heading: "Appointment Cancelled",
			Intro:   "Your appointment has been cancelled:",
			Closing: "If you'd like to reschedule, please contact us or book online.",
		},
		toDoctor: {
			Subject: "Appointment Cancelled - %s",
			Heading: "Appointment Cancelled",
			Intro:   "The following appointment has been cancelled:",
			Closing: "The time slot is open again in your schedule.",
		},
	},
}

type row struct {
	Label string
	Value string
	Link  bool
}

type view struct {
	Clinic   string
	Heading  string
	Greeting string
	Intro    string
	Rows     []row
	Closing  string
}

var htmlTmpl = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #dc2626;">{{.Heading}}</h2>
  <p>{{.Greeting}}</p>
  <p>{{.Intro}}</p>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
{{- range .Rows}}
    <p><strong>{{.Label}}:</strong> {{if .Link}}<a href="{{.Value}}">{{.Value}}</a>{{else}}{{.Value}}{{end}}</p>
{{- end}}
  </div>
  <p>{{.Closing}}</p>
  <p>Best regards,<br/>{{.Clinic}}</p>
</div>
`))

var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 2048))
	},
}

// Composer renders the per-party emails for a notice.
type Composer struct {
	clinic string
}

func NewComposer(clinicName string) *Composer {
	return &Composer{clinic: clinicName}
}

// Compose returns the patient message first, then the doctor message. A
// party without an email address gets no message.
func (c *Composer) Compose(n Notice) ([]Message, error) {
	byRecipient, ok := copies[n.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown notice kind %q", n.Kind)
	}

	var out []Message
	for _, r := range []recipient{toPatient, toDoctor} {
		to := n.Patient.Email
		if r == toDoctor {
			to = n.Doctor.Email
		}
		if to == "" {
			continue
		}
		msg, err := c.render(n, r, byRecipient[r])
		if err != nil {
			return nil, err
		}
		msg.To = to
		out = append(out, msg)
	}
	return out, nil
}

func (c *Composer) render(n Notice, r recipient, text copyText) (Message, error) {
	v := view{
		Clinic:  c.clinic,
		Heading: text.Heading,
		Intro:   text.Intro,
		Closing: text.Closing,
		Rows:    c.rows(n, r),
	}
	if r == toPatient {
		v.Greeting = fmt.Sprintf("Dear %s,", n.Patient.Name)
	} else {
		v.Greeting = fmt.Sprintf("Dear Dr. %s,", n.Doctor.Name)
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	if err := htmlTmpl.Execute(buf, v); err != nil {
		return Message{}, fmt.Errorf("rendering %s email: %w", n.Kind, err)
	}

	return Message{
		Subject: fmt.Sprintf(text.Subject, c.clinic),
		HTML:    buf.String(),
		Text:    plainText(v),
	}, nil
}

func (c *Composer) rows(n Notice, r recipient) []row {
	var rows []row
	if r == toPatient {
		rows = append(rows, row{Label: "Doctor", Value: "Dr. " + n.Doctor.Name})
	} else {
		rows = append(rows, row{Label: "Patient", Value: n.Patient.Name})
	}

	when := n.StartTime
	if n.EndTime != "" {
		when += " - " + n.EndTime
	}
	rows = append(rows,
		row{Label: "Date", Value: n.Date.UTC().Format(dateLayout)},
		row{Label: "Time", Value: when},
		row{Label: "Type", Value: n.Type.Label()},
	)

	if n.Kind == KindCancellation {
		if n.CancellationReason != "" {
			rows = append(rows, row{Label: "Reason", Value: n.CancellationReason})
		}
		return rows
	}
	if n.MeetingLink != "" {
		rows = append(rows, row{Label: "Meeting Link", Value: n.MeetingLink, Link: true})
	}
	if r == toDoctor && n.Reason != "" {
		rows = append(rows, row{Label: "Reason", Value: n.Reason})
	}
	return rows
}

func plainText(v view) string {
	var b strings.Builder
	b.WriteString(v.Greeting + "\n\n" + v.Intro + "\n\n")
	for _, r := range v.Rows {
		fmt.Fprintf(&b, "%s: %s\n", r.Label, r.Value)
	}
	b.WriteString("\n" + v.Closing + "\n\nBest regards,\n" + v.Clinic + "\n")
	return b.String()
}
