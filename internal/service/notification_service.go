package service

import (
	"fmt"
	"time"

	"github.com/go-gomail/gomail"
	"go.uber.org/zap"

	"github.com/medicareplus/portal/internal/config"
	"github.com/medicareplus/portal/internal/domain/appointment"
	"github.com/medicareplus/portal/internal/domain/schedule"
)

const notifyBufferSize = 1_000

type notification struct {
	kind    string
	to      string
	subject string
	html    string
}

// NotificationService delivers patient emails off the request path. With
// SMTP disabled it logs and drops, so booking never depends on a mail server.
type NotificationService struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	log    *zap.Logger
	queue  chan notification
	done   chan struct{}
}

func NewNotificationService(cfg config.SMTPConfig, log *zap.Logger) *NotificationService {
	svc := &NotificationService{
		cfg:   cfg,
		log:   log,
		queue: make(chan notification, notifyBufferSize),
		done:  make(chan struct{}),
	}
	if cfg.Enabled {
		svc.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	go svc.worker()
	return svc
}

// AppointmentBooked sends the confirmation mail the legacy portal sent on
// booking: video consults carry the join link, in-person asks the patient to
// arrive 15 minutes early.
func (s *NotificationService) AppointmentBooked(a *appointment.Appointment) {
	var details string
	if a.Modality == schedule.ModalityVideo {
		room := fmt.Sprintf("https://meet.medicareplus.example/%s", a.ID)
		details = fmt.Sprintf(`<p>This is a <strong>video consult</strong>. Join here at your appointment time: <a href="%s">%s</a></p>`, room, room)
	} else {
		details = `<p>Please arrive 15 minutes early and bring your ID and insurance card.</p>`
	}

	html := fmt.Sprintf(`<html><body>
<h2>MediCare Plus - Appointment Confirmed</h2>
<p>Hi %s,</p>
<p>Your appointment with <strong>Dr. %s</strong> is confirmed for <strong>%s</strong>.</p>
<p>Insurance: %s</p>
%s
<p>Regards,<br/>MediCare Plus</p>
</body></html>`, a.PatientName, a.Doctor, a.DisplaySlot(), a.InsuranceCarrier, details)

	s.enqueue(notification{
		kind:    "booking_confirmation",
		to:      a.Email,
		subject: "Your MediCare Plus appointment is confirmed",
		html:    html,
	})
}

func (s *NotificationService) AppointmentCancelled(a *appointment.Appointment) {
	html := fmt.Sprintf(`<html><body>
<h2>MediCare Plus - Appointment Cancelled</h2>
<p>Hi %s,</p>
<p>Your appointment with <strong>Dr. %s</strong> on <strong>%s</strong> has been cancelled. The slot has been released.</p>
<p>You can book a new appointment any time through the portal.</p>
<p>Regards,<br/>MediCare Plus</p>
</body></html>`, a.PatientName, a.Doctor, a.DisplaySlot())

	s.enqueue(notification{
		kind:    "cancellation_notice",
		to:      a.Email,
		subject: "Your MediCare Plus appointment was cancelled",
		html:    html,
	})
}

func (s *NotificationService) enqueue(n notification) {
	select {
	case s.queue <- n:
	default:
		s.log.Warn("notification buffer full, dropping email",
			zap.String("kind", n.kind),
			zap.String("to", n.to),
		)
	}
}

func (s *NotificationService) Shutdown() {
	close(s.queue)
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.log.Warn("notification service shutdown timed out; some emails may be lost")
	}
}

func (s *NotificationService) worker() {
	defer close(s.done)
	for n := range s.queue {
		if s.dialer == nil {
			s.log.Debug("smtp disabled, skipping email",
				zap.String("kind", n.kind),
				zap.String("to", n.to),
			)
			continue
		}

		msg := gomail.NewMessage()
		msg.SetHeader("From", s.cfg.From)
		msg.SetHeader("To", n.to)
		msg.SetHeader("Subject", n.subject)
		msg.SetBody("text/html", n.html)

		if err := s.dialer.DialAndSend(msg); err != nil {
			s.log.Error("failed to send email",
				zap.String("kind", n.kind),
				zap.String("to", n.to),
				zap.Error(err),
			)
			continue
		}
		s.log.Info("email sent", zap.String("kind", n.kind), zap.String("to", n.to))
	}
}
