package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/harentsoaR/clinic-api/internal/models"
)

// Notifier is told about booking lifecycle events. Implementations must not
// block the request.
type Notifier interface {
	AppointmentBooked(patient *models.User, apt *models.Appointment, slot *models.TimeSlot)
	AppointmentCancelled(patient *models.User, apt *models.Appointment, slot *models.TimeSlot)
}

type NotificationConfig struct {
	TextbeltKey string
	TextbeltURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// NotificationService sends SMS through Textbelt and e-mail over SMTP.
// Channels without configuration are skipped.
type NotificationService struct {
	log         zerolog.Logger
	httpClient  *http.Client
	textbeltKey string
	textbeltURL string
	mailer      mailDialer
	from        string
}

func NewNotificationService(cfg NotificationConfig, log zerolog.Logger) *NotificationService {
	s := &NotificationService{
		log:         log.With().Str("component", "notifications").Logger(),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		textbeltKey: cfg.TextbeltKey,
		textbeltURL: cfg.TextbeltURL,
		from:        cfg.SMTPFrom,
	}
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		s.mailer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

func (s *NotificationService) AppointmentBooked(patient *models.User, apt *models.Appointment, slot *models.TimeSlot) {
	body := fmt.Sprintf("Appointment confirmed for %s on %s from %s to %s.",
		patient.Name, slot.Date.Format("Jan 2, 2006"), slot.StartTime, slot.EndTime)
	go s.deliver(patient, "Appointment confirmed", body)
}

func (s *NotificationService) AppointmentCancelled(patient *models.User, apt *models.Appointment, slot *models.TimeSlot) {
	body := fmt.Sprintf("Your appointment on %s at %s has been cancelled.",
		slot.Date.Format("Jan 2, 2006"), slot.StartTime)
	go s.deliver(patient, "Appointment cancelled", body)
}

// deliver sends on every configured channel and logs the outcome.
func (s *NotificationService) deliver(patient *models.User, subject, body string) {
	sent := false
	if patient.Phone != "" && s.textbeltKey != "" {
		if err := s.sendSMS(patient.Phone, body); err != nil {
			s.log.Warn().Err(err).Str("phone", patient.Phone).Msg("SMS not sent")
		} else {
			sent = true
		}
	}
	if patient.Email != "" && s.mailer != nil {
		if err := s.sendEmail(patient.Email, subject, body); err != nil {
			s.log.Warn().Err(err).Str("email", patient.Email).Msg("e-mail not sent")
		} else {
			sent = true
		}
	}
	if !sent {
		s.log.Debug().Str("userId", patient.ID.Hex()).Str("subject", subject).Msg("no notification channel delivered")
	}
}

func (s *NotificationService) sendSMS(phone, message string) error {
	postBody, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.textbeltKey,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.textbeltURL, bytes.NewReader(postBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt: %s", result.Error)
	}
	return nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.mailer.DialAndSend(m)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) AppointmentBooked(*models.User, *models.Appointment, *models.TimeSlot) {}
func (NopNotifier) AppointmentCancelled(*models.User, *models.Appointment, *models.TimeSlot) {}
