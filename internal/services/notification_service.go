// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/config"
	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/workflow"
)

// Transport delivers a rendered message to a recipient address.
type Transport interface {
	Send(to, subject, body string) error
}

// RecipientResolver finds the address to notify for a demande. The second
// return value is false when no address can be resolved; dispatch is then
// skipped silently.
type RecipientResolver interface {
	ResolveEmail(demande *models.Demande) (string, bool)
}

// NotificationService renders and sends status-change messages and records
// every attempt in NotificationHistory. It never lets an error escape its
// boundary: the workflow outcome must not depend on notification delivery.
type NotificationService struct {
	db        *gorm.DB
	config    *config.Config
	transport Transport
	resolver  RecipientResolver
}

type EmailTemplate struct {
	Subject string
	Body    string
}

// StatusChangeNotification describes one message to send.
type StatusChangeNotification struct {
	DemandeID uuid.UUID               `json:"demande_id"`
	Recipient string                  `json:"recipient"`
	Kind      models.NotificationKind `json:"kind"`
	OldStatus string                  `json:"old_status"`
	NewStatus string                  `json:"new_status"`
	Comment   string                  `json:"comment,omitempty"`
	Data      map[string]interface{}  `json:"data,omitempty"`
}

func NewNotificationService(db *gorm.DB, cfg *config.Config, transport Transport, resolver RecipientResolver) *NotificationService {
	if transport == nil {
		transport = &SMTPTransport{config: cfg.Email}
	}
	if resolver == nil {
		resolver = &contactEmailResolver{}
	}
	return &NotificationService{
		db:        db,
		config:    cfg,
		transport: transport,
		resolver:  resolver,
	}
}

// KindForStatus derives the notification kind from the target status.
func KindForStatus(target workflow.Status) models.NotificationKind {
	switch target.Code {
	case workflow.CodeValideeClub:
		return models.NotificationKindValidated
	case workflow.CodeRejetee:
		return models.NotificationKindRejected
	case workflow.CodeImprimee:
		return models.NotificationKindPrinted
	default:
		return models.NotificationKindStatusChange
	}
}

// DispatchStatusChange renders and sends the message describing a committed
// transition, then records the outcome. Disabled notifications are a no-op
// with no record; an unresolvable recipient skips dispatch silently. Once a
// recipient is resolved a PENDING row is written, then settled to SUCCESS or
// FAILED; failures never escape this boundary.
func (s *NotificationService) DispatchStatusChange(demande *models.Demande, from, to workflow.Status, comment string) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("demande_id", demande.ID).Errorf("Notification dispatch panicked: %v", r)
		}
	}()

	if !s.config.Email.Enabled {
		return
	}

	recipient, ok := s.resolver.ResolveEmail(demande)
	if !ok {
		logrus.WithField("demande_id", demande.ID).Debug("No recipient address resolved, notification skipped")
		return
	}

	kind := KindForStatus(to)
	notification := &StatusChangeNotification{
		DemandeID: demande.ID,
		Recipient: recipient,
		Kind:      kind,
		OldStatus: from.Label,
		NewStatus: to.Label,
		Comment:   comment,
		Data: map[string]interface{}{
			"PlayerName": demande.PlayerFirstName + " " + demande.PlayerLastName,
			"Numero":     demande.Numero,
			"Season":     demande.Season,
			"DemandeURL": fmt.Sprintf("%s/demandes/%s", s.config.Frontend.BaseURL, demande.ID),
		},
	}

	attempt := s.beginAttempt(notification)

	subject, body, err := s.render(notification)
	if err != nil {
		s.markFailed(attempt, "", fmt.Errorf("failed to render notification template: %w", err))
		return
	}

	if err := s.transport.Send(recipient, subject, body); err != nil {
		s.markFailed(attempt, subject, err)
		return
	}

	s.markSuccess(attempt, subject)
}

func (s *NotificationService) render(n *StatusChangeNotification) (string, string, error) {
	tpl := s.getEmailTemplate(n.Kind)

	data := map[string]interface{}{
		"Recipient": n.Recipient,
		"OldStatus": n.OldStatus,
		"NewStatus": n.NewStatus,
		"Comment":   n.Comment,
	}
	for k, v := range n.Data {
		data[k] = v
	}

	subjectTmpl, err := template.New("subject").Parse(tpl.Subject)
	if err != nil {
		return "", "", err
	}
	var subjectBuf bytes.Buffer
	if err := subjectTmpl.Execute(&subjectBuf, data); err != nil {
		return "", "", err
	}

	bodyTmpl, err := template.New("body").Parse(tpl.Body)
	if err != nil {
		return "", "", err
	}
	var bodyBuf bytes.Buffer
	if err := bodyTmpl.Execute(&bodyBuf, data); err != nil {
		return "", "", err
	}

	return subjectBuf.String(), bodyBuf.String(), nil
}

// beginAttempt appends a PENDING history row before the send is tried, so an
// attempt that dies mid-flight still leaves a trace. The row is updated in
// place once the outcome is known.
func (s *NotificationService) beginAttempt(n *StatusChangeNotification) *models.NotificationHistory {
	record := &models.NotificationHistory{
		DemandeID:  n.DemandeID,
		Recipient:  n.Recipient,
		Kind:       n.Kind,
		Status:     models.NotificationStatusPending,
		RetryCount: s.previousAttempts(n),
	}
	if err := s.db.Create(record).Error; err != nil {
		logrus.WithError(err).WithField("demande_id", record.DemandeID).Error("Failed to append notification history")
	}
	return record
}

func (s *NotificationService) markSuccess(record *models.NotificationHistory, subject string) {
	now := time.Now()
	record.Subject = subject
	record.Status = models.NotificationStatusSuccess
	record.SentAt = &now
	s.saveHistory(record)
}

func (s *NotificationService) markFailed(record *models.NotificationHistory, subject string, cause error) {
	logrus.WithError(cause).WithFields(logrus.Fields{
		"demande_id": record.DemandeID,
		"kind":       record.Kind,
	}).Error("Notification dispatch failed")

	record.Subject = subject
	record.Status = models.NotificationStatusFailed
	record.RetryCount++
	record.ErrorMessage = cause.Error()
	s.saveHistory(record)
}

func (s *NotificationService) previousAttempts(n *StatusChangeNotification) int {
	var count int64
	if err := s.db.Model(&models.NotificationHistory{}).
		Where("demande_id = ? AND kind = ?", n.DemandeID, n.Kind).
		Count(&count).Error; err != nil {
		logrus.WithError(err).WithField("demande_id", n.DemandeID).Warn("Failed to count previous notification attempts")
	}
	return int(count)
}

func (s *NotificationService) saveHistory(record *models.NotificationHistory) {
	if err := s.db.Save(record).Error; err != nil {
		logrus.WithError(err).WithField("demande_id", record.DemandeID).Error("Failed to update notification history")
	}
}

func (s *NotificationService) getEmailTemplate(kind models.NotificationKind) EmailTemplate {
	templates := map[models.NotificationKind]EmailTemplate{
		models.NotificationKindValidated: {
			Subject: "Demande de licence validée - {{.Numero}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Demande validée</h2>
	<p>La demande de licence {{.Numero}} pour {{.PlayerName}} (saison {{.Season}}) a été validée.</p>
	{{if .Comment}}<p>Commentaire : {{.Comment}}</p>{{end}}
	<a href="{{.DemandeURL}}">Consulter la demande</a>
	<p>Service Licences</p>
</body>
</html>`,
		},
		models.NotificationKindRejected: {
			Subject: "Demande de licence rejetée - {{.Numero}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Demande rejetée</h2>
	<p>La demande de licence {{.Numero}} pour {{.PlayerName}} a été rejetée.</p>
	{{if .Comment}}<p>Motif : {{.Comment}}</p>{{end}}
	<p>Vous pouvez corriger le dossier et soumettre la demande à nouveau.</p>
	<a href="{{.DemandeURL}}">Consulter la demande</a>
	<p>Service Licences</p>
</body>
</html>`,
		},
		models.NotificationKindPrinted: {
			Subject: "Licence imprimée - {{.Numero}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Licence imprimée</h2>
	<p>La licence {{.Numero}} de {{.PlayerName}} a été imprimée et peut être retirée.</p>
	<p>Service Licences</p>
</body>
</html>`,
		},
	}

	if tpl, exists := templates[kind]; exists {
		return tpl
	}

	return EmailTemplate{
		Subject: "Changement de statut - {{.Numero}}",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<p>La demande {{.Numero}} est passée de "{{.OldStatus}}" à "{{.NewStatus}}".</p>
	{{if .Comment}}<p>Commentaire : {{.Comment}}</p>{{end}}
	<p>Service Licences</p>
</body>
</html>`,
	}
}

// SMTPTransport sends mail through the configured SMTP relay.
type SMTPTransport struct {
	config config.EmailConfig
}

func (t *SMTPTransport) Send(to, subject, body string) error {
	if t.config.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	auth := smtp.PlainAuth("", t.config.SMTPUsername, t.config.SMTPPassword, t.config.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s <%s>\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		to, t.config.FromName, t.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%s", t.config.SMTPHost, t.config.SMTPPort)
	return smtp.SendMail(addr, auth, t.config.FromEmail, []string{to}, msg)
}

// contactEmailResolver reads the address declared on the demande, falling back
// to the club contact. Wiring to the federation's member directory is a
// collaborator concern; absence skips dispatch.
type contactEmailResolver struct{}

func (r *contactEmailResolver) ResolveEmail(demande *models.Demande) (string, bool) {
	if demande.ContactEmail != "" {
		return demande.ContactEmail, true
	}
	if demande.Club.ContactEmail != "" {
		return demande.Club.ContactEmail, true
	}
	return "", false
}
