// internal/services/notification_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/workflow"
)

type fakeTransport struct {
	sent       []sentMessage
	err        error
	beforeSend func()
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

func (t *fakeTransport) Send(to, subject, body string) error {
	if t.beforeSend != nil {
		t.beforeSend()
	}
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func notificationHistory(t *testing.T, db *gorm.DB, demande *models.Demande) []models.NotificationHistory {
	t.Helper()
	var records []models.NotificationHistory
	require.NoError(t, db.Where("demande_id = ?", demande.ID).Order("created_at asc").Find(&records).Error)
	return records
}

func TestDispatchStatusChangeSuccess(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	service := NewNotificationService(db, testConfig(), transport, nil)
	demande := createTestDemande(t, db, workflow.CodeValideeClub)

	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "dossier complet")

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "player@test.tn", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].Subject, demande.Numero)
	assert.Contains(t, transport.sent[0].Body, "Karim Ben Salah")
	assert.Contains(t, transport.sent[0].Body, "dossier complet")

	records := notificationHistory(t, db, demande)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationStatusSuccess, records[0].Status)
	assert.Equal(t, models.NotificationKindValidated, records[0].Kind)
	assert.Equal(t, 0, records[0].RetryCount)
	assert.NotNil(t, records[0].SentAt)
	assert.Empty(t, records[0].ErrorMessage)
}

func TestDispatchStatusChangeRecordsPendingBeforeSend(t *testing.T) {
	db := setupTestDB(t)
	demande := createTestDemande(t, db, workflow.CodeValideeClub)

	transport := &fakeTransport{}
	transport.beforeSend = func() {
		records := notificationHistory(t, db, demande)
		require.Len(t, records, 1)
		assert.Equal(t, models.NotificationStatusPending, records[0].Status)
		assert.Nil(t, records[0].SentAt)
	}
	service := NewNotificationService(db, testConfig(), transport, nil)

	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "")

	records := notificationHistory(t, db, demande)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationStatusSuccess, records[0].Status)
}

func TestDispatchStatusChangeTransportFailure(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{err: errors.New("connection refused")}
	service := NewNotificationService(db, testConfig(), transport, nil)
	demande := createTestDemande(t, db, workflow.CodeRejetee)

	service.DispatchStatusChange(demande, workflow.StatusEnAttente, workflow.StatusRejetee, "certificat manquant")

	records := notificationHistory(t, db, demande)
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationStatusFailed, records[0].Status)
	assert.Equal(t, models.NotificationKindRejected, records[0].Kind)
	assert.Equal(t, 1, records[0].RetryCount)
	assert.Contains(t, records[0].ErrorMessage, "connection refused")
	assert.Nil(t, records[0].SentAt)
}

func TestDispatchStatusChangeRetryCountAccumulates(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{err: errors.New("timeout")}
	service := NewNotificationService(db, testConfig(), transport, nil)
	demande := createTestDemande(t, db, workflow.CodeImprimee)

	service.DispatchStatusChange(demande, workflow.StatusValideeClub, workflow.StatusImprimee, "")
	service.DispatchStatusChange(demande, workflow.StatusValideeClub, workflow.StatusImprimee, "")

	records := notificationHistory(t, db, demande)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].RetryCount)
	assert.Equal(t, 2, records[1].RetryCount)
}

func TestDispatchStatusChangeDisabledIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	cfg := testConfig()
	cfg.Email.Enabled = false
	service := NewNotificationService(db, cfg, transport, nil)
	demande := createTestDemande(t, db, workflow.CodeValideeClub)

	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "")

	assert.Empty(t, transport.sent)
	assert.Empty(t, notificationHistory(t, db, demande))
}

func TestDispatchStatusChangeNoRecipientSkipsSilently(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	service := NewNotificationService(db, testConfig(), transport, nil)

	demande := createTestDemande(t, db, workflow.CodeValideeClub)
	demande.ContactEmail = ""
	demande.Club = models.Club{}

	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "")

	assert.Empty(t, transport.sent)
	assert.Empty(t, notificationHistory(t, db, demande))
}

func TestDispatchStatusChangeFallsBackToClubContact(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	service := NewNotificationService(db, testConfig(), transport, nil)

	demande := createTestDemande(t, db, workflow.CodeValideeClub)
	demande.ContactEmail = ""
	require.NoError(t, db.Preload("Club").First(demande, "id = ?", demande.ID).Error)
	demande.ContactEmail = ""

	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "")

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "club@test.tn", transport.sent[0].To)
}

func TestDispatchStatusChangeSurvivesHistoryStoreFailure(t *testing.T) {
	db := setupTestDB(t)
	transport := &fakeTransport{}
	service := NewNotificationService(db, testConfig(), transport, nil)
	demande := createTestDemande(t, db, workflow.CodeValideeClub)

	require.NoError(t, db.Migrator().DropTable(&models.NotificationHistory{}))

	// Counting and recording both fail; the message must still go out and
	// nothing may panic.
	service.DispatchStatusChange(demande, workflow.StatusInitial, workflow.StatusValideeClub, "")

	require.Len(t, transport.sent, 1)
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, models.NotificationKindValidated, KindForStatus(workflow.StatusValideeClub))
	assert.Equal(t, models.NotificationKindRejected, KindForStatus(workflow.StatusRejetee))
	assert.Equal(t, models.NotificationKindPrinted, KindForStatus(workflow.StatusImprimee))
	assert.Equal(t, models.NotificationKindStatusChange, KindForStatus(workflow.StatusEnAttente))
	assert.Equal(t, models.NotificationKindStatusChange, KindForStatus(workflow.StatusInitial))
}

func TestChangeStatusOutcomeUnaffectedByTransportFailure(t *testing.T) {
	db := setupTestDB(t)
	notifService := NewNotificationService(db, testConfig(), &fakeTransport{err: errors.New("smtp down")}, nil)
	service := NewWorkflowService(db, notifService)
	demande := createTestDemande(t, db, workflow.CodeInitial)

	updated, err := service.Validate(demande.ID, uuid.New(), "ok")
	require.NoError(t, err)
	assert.Equal(t, workflow.CodeValideeClub, updated.StatutCode)
}
