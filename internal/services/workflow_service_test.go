// internal/services/workflow_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/footfed/licences-backend/internal/config"
	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/workflow"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Club{},
		&models.User{},
		&models.Demande{},
		&models.DemandeAttachment{},
		&models.StatusAudit{},
		&models.NotificationHistory{},
	))

	return db
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "licences@federation.test"
	cfg.Email.FromName = "Service Licences"
	cfg.Frontend.BaseURL = "http://localhost:3000"
	return cfg
}

func createTestDemande(t *testing.T, db *gorm.DB, statutCode int) *models.Demande {
	t.Helper()

	club := &models.Club{
		Code:         "C" + uuid.NewString()[:8],
		Name:         "AS Test",
		City:         "Tunis",
		ContactEmail: "club@test.tn",
	}
	require.NoError(t, db.Create(club).Error)

	demande := &models.Demande{
		Numero:          "LIC-2025-" + uuid.NewString()[:6],
		PlayerFirstName: "Karim",
		PlayerLastName:  "Ben Salah",
		BirthDate:       time.Date(2001, 3, 14, 0, 0, 0, 0, time.UTC),
		Nationality:     "TN",
		ClubID:          club.ID,
		Season:          "2025-2026",
		Categorie:       models.CategorieSenior,
		Type:            models.DemandeTypeNouvelle,
		ContactEmail:    "player@test.tn",
		StatutCode:      statutCode,
	}
	require.NoError(t, db.Create(demande).Error)

	return demande
}

func TestChangeStatusInitialToValideeClub(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)
	actorID := uuid.New()

	updated, err := service.Validate(demande.ID, actorID, "dossier complet")
	require.NoError(t, err)
	assert.Equal(t, workflow.CodeValideeClub, updated.StatutCode)

	var audits []models.StatusAudit
	require.NoError(t, db.Where("demande_id = ?", demande.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, workflow.CodeInitial, audits[0].PreviousStatusCode)
	assert.Equal(t, workflow.CodeValideeClub, audits[0].NewStatusCode)
	require.NotNil(t, audits[0].ActorID)
	assert.Equal(t, actorID, *audits[0].ActorID)
	assert.Equal(t, "dossier complet", audits[0].Comment)
}

func TestChangeStatusIllegalTransitionLeavesNoTrace(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)
	actorID := uuid.New()

	_, err := service.Validate(demande.ID, actorID, "")
	require.NoError(t, err)

	// VALIDEE_CLUB -> REJETEE is not in the transition table
	_, err = service.Reject(demande.ID, actorID, "trop tard")
	require.Error(t, err)

	var illegal *workflow.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, workflow.CodeValideeClub, illegal.From.Code)
	assert.Equal(t, workflow.CodeRejetee, illegal.To.Code)
	assert.Contains(t, err.Error(), "IMPRIMEE")
	assert.Contains(t, err.Error(), "EN_ATTENTE")

	var reloaded models.Demande
	require.NoError(t, db.First(&reloaded, "id = ?", demande.ID).Error)
	assert.Equal(t, workflow.CodeValideeClub, reloaded.StatutCode)

	var count int64
	require.NoError(t, db.Model(&models.StatusAudit{}).Where("demande_id = ?", demande.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the failed attempt must not append an audit row")
}

func TestChangeStatusUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)

	_, err := service.ChangeStatus(demande.ID, 999, uuid.New(), "")
	require.ErrorIs(t, err, workflow.ErrUnknownStatus)

	var count int64
	require.NoError(t, db.Model(&models.StatusAudit{}).Where("demande_id = ?", demande.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestChangeStatusUnknownDemande(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)

	_, err := service.Validate(uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, workflow.ErrDemandeNotFound)
}

func TestChangeStatusCorruptStoredCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)

	require.NoError(t, db.Model(&models.Demande{}).
		Where("id = ?", demande.ID).
		Update("statut_code", 42).Error)

	_, err := service.Validate(demande.ID, uuid.New(), "")
	assert.ErrorIs(t, err, workflow.ErrCorruptStatus)
}

func TestChangeStatusReloadFailureStillReportsTransition(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)
	actorID := uuid.New()

	// Fail the second SELECT only: the load before validation succeeds, the
	// reload after the commit does not.
	queries := 0
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("lose_reload", func(tx *gorm.DB) {
		queries++
		if queries == 2 {
			tx.AddError(errors.New("connection lost"))
		}
	}))

	updated, err := service.Validate(demande.ID, actorID, "")
	require.NoError(t, err, "a committed transition must not surface as a failure")
	assert.Equal(t, workflow.CodeValideeClub, updated.StatutCode)

	var reloaded models.Demande
	require.NoError(t, db.First(&reloaded, "id = ?", demande.ID).Error)
	assert.Equal(t, workflow.CodeValideeClub, reloaded.StatutCode)

	var count int64
	require.NoError(t, db.Model(&models.StatusAudit{}).Where("demande_id = ?", demande.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestChangeStatusSelfTransition(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeEnAttente)

	updated, err := service.ChangeStatus(demande.ID, workflow.CodeEnAttente, uuid.New(), "relance")
	require.NoError(t, err)
	assert.Equal(t, workflow.CodeEnAttente, updated.StatutCode)

	var audits []models.StatusAudit
	require.NoError(t, db.Where("demande_id = ?", demande.ID).Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, audits[0].PreviousStatusCode, audits[0].NewStatusCode)
}

func TestChangeStatusImprimeeIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeImprimee)

	_, err := service.ChangeStatus(demande.ID, workflow.CodeInitial, uuid.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")

	// Self transition still succeeds on a terminal status
	updated, err := service.MarkPrinted(demande.ID, uuid.New(), "réimpression")
	require.NoError(t, err)
	assert.Equal(t, workflow.CodeImprimee, updated.StatutCode)
}

func TestGetAvailableTransitions(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)

	rejected := createTestDemande(t, db, workflow.CodeRejetee)
	transitions, err := service.GetAvailableTransitions(rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.CodeRejetee, transitions.Current.Code)
	require.Len(t, transitions.Next, 1)
	assert.Equal(t, workflow.CodeInitial, transitions.Next[0].Code)

	printed := createTestDemande(t, db, workflow.CodeImprimee)
	transitions, err = service.GetAvailableTransitions(printed.ID)
	require.NoError(t, err)
	assert.Empty(t, transitions.Next)

	_, err = service.GetAvailableTransitions(uuid.New())
	assert.ErrorIs(t, err, workflow.ErrDemandeNotFound)
}

func TestGetStatusHistoryOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)
	actorID := uuid.New()

	_, err := service.ChangeStatus(demande.ID, workflow.CodeEnAttente, actorID, "pièces manquantes")
	require.NoError(t, err)
	_, err = service.ChangeStatus(demande.ID, workflow.CodeValideeClub, actorID, "")
	require.NoError(t, err)

	history, err := service.GetStatusHistory(demande.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, workflow.CodeInitial, history[0].PreviousCode)
	assert.Equal(t, workflow.CodeEnAttente, history[0].NewCode)
	assert.Equal(t, "En attente", history[0].NewLabel)
	assert.Equal(t, "pièces manquantes", history[0].Comment)
	assert.Equal(t, workflow.CodeValideeClub, history[1].NewCode)
}

func TestGetStatusHistoryUnresolvableCode(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)
	demande := createTestDemande(t, db, workflow.CodeInitial)

	audit := &models.StatusAudit{
		DemandeID:          demande.ID,
		PreviousStatusCode: 42,
		NewStatusCode:      workflow.CodeInitial,
	}
	require.NoError(t, db.Create(audit).Error)

	history, err := service.GetStatusHistory(demande.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "N/A", history[0].PreviousLabel)
	assert.Equal(t, "Initiale", history[0].NewLabel)
}

func TestGetStatusHistoryUnknownDemande(t *testing.T) {
	db := setupTestDB(t)
	service := NewWorkflowService(db, nil)

	_, err := service.GetStatusHistory(uuid.New())
	assert.ErrorIs(t, err, workflow.ErrDemandeNotFound)
}
