// internal/services/workflow_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/footfed/licences-backend/internal/database"
	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/workflow"
)

// WorkflowService drives the status lifecycle of licence requests. It is the
// only writer of Demande.StatutCode: the status write and the audit row go
// through one transaction, notifications are dispatched after commit and never
// influence the outcome.
type WorkflowService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type AvailableTransitions struct {
	Current workflow.Status   `json:"current"`
	Next    []workflow.Status `json:"next"`
}

type StatusHistoryEntry struct {
	AuditID        uuid.UUID  `json:"audit_id"`
	PreviousCode   int        `json:"previous_code"`
	PreviousLabel  string     `json:"previous_label"`
	NewCode        int        `json:"new_code"`
	NewLabel       string     `json:"new_label"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	Comment        string     `json:"comment,omitempty"`
	TransitionedAt string     `json:"transitioned_at"`
}

func NewWorkflowService(db *gorm.DB, notificationService *NotificationService) *WorkflowService {
	return &WorkflowService{
		db:                  db,
		notificationService: notificationService,
	}
}

// ChangeStatus moves a demande to the target status. Steps: load, resolve the
// stored and target codes, check the transition table, then atomically update
// the status and append the audit row. The updated demande is returned.
//
// Error taxonomy: workflow.ErrDemandeNotFound (unknown demande),
// workflow.ErrUnknownStatus (bad target code), workflow.ErrCorruptStatus
// (stored code not in the registry), *workflow.IllegalTransitionError
// (forbidden move). None of them leave any side effect behind.
func (s *WorkflowService) ChangeStatus(demandeID uuid.UUID, targetCode int, actorID uuid.UUID, comment string) (*models.Demande, error) {
	var demande models.Demande
	if err := s.db.First(&demande, "id = ?", demandeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDemandeNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	current, ok := workflow.StatusByCode(demande.StatutCode)
	if !ok {
		return nil, fmt.Errorf("%w: code %d on demande %s", workflow.ErrCorruptStatus, demande.StatutCode, demande.Numero)
	}

	target, ok := workflow.StatusByCode(targetCode)
	if !ok {
		return nil, fmt.Errorf("%w: %d", workflow.ErrUnknownStatus, targetCode)
	}

	if err := workflow.ValidateTransition(current, target); err != nil {
		return nil, err
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Guarded write: the row must still carry the status we validated
		// against, so a concurrent transition loses cleanly instead of being
		// overwritten.
		res := tx.Model(&models.Demande{}).
			Where("id = ? AND statut_code = ?", demande.ID, current.Code).
			Update("statut_code", target.Code)
		if res.Error != nil {
			return fmt.Errorf("failed to update demande status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return workflow.ErrConcurrentUpdate
		}

		audit := &models.StatusAudit{
			DemandeID:          demande.ID,
			PreviousStatusCode: current.Code,
			NewStatusCode:      target.Code,
			ActorID:            &actorID,
			Comment:            comment,
		}
		if err := tx.Create(audit).Error; err != nil {
			return fmt.Errorf("failed to append status audit: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// The transaction is committed: from here on the transition happened and
	// must be reported as such even if the reload fails.
	if err := s.db.Preload("Club").First(&demande, "id = ?", demande.ID).Error; err != nil {
		logrus.WithError(err).WithField("demande_id", demande.ID).Warn("Failed to reload demande after status change")
		demande.StatutCode = target.Code
	}

	// Fire-and-forget: dispatch failures are recorded by the notification
	// service, never surfaced here.
	if s.notificationService != nil {
		go s.notificationService.DispatchStatusChange(&demande, current, target, comment)
	}

	return &demande, nil
}

// Validate marks the demande validated by the club.
func (s *WorkflowService) Validate(demandeID, actorID uuid.UUID, comment string) (*models.Demande, error) {
	return s.ChangeStatus(demandeID, workflow.CodeValideeClub, actorID, comment)
}

// Reject sends the demande back with a rejection.
func (s *WorkflowService) Reject(demandeID, actorID uuid.UUID, comment string) (*models.Demande, error) {
	return s.ChangeStatus(demandeID, workflow.CodeRejetee, actorID, comment)
}

// MarkPrinted records that the physical licence was printed. IMPRIMEE is
// terminal: no further transition succeeds afterwards.
func (s *WorkflowService) MarkPrinted(demandeID, actorID uuid.UUID, comment string) (*models.Demande, error) {
	return s.ChangeStatus(demandeID, workflow.CodeImprimee, actorID, comment)
}

// GetAvailableTransitions returns the current status of the demande together
// with the statuses legally reachable from it.
func (s *WorkflowService) GetAvailableTransitions(demandeID uuid.UUID) (*AvailableTransitions, error) {
	var demande models.Demande
	if err := s.db.First(&demande, "id = ?", demandeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrDemandeNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	current, ok := workflow.StatusByCode(demande.StatutCode)
	if !ok {
		return nil, fmt.Errorf("%w: code %d on demande %s", workflow.ErrCorruptStatus, demande.StatutCode, demande.Numero)
	}

	return &AvailableTransitions{
		Current: current,
		Next:    workflow.AllowedNext(current),
	}, nil
}

// GetStatusHistory returns the audit trail of the demande, oldest first.
// Status codes that no longer resolve in the registry are rendered as "N/A".
func (s *WorkflowService) GetStatusHistory(demandeID uuid.UUID) ([]StatusHistoryEntry, error) {
	var count int64
	if err := s.db.Model(&models.Demande{}).Where("id = ?", demandeID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, workflow.ErrDemandeNotFound
	}

	var audits []models.StatusAudit
	if err := s.db.Where("demande_id = ?", demandeID).
		Order("created_at asc").
		Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch status history: %w", err)
	}

	entries := make([]StatusHistoryEntry, 0, len(audits))
	for _, audit := range audits {
		entries = append(entries, StatusHistoryEntry{
			AuditID:        audit.ID,
			PreviousCode:   audit.PreviousStatusCode,
			PreviousLabel:  workflow.LabelForCode(audit.PreviousStatusCode),
			NewCode:        audit.NewStatusCode,
			NewLabel:       workflow.LabelForCode(audit.NewStatusCode),
			ActorID:        audit.ActorID,
			Comment:        audit.Comment,
			TransitionedAt: audit.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return entries, nil
}
