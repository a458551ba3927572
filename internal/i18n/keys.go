// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAccessDenied           = "auth.access_denied"

	// Demandes
	KeyDemandeCreated  = "demande.created"
	KeyDemandeUpdated  = "demande.updated"
	KeyDemandeDeleted  = "demande.deleted"
	KeyDemandeNotFound = "demande.not_found"

	// Workflow
	KeyWorkflowValidated         = "workflow.validated"
	KeyWorkflowRejected          = "workflow.rejected"
	KeyWorkflowPrinted           = "workflow.printed"
	KeyWorkflowStatusChanged     = "workflow.status_changed"
	KeyWorkflowIllegalTransition = "workflow.illegal_transition"
	KeyWorkflowUnknownStatus     = "workflow.unknown_status"
	KeyWorkflowCorruptStatus     = "workflow.corrupt_status"
	KeyWorkflowConflict          = "workflow.conflict"

	// Clubs
	KeyClubNotFound = "club.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileTooLarge      = "file.too_large"
)
