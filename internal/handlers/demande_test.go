// internal/handlers/demande_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/footfed/licences-backend/internal/models"
	"github.com/footfed/licences-backend/internal/services"
	"github.com/footfed/licences-backend/internal/workflow"
)

type DemandeHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (suite *DemandeHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), db.AutoMigrate(
		&models.Club{},
		&models.User{},
		&models.Demande{},
		&models.DemandeAttachment{},
		&models.StatusAudit{},
	))
	suite.db = db

	handler := NewDemandeHandler(
		services.NewDemandeService(db),
		services.NewWorkflowService(db, nil),
		nil,
	)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uuid.NewString())
		c.Set("user_role", string(models.UserRoleAdmin))
		c.Next()
	})

	demandes := router.Group("/v1/demandes")
	{
		demandes.GET("/:id", handler.GetDemande)
		demandes.PUT("/:id/status", handler.ChangeStatus)
		demandes.PUT("/:id/validate", handler.ValidateDemande)
		demandes.PUT("/:id/reject", handler.RejectDemande)
		demandes.GET("/:id/transitions", handler.GetAvailableTransitions)
		demandes.GET("/:id/history", handler.GetStatusHistory)
	}
	suite.router = router
}

func (suite *DemandeHandlerTestSuite) seedDemande(statutCode int) *models.Demande {
	club := &models.Club{
		Code: "C" + uuid.NewString()[:8],
		Name: "AS Test",
	}
	require.NoError(suite.T(), suite.db.Create(club).Error)

	demande := &models.Demande{
		Numero:          "LIC-2025-" + uuid.NewString()[:6],
		PlayerFirstName: "Karim",
		PlayerLastName:  "Ben Salah",
		BirthDate:       time.Date(2001, 3, 14, 0, 0, 0, 0, time.UTC),
		ClubID:          club.ID,
		Season:          "2025-2026",
		Categorie:       models.CategorieSenior,
		Type:            models.DemandeTypeNouvelle,
		StatutCode:      statutCode,
	}
	require.NoError(suite.T(), suite.db.Create(demande).Error)

	return demande
}

func (suite *DemandeHandlerTestSuite) perform(method, path string, payload interface{}) *httptest.ResponseRecorder {
	body := bytes.NewBuffer(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(suite.T(), err)
		body = bytes.NewBuffer(data)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *DemandeHandlerTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *DemandeHandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	response := suite.decode(w)
	errObj, ok := response["error"].(map[string]interface{})
	require.True(suite.T(), ok, "response must carry an error object")
	return errObj["code"].(string)
}

func (suite *DemandeHandlerTestSuite) TestValidateSucceeds() {
	demande := suite.seedDemande(workflow.CodeInitial)

	w := suite.perform("PUT", "/v1/demandes/"+demande.ID.String()+"/validate",
		map[string]interface{}{"comment": "dossier complet"})

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response := suite.decode(w)
	assert.True(suite.T(), response["success"].(bool))

	var reloaded models.Demande
	require.NoError(suite.T(), suite.db.First(&reloaded, "id = ?", demande.ID).Error)
	assert.Equal(suite.T(), workflow.CodeValideeClub, reloaded.StatutCode)
}

func (suite *DemandeHandlerTestSuite) TestValidateUnknownDemandeReturns404() {
	w := suite.perform("PUT", "/v1/demandes/"+uuid.NewString()+"/validate", nil)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", suite.errorCode(w))
}

func (suite *DemandeHandlerTestSuite) TestChangeStatusUnknownCodeReturns400() {
	demande := suite.seedDemande(workflow.CodeInitial)

	w := suite.perform("PUT", "/v1/demandes/"+demande.ID.String()+"/status",
		map[string]interface{}{"target_status_code": 999})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "BAD_REQUEST", suite.errorCode(w))

	var reloaded models.Demande
	require.NoError(suite.T(), suite.db.First(&reloaded, "id = ?", demande.ID).Error)
	assert.Equal(suite.T(), workflow.CodeInitial, reloaded.StatutCode)
}

func (suite *DemandeHandlerTestSuite) TestRejectValidatedDemandeReturns422() {
	demande := suite.seedDemande(workflow.CodeValideeClub)

	w := suite.perform("PUT", "/v1/demandes/"+demande.ID.String()+"/reject",
		map[string]interface{}{"comment": "trop tard"})

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "ILLEGAL_TRANSITION", suite.errorCode(w))

	response := suite.decode(w)
	message := response["error"].(map[string]interface{})["message"].(string)
	assert.Contains(suite.T(), message, "EN_ATTENTE")

	var reloaded models.Demande
	require.NoError(suite.T(), suite.db.First(&reloaded, "id = ?", demande.ID).Error)
	assert.Equal(suite.T(), workflow.CodeValideeClub, reloaded.StatutCode)
}

func (suite *DemandeHandlerTestSuite) TestInvalidIDReturns400() {
	w := suite.perform("GET", "/v1/demandes/not-a-uuid", nil)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "BAD_REQUEST", suite.errorCode(w))
}

func (suite *DemandeHandlerTestSuite) TestTransitionsForUnknownDemandeReturns404() {
	w := suite.perform("GET", "/v1/demandes/"+uuid.NewString()+"/transitions", nil)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", suite.errorCode(w))
}

func TestDemandeHandlerSuite(t *testing.T) {
	suite.Run(t, new(DemandeHandlerTestSuite))
}
