package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	notificationRepo "github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/db/testdb"
	"github.com/MyelinBots/bloom-go/internal/healthcheck"
	"github.com/MyelinBots/bloom-go/internal/logger"
	interactionSvc "github.com/MyelinBots/bloom-go/internal/services/interaction"
	"github.com/MyelinBots/bloom-go/internal/services/ledger"
	"github.com/MyelinBots/bloom-go/internal/services/matching"
	"github.com/MyelinBots/bloom-go/internal/services/notification"
	"github.com/MyelinBots/bloom-go/internal/services/pairing"
	"github.com/MyelinBots/bloom-go/internal/services/recovery"
	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	users  user.UserRepository
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	d := testdb.New(t)
	log := logger.NewNop()

	users := user.NewUserRepository(d, log)
	couples := couple.NewCoupleRepository(d, log)
	notifications := notification.New(notificationRepo.NewNotificationRepository(d, log), log)
	ledgerSvc := ledger.New(couples, log)
	pairingSvc := pairing.New(d, users, couples, notifications, log)

	router := NewRouter(RouterConfig{
		AuthMiddleware:      NewAuthMiddleware(testSecret, log),
		Health:              healthcheck.Handler(d),
		CoupleHandler:       NewCoupleHandler(pairingSvc, log),
		LoveHandler:         NewLoveHandler(interactionSvc.New(d, users, couples, interaction.NewInteractionRepository(d, log), ledgerSvc, log), log),
		RecoveryHandler:     NewRecoveryHandler(recovery.New(d, users, couples, ledgerSvc, notifications, log), log),
		MatchHandler:        NewMatchHandler(matching.New(d, users, match_request.NewMatchRequestRepository(d, log), pairingSvc, notifications, log), log),
		NotificationHandler: NewNotificationHandler(notifications, log),
	})
	return &testAPI{t: t, router: router, users: users}
}

func token(t *testing.T, sub string, method gojwt.SigningMethod, secret string, exp time.Time) string {
	t.Helper()
	tok := gojwt.NewWithClaims(method, gojwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: gojwt.NewNumericDate(exp),
		IssuedAt:  gojwt.NewNumericDate(time.Now()),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (a *testAPI) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) as(id uuid.UUID) string {
	return token(a.t, id.String(), gojwt.SigningMethodHS256, testSecret, time.Now().Add(time.Hour))
}

func (a *testAPI) newUser(name string) uuid.UUID {
	u := &user.User{ID: uuid.New(), Name: name, Email: name + "-" + uuid.NewString()[:8] + "@example.com"}
	require.NoError(a.t, a.users.Create(context.Background(), nil, u))
	return u.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	a := newTestAPI(t)
	id := uuid.New()
	tests := []struct {
		name   string
		bearer string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", token(t, id.String(), gojwt.SigningMethodHS256, "other", time.Now().Add(time.Hour))},
		{"wrong algorithm", token(t, id.String(), gojwt.SigningMethodHS512, testSecret, time.Now().Add(time.Hour))},
		{"expired", token(t, id.String(), gojwt.SigningMethodHS256, testSecret, time.Now().Add(-time.Minute))},
		{"subject not a uuid", token(t, "42", gojwt.SigningMethodHS256, testSecret, time.Now().Add(time.Hour))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(http.MethodGet, "/api/v1/couple/status", tt.bearer, nil)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			require.Equal(t, apperrors.CodeUnauthorized, decodeError(t, w).Code)
		})
	}
}

func TestHealthz_NoAuth(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPairAndLogMood(t *testing.T) {
	a := newTestAPI(t)
	alice, bob := a.newUser("alice"), a.newUser("bob")

	w := a.do(http.MethodPost, "/api/v1/couple/code", a.as(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var code struct {
		LoveID string `json:"love_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &code))
	require.Len(t, code.LoveID, pairing.CodeLength)

	w = a.do(http.MethodPost, "/api/v1/couple/connect", a.as(bob), gin.H{"code": "ZZZZZZZZ"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "invalid pairing code", decodeError(t, w).Message)

	w = a.do(http.MethodPost, "/api/v1/couple/connect", a.as(bob), gin.H{"code": code.LoveID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodGet, "/api/v1/couple/status", a.as(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st pairing.RelationshipStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, bob, st.PartnerID)

	w = a.do(http.MethodPost, "/api/v1/love/mood", a.as(bob), gin.H{"mood": "Great"})
	require.Equal(t, http.StatusCreated, w.Code)
	var out interactionSvc.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, 52, out.Score)

	w = a.do(http.MethodPost, "/api/v1/love/mood", a.as(bob), gin.H{"mood": "Good"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, apperrors.CodeStateConflict, decodeError(t, w).Code)

	w = a.do(http.MethodPost, "/api/v1/love/mood", a.as(alice), gin.H{"mood": "Ecstatic"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/v1/recovery", a.as(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rs recovery.StatusView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rs))
	require.False(t, rs.RecoveryMode)
	require.Equal(t, 52, rs.Score)

	w = a.do(http.MethodPost, "/api/v1/recovery/action", a.as(alice), gin.H{"action": "Apology"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBodyAndPathValidation(t *testing.T) {
	a := newTestAPI(t)
	alice := a.newUser("alice")

	w := a.do(http.MethodPost, "/api/v1/couple/connect", a.as(alice), gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, apperrors.CodeValidation, decodeError(t, w).Code)

	w = a.do(http.MethodPatch, "/api/v1/notifications/not-a-uuid/read", a.as(alice), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/v1/match/requests/"+uuid.NewString()+"/respond", a.as(alice), gin.H{"response": "Maybe"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationsFeed(t *testing.T) {
	a := newTestAPI(t)
	alice, bob := a.newUser("alice"), a.newUser("bob")

	w := a.do(http.MethodPost, "/api/v1/couple/code", a.as(alice), nil)
	var code struct {
		LoveID string `json:"love_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &code))
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/couple/connect", a.as(bob), gin.H{"code": code.LoveID}).Code)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/v1/couple/disconnect", a.as(bob), nil).Code)

	w = a.do(http.MethodGet, "/api/v1/notifications?page=1&limit=10", a.as(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page notification.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	require.EqualValues(t, 1, page.UnreadCount)

	w = a.do(http.MethodPatch, "/api/v1/notifications/"+page.Items[0].ID.String()+"/read", a.as(bob), nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPatch, "/api/v1/notifications/read-all", a.as(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/v1/notifications", a.as(alice), nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Zero(t, page.UnreadCount)
}
