package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/delivery/http/handler"
	"github.com/detour-app/detour-backend/internal/delivery/http/middleware"
	"github.com/detour-app/detour-backend/internal/infrastructure/realtime"
	"github.com/detour-app/detour-backend/internal/notification"
	"github.com/detour-app/detour-backend/internal/repository/memory"
	"github.com/detour-app/detour-backend/internal/usecase/account"
	"github.com/detour-app/detour-backend/internal/usecase/block"
	"github.com/detour-app/detour-backend/internal/usecase/chat"
	"github.com/detour-app/detour-backend/internal/usecase/feed"
	"github.com/detour-app/detour-backend/internal/usecase/help"
	"github.com/detour-app/detour-backend/internal/usecase/swipe"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testApp struct {
	t        *testing.T
	engine   *gin.Engine
	recorder *notification.Recorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	repos := memory.NewStore().Repositories()
	recorder := notification.NewRecorder()
	accounts := account.NewAccountUseCase(repos)
	verifier := middleware.NewTokenVerifier(&config.JWTConfig{Secret: testSecret})
	hub := realtime.NewHub(nil)
	t.Cleanup(hub.Stop)

	router := NewRouter(
		handler.NewAccountHandler(accounts),
		handler.NewFeedHandler(feed.NewFeedUseCase(repos)),
		handler.NewSwipeHandler(swipe.NewSwipeUseCase(repos, recorder)),
		handler.NewChatHandler(chat.NewChatUseCase(repos, recorder)),
		handler.NewBlockHandler(block.NewBlockUseCase(repos)),
		handler.NewHelpHandler(help.NewHelpUseCase(repos, recorder)),
		handler.NewWSHandler(hub, verifier, accounts),
		middleware.NewAuthMiddleware(verifier, accounts),
	)
	return &testApp{t: t, engine: router.Setup(), recorder: recorder}
}

func (a *testApp) token(clerkID string) string {
	claims := jwt.RegisteredClaims{
		Subject:   clerkID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(a.t, err)
	return token
}

func (a *testApp) do(method, path, clerkID string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if clerkID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(clerkID))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// register signs clerkID up and returns the new user id.
func (a *testApp) register(clerkID, name string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/users", clerkID, gin.H{"name": name})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]interface{}](a.t, w)["id"].(string)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[handler.ErrorResponse](t, w)
	assert.False(t, body.Success)
	return body.Error
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegistration(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/v1/users", "", gin.H{"name": "Ana"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodGet, "/api/v1/users/me", "clerk_ana", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unregistered identities cannot use the API")

	id := app.register("clerk_ana", "Ana")

	w = app.do(http.MethodPost, "/api/v1/users", "clerk_ana", gin.H{"name": "Ana again"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[map[string]interface{}](t, w)["id"])

	w = app.do(http.MethodPost, "/api/v1/users", "clerk_bob", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid value for name", errorMessage(t, w))

	w = app.do(http.MethodPatch, "/api/v1/users/me", "clerk_ana", gin.H{"bio": "Always on the road"})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Ana", me["name"])
	assert.Equal(t, "Always on the road", me["bio"])
	assert.Equal(t, "pending", me["status"])

	w = app.do(http.MethodPut, "/api/v1/users/me/push-token", "clerk_ana", gin.H{"token": "device-token"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodDelete, "/api/v1/users/me", "clerk_ana", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/v1/users/me", "clerk_ana", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDatingFlow(t *testing.T) {
	app := newTestApp(t)
	ana := app.register("clerk_ana", "Ana")
	bob := app.register("clerk_bob", "Bob")

	w := app.do(http.MethodGet, "/api/v1/feed", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feedBefore := decode[[]feed.Candidate](t, w)
	require.Len(t, feedBefore, 1)
	assert.Equal(t, bob, feedBefore[0].ID)

	w = app.do(http.MethodGet, "/api/v1/feed?limit=500", "clerk_ana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/v1/swipes", "clerk_ana", gin.H{"swiped_user_id": bob, "action": "like"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"is_match":false}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/v1/swipes", "clerk_ana", gin.H{"swiped_user_id": bob, "action": "pass"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodGet, "/api/v1/feed", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/swipes/likes-received", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]swipe.LikeReceived](t, w), 1)

	w = app.do(http.MethodPost, "/api/v1/swipes", "clerk_bob", gin.H{"swiped_user_id": ana, "action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPost, "/api/v1/swipes", "clerk_bob", gin.H{"swiped_user_id": ana, "action": "superlike"})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[swipe.SwipeResult](t, w)
	require.True(t, result.IsMatch)
	require.NotNil(t, result.MatchID)
	matchID := *result.MatchID
	assert.Len(t, app.recorder.OfType(notification.EventMatch), 2)

	w = app.do(http.MethodGet, "/api/v1/matches", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)

	w = app.do(http.MethodPost, "/api/v1/matches/"+matchID+"/messages", "clerk_ana", gin.H{"content": "  hey there  "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	msg := decode[map[string]interface{}](t, w)
	assert.Equal(t, "hey there", msg["content"])
	assert.Equal(t, "text", msg["message_type"])

	w = app.do(http.MethodGet, "/api/v1/conversations", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	previews := decode[[]chat.ConversationPreview](t, w)
	require.Len(t, previews, 1)
	assert.Equal(t, 1, previews[0].UnreadCount)

	w = app.do(http.MethodPost, "/api/v1/matches/"+matchID+"/read", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"updated":1}`, w.Body.String())

	w = app.do(http.MethodPut, "/api/v1/matches/"+matchID+"/typing", "clerk_bob", gin.H{"is_typing": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/v1/matches/"+matchID+"/typing", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["is_typing"])

	w = app.do(http.MethodGet, "/api/v1/matches/not-a-uuid/messages", "clerk_ana", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	app.register("clerk_eve", "Eve")
	w = app.do(http.MethodGet, "/api/v1/matches/"+matchID+"/messages", "clerk_eve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	w = app.do(http.MethodPost, "/api/v1/matches/"+matchID+"/messages", "clerk_eve", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPost, "/api/v1/blocks/"+ana, "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/v1/blocks/"+bob, "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"blocked":true,"blocked_by":"`+bob+`"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/v1/matches/"+matchID+"/messages", "clerk_ana", gin.H{"content": "still there?"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "conversation is blocked", errorMessage(t, w))

	w = app.do(http.MethodGet, "/api/v1/conversations", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(http.MethodDelete, "/api/v1/blocks/"+ana, "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(http.MethodGet, "/api/v1/blocks", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHelpFlow(t *testing.T) {
	app := newTestApp(t)
	app.register("clerk_ana", "Ana")
	app.register("clerk_bob", "Bob")
	app.register("clerk_cid", "Cid")

	w := app.do(http.MethodPost, "/api/v1/help/requests", "clerk_ana", gin.H{"title": "Fix the sink", "category": "gardening"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid category", errorMessage(t, w))

	w = app.do(http.MethodPost, "/api/v1/help/requests", "clerk_ana", gin.H{"title": "Fix the sink", "category": "plumbing", "is_urgent": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requestID := decode[map[string]interface{}](t, w)["id"].(string)

	w = app.do(http.MethodGet, "/api/v1/help/requests?category=plumbing", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)
	w = app.do(http.MethodGet, "/api/v1/help/requests?category=electrical", "clerk_bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers", "clerk_ana", gin.H{"price": 5000})
	assert.Equal(t, http.StatusBadRequest, w.Code, "authors cannot offer on their own request")

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers", "clerk_bob", gin.H{"price": 5000, "message": "Can come tonight"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bobOffer := decode[map[string]interface{}](t, w)["id"].(string)

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers", "clerk_bob", gin.H{"price": 4000})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers", "clerk_cid", gin.H{"price": 4500})
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers/"+bobOffer+"/accept", "clerk_cid", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Not authorized", errorMessage(t, w))

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers/"+bobOffer+"/accept", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[help.AcceptResult](t, w)
	assert.True(t, accepted.Success)
	require.NotEmpty(t, accepted.ConversationID)
	assert.Len(t, app.recorder.OfType(notification.EventHelpOfferAccepted), 1)
	assert.Len(t, app.recorder.OfType(notification.EventHelpOfferRejected), 1)

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/offers/"+bobOffer+"/accept", "clerk_ana", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/conversation", "clerk_bob", gin.H{"offer_id": bobOffer})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, accepted.ConversationID, decode[map[string]interface{}](t, w)["id"])

	w = app.do(http.MethodPost, "/api/v1/help/conversations/"+accepted.ConversationID+"/messages", "clerk_bob", gin.H{"content": "On my way"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/help/conversations", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode[[]map[string]interface{}](t, w)
	require.Len(t, inbox, 1)
	assert.EqualValues(t, 1, inbox[0]["unread_count"])

	w = app.do(http.MethodPost, "/api/v1/help/conversations/"+accepted.ConversationID+"/read", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"updated":1}`, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/help/conversations/"+accepted.ConversationID+"/messages", "clerk_cid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = app.do(http.MethodPost, "/api/v1/help/requests/"+requestID+"/complete", "clerk_ana", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/v1/help/requests/"+requestID, "clerk_cid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode[map[string]interface{}](t, w)["status"])

	w = app.do(http.MethodGet, "/api/v1/help/requests/"+uuid.NewString(), "clerk_cid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/v1/help/offers/mine", "clerk_cid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]map[string]interface{}](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, "rejected", mine[0]["status"])
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
