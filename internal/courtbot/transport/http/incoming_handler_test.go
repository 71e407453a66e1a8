package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type stubDialogue struct {
	lastFrom string
	lastBody string
	reply    []string
}

func (s *stubDialogue) HandleMessage(ctx context.Context, from string, body string) []string {
	s.lastFrom = from
	s.lastBody = body
	return s.reply
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupIncomingTest(t *testing.T, dialogue *stubDialogue) *chi.Mux {
	t.Helper()
	handler := NewIncomingHandler(dialogue, testLogger(), validator.New())
	r := chi.NewRouter()
	r.Use(chi_middleware.RequestID)
	handler.RegisterRoutes(r)
	return r
}

func TestIncomingSMSCallback_RunsDialogue(t *testing.T) {
	dialogue := &stubDialogue{reply: []string{"(1/2) part one", "(2/2) part two"}}
	router := setupIncomingTest(t, dialogue)

	payload := map[string]string{
		"message_id": "msg-1",
		"from":       "+15105551234",
		"to":         "+15105559999",
		"text":       "ABC123",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/callbacks/twilio/incoming-sms", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "+15105551234", dialogue.lastFrom)
	assert.Equal(t, "ABC123", dialogue.lastBody)

	var resp IncomingSMSResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Status)
	assert.Equal(t, dialogue.reply, resp.Segments)
}

func TestIncomingSMSCallback_SilentTurnReturnsNoSegments(t *testing.T) {
	dialogue := &stubDialogue{reply: nil}
	router := setupIncomingTest(t, dialogue)

	body, _ := json.Marshal(map[string]string{
		"message_id": "msg-2",
		"from":       "+15105551234",
		"to":         "+15105559999",
		"text":       "maybe",
	})

	req := httptest.NewRequest(http.MethodPost, "/callbacks/twilio/incoming-sms", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp IncomingSMSResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Empty(t, resp.Segments)
}

func TestIncomingSMSCallback_RejectsInvalidJSON(t *testing.T) {
	router := setupIncomingTest(t, &stubDialogue{})

	req := httptest.NewRequest(http.MethodPost, "/callbacks/twilio/incoming-sms", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIncomingSMSCallback_RejectsMissingFields(t *testing.T) {
	dialogue := &stubDialogue{}
	router := setupIncomingTest(t, dialogue)

	body, _ := json.Marshal(map[string]string{
		"message_id": "msg-3",
		"text":       "ABC123",
	})

	req := httptest.NewRequest(http.MethodPost, "/callbacks/twilio/incoming-sms", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, dialogue.lastFrom)
}
