package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*harness, http.Handler) {
	t.Helper()
	h := newHarness(t)
	return h, NewHandler(h.orch, NewMemorySessionStore(0), "de", nil).Routes()
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) Reply {
	t.Helper()
	var reply Reply
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reply))
	return reply
}

func TestHandlerConversation(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/sessions", `{"locale":"de"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decodeReply(t, rec)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, StateCollectingReason, started.State)
	assert.Equal(t, "Worum geht es bei Ihrem Besuch? Haben Sie Beschwerden oder möchten Sie zur Kontrolle kommen?", started.Reply)

	base := "/sessions/" + started.SessionID
	turns := []struct {
		text  string
		state State
	}{
		{"Ich brauche eine Kontrolle", StateCollectingReason},
		{"Vor einem Jahr", StateCollectingName},
		{"Jane Doe", StateCollectingTime},
		{"morgen um 10 Uhr", StateCollectingPhone},
		{"0151 2345678", StateConfirming},
		{"Ja", StateBooked},
	}
	var last Reply
	for _, turn := range turns {
		body, _ := json.Marshal(UtteranceRequest{Text: turn.text})
		rec = doRequest(h, http.MethodPost, base+"/utterance", string(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		last = decodeReply(t, rec)
		assert.Equal(t, turn.state, last.State, turn.text)
	}
	require.NotNil(t, last.Appointment)
	assert.Equal(t, "2025-03-11", last.Appointment.Date)

	rec = doRequest(h, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sess Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	assert.Equal(t, StateBooked, sess.State)
	assert.Equal(t, "Jane Doe", sess.Name)
}

func TestHandlerStartWithFirstUtterance(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/sessions", `{"locale":"en","text":"My name is John Smith and I need a cleaning"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reply := decodeReply(t, rec)
	assert.Equal(t, "When did you last see a dentist?", reply.Reply)
	assert.Equal(t, StateCollectingReason, reply.State)
}

func TestHandlerUnknownSession(t *testing.T) {
	_, h := newTestHandler(t)

	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodGet, "/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(h, http.MethodPost, "/sessions/nope/utterance", `{"text":"ja"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, http.MethodPost, "/sessions/nope/utterance", `{`).Code)
}

func TestHandlerBookAndCancel(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/sessions/" + decodeReply(t, rec).SessionID

	rec = doRequest(h, http.MethodPost, base+"/book",
		`{"patient_name":"Jane Doe","phone":"0151 2345678","appointment_date":"2025-03-12","appointment_time":"09:30","treatment_type":"filling"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	booked := decodeReply(t, rec)
	assert.Equal(t, StateBooked, booked.State)
	require.NotNil(t, booked.Appointment)
	assert.Equal(t, "Vielen Dank, Jane Doe. Ihr Termin am Mittwoch, den 12. März um 9 Uhr 30 ist eingetragen. Wir freuen uns auf Sie.", booked.Reply)

	assert.Equal(t, http.StatusBadRequest, doRequest(h, http.MethodPost, base+"/cancel", `{"reason":"krank"}`).Code)

	rec = doRequest(h, http.MethodPost, base+"/cancel", `{"appointment_id":1,"reason":"krank"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ihr Termin am Mittwoch, den 12. März um 9 Uhr 30 wurde storniert.", decodeReply(t, rec).Reply)
}

func TestHandlerSessionNextAvailable(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/sessions", `{"locale":"it"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	base := "/sessions/" + decodeReply(t, rec).SessionID

	rec = doRequest(h, http.MethodPost, base+"/next-available", `{"treatment_type":"checkup"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reply := decodeReply(t, rec)
	assert.Len(t, reply.Alternatives, 3)
	assert.True(t, strings.HasPrefix(reply.Reply, "I prossimi appuntamenti liberi sono oggi alle 9:30"), reply.Reply)
}

func TestHandlerNextAvailable(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/next-available?count=2&locale=en", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "09:30", resp.Slots[0].Time)
	assert.Equal(t, "today at 9:30 or today at 10:00", resp.Reply)

	rec = doRequest(h, http.MethodGet, "/next-available?from=2025-03-15&count=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Slots, 1)
	assert.Equal(t, "2025-03-15", resp.Slots[0].Date)
	assert.Equal(t, "09:00", resp.Slots[0].Time)

	assert.Equal(t, http.StatusBadRequest, doRequest(h, http.MethodGet, "/next-available?count=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, http.MethodGet, "/next-available?count=50", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(h, http.MethodGet, "/next-available?from=15.03.", "").Code)
}

func TestHandlerDateInfo(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/date-info?locale=en", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp DateInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.True(t, resp.OpenNow)
	assert.Equal(t, "Today is Monday, March 10. The practice is open right now.", resp.Reply)
}

func TestHandlerResolve(t *testing.T) {
	_, h := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/resolve", `{"text":"übermorgen um halb elf"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2025-03-12", resp["date"])
	assert.Equal(t, "10:30", resp["time"])
	assert.Equal(t, true, resp["date_resolved"])
}
