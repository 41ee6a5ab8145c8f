package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freelancer/internal/config"
	"freelancer/internal/logging"
	"freelancer/internal/repository/sqlite"
	"freelancer/internal/services"
	"freelancer/internal/validation"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type apiEnv struct {
	t        *testing.T
	handler  http.Handler
	services *services.ServiceContainer
	clock    *fixedClock
}

type seeded struct {
	userID    int64
	clientID  int64
	projectID int64
}

func setupServer(t *testing.T) *apiEnv {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	clock := &fixedClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	svc := services.NewServiceContainer(repo, config.NewConfig(), logging.Discard(), clock)
	return &apiEnv{
		t:        t,
		handler:  NewServer(svc, logging.Discard()).Handler(),
		services: svc,
		clock:    clock,
	}
}

func (env *apiEnv) seed(email string) seeded {
	env.t.Helper()
	ctx := context.Background()
	user, err := env.services.Clients.CreateUser(ctx, email, "Test User")
	require.NoError(env.t, err)
	client, err := env.services.Clients.CreateClient(ctx, user.ID, validation.ClientInput{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(env.t, err)
	rate := "100"
	project, err := env.services.Clients.CreateProject(ctx, user.ID, validation.ProjectInput{
		ClientID: client.ID, Name: "Website", HourlyRate: &rate,
	})
	require.NoError(env.t, err)
	return seeded{userID: user.ID, clientID: client.ID, projectID: project.ID}
}

func (env *apiEnv) do(method, path string, userID int64, body string) *httptest.ResponseRecorder {
	env.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID > 0 {
		req.Header.Set(UserIDHeader, strconv.FormatInt(userID, 10))
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var body testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	body := decodeEnvelope(t, rec)
	require.True(t, body.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(body.Data, dst))
}

func TestServer_Healthz(t *testing.T) {
	env := setupServer(t)
	rec := env.do(http.MethodGet, "/healthz", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RequiresUser(t *testing.T) {
	env := setupServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a number", "abc"},
		{"zero", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
			if tt.header != "" {
				req.Header.Set(UserIDHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, decodeEnvelope(t, rec).Success)
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	env := setupServer(t)

	t.Run("generated when absent", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/healthz", 0, "")
		_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})

	t.Run("echoed when valid", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, id)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaced when malformed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
	})
}

func TestServer_TimerFlow(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("timer@example.com")

	start := `{"projectId": ` + strconv.FormatInt(acc.projectID, 10) + `, "description": "Homepage"}`
	rec := env.do(http.MethodPost, "/api/timer/start", acc.userID, start)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var started timeEntryResponse
	decodeData(t, rec, &started)
	assert.Nil(t, started.EndTime)
	assert.Equal(t, "2024-03-04", started.Date)

	rec = env.do(http.MethodPost, "/api/timer/start", acc.userID, start)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodGet, "/api/timer/current", acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var current timeEntryResponse
	decodeData(t, rec, &current)
	assert.Equal(t, started.ID, current.ID)

	env.clock.now = env.clock.now.Add(45 * time.Minute)
	rec = env.do(http.MethodPost, "/api/timer/"+strconv.FormatInt(started.ID, 10)+"/stop", acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stopped timeEntryResponse
	decodeData(t, rec, &stopped)
	require.NotNil(t, stopped.DurationMinutes)
	assert.Equal(t, 45, *stopped.DurationMinutes)

	rec = env.do(http.MethodGet, "/api/timer/current", acc.userID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ValidationEnvelope(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("validation@example.com")

	rec := env.do(http.MethodPost, "/api/time-entries", acc.userID, `{"projectId": 0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeEnvelope(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation failed", body.Message)

	fields := make(map[string]bool)
	for _, fe := range body.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["projectId"])
	assert.True(t, fields["startTime"])
	assert.True(t, fields["endTime"])
}

func TestServer_MalformedRequests(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("malformed@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"invalid json", http.MethodPost, "/api/clients", `{"name":`},
		{"bad path id", http.MethodGet, "/api/time-entries/abc", ""},
		{"bad query bool", http.MethodGet, "/api/time-entries?billable=maybe", ""},
		{"bad query date", http.MethodGet, "/api/time-entries?from=yesterday", ""},
		{"bad since", http.MethodGet, "/api/reports/summary?since=forever", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, acc.userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_TimeEntryLifecycle(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("entries@example.com")

	body := `{"projectId": ` + strconv.FormatInt(acc.projectID, 10) + `,
		"startTime": "2024-03-01T09:00:00Z", "endTime": "2024-03-01T10:30:00Z",
		"description": "Design review"}`
	rec := env.do(http.MethodPost, "/api/time-entries", acc.userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created timeEntryResponse
	decodeData(t, rec, &created)
	require.NotNil(t, created.DurationMinutes)
	assert.Equal(t, 90, *created.DurationMinutes)
	assert.True(t, created.IsBillable)

	path := "/api/time-entries/" + strconv.FormatInt(created.ID, 10)

	t.Run("explicit null end time is rejected", func(t *testing.T) {
		rec := env.do(http.MethodPut, path, acc.userID, `{"endTime": null}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch changes only supplied fields", func(t *testing.T) {
		rec := env.do(http.MethodPut, path, acc.userID, `{"description": "Design sync"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated timeEntryResponse
		decodeData(t, rec, &updated)
		assert.Equal(t, "Design sync", updated.Description)
		assert.Equal(t, 90, *updated.DurationMinutes)
	})

	t.Run("list filters by range", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/time-entries?from=2024-03-01&to=2024-03-02", acc.userID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var entries []timeEntryResponse
		decodeData(t, rec, &entries)
		assert.Len(t, entries, 1)

		rec = env.do(http.MethodGet, "/api/time-entries?from=2024-03-02", acc.userID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		decodeData(t, rec, &entries)
		assert.Empty(t, entries)
	})

	t.Run("other users see not found", func(t *testing.T) {
		other := env.seed("other@example.com")
		rec := env.do(http.MethodGet, path, other.userID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = env.do(http.MethodDelete, path, other.userID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, path, acc.userID, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec = env.do(http.MethodGet, path, acc.userID, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func invoiceBody(acc seeded, number string) string {
	return `{
		"clientId": ` + strconv.FormatInt(acc.clientID, 10) + `,
		"projectId": ` + strconv.FormatInt(acc.projectID, 10) + `,
		"invoiceNumber": "` + number + `",
		"issueDate": "2024-03-01",
		"dueDate": "2024-03-31",
		"taxRate": "0.0825",
		"currency": "usd",
		"notes": "Thanks for your business",
		"items": [
			{"description": "Design", "quantity": 2, "unitPrice": "50.00"},
			{"description": "Hosting", "quantity": "1", "unitPrice": 100.00}
		]
	}`
}

func TestServer_CreateInvoiceGolden(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("golden@example.com")

	rec := env.do(http.MethodPost, "/api/invoices", acc.userID, invoiceBody(acc, "INV-001"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "create_invoice", rec.Body.Bytes())
}

func TestServer_InvoiceLifecycle(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("lifecycle@example.com")

	rec := env.do(http.MethodPost, "/api/invoices", acc.userID, invoiceBody(acc, "INV-001"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created invoiceResponse
	decodeData(t, rec, &created)
	path := "/api/invoices/" + strconv.FormatInt(created.ID, 10)

	rec = env.do(http.MethodPost, "/api/invoices", acc.userID, invoiceBody(acc, "INV-001"))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, path+"/send", acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sent invoiceResponse
	decodeData(t, rec, &sent)
	assert.Equal(t, "sent", sent.Status)

	rec = env.do(http.MethodPut, path, acc.userID, `{"notes": "late edit"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, path+"/paid", acc.userID, `{"paidDate": "2024-03-20"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid invoiceResponse
	decodeData(t, rec, &paid)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2024-03-20", *paid.PaidDate)

	rec = env.do(http.MethodPost, path+"/cancel", acc.userID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/invoices?status=paid", acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []invoiceResponse
	decodeData(t, rec, &listed)
	assert.Len(t, listed, 1)

	rec = env.do(http.MethodGet, "/api/invoices?status=unknown", acc.userID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ClientsProjectsTasks(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("catalog@example.com")

	rec := env.do(http.MethodPost, "/api/clients", acc.userID, `{"name": "Globex", "email": "ap@globex.test"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client clientResponse
	decodeData(t, rec, &client)

	body := `{"clientId": ` + strconv.FormatInt(client.ID, 10) + `, "name": "Migration", "hourlyRate": 95.5}`
	rec = env.do(http.MethodPost, "/api/projects", acc.userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var project projectResponse
	decodeData(t, rec, &project)
	require.NotNil(t, project.HourlyRate)
	assert.Equal(t, "95.5", *project.HourlyRate)

	rec = env.do(http.MethodGet, "/api/projects?clientId="+strconv.FormatInt(client.ID, 10), acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []projectResponse
	decodeData(t, rec, &projects)
	assert.Len(t, projects, 1)

	tasksPath := "/api/projects/" + strconv.FormatInt(project.ID, 10) + "/tasks"
	rec = env.do(http.MethodPost, tasksPath, acc.userID, `{"name": "Schema"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, tasksPath, acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []taskResponse
	decodeData(t, rec, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Schema", tasks[0].Name)

	rec = env.do(http.MethodDelete, "/api/clients/"+strconv.FormatInt(client.ID, 10), acc.userID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServer_Summary(t *testing.T) {
	env := setupServer(t)
	acc := env.seed("summary@example.com")

	body := `{"projectId": ` + strconv.FormatInt(acc.projectID, 10) + `,
		"startTime": "2024-03-03T09:00:00Z", "endTime": "2024-03-03T10:30:00Z"}`
	rec := env.do(http.MethodPost, "/api/time-entries", acc.userID, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/reports/summary?since=1w", acc.userID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary summaryResponse
	decodeData(t, rec, &summary)
	assert.Equal(t, 90, summary.TotalMinutes)
	require.Len(t, summary.Projects, 1)
	require.NotNil(t, summary.Projects[0].UnbilledAmount)
	assert.Equal(t, "150.00", *summary.Projects[0].UnbilledAmount)
}

func TestDecimalInput(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"number", `12.50`, "12.50"},
		{"string", `"0.0825"`, "0.0825"},
		{"integer", `3`, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d decimalInput
			require.NoError(t, json.Unmarshal([]byte(tt.json), &d))
			assert.Equal(t, tt.want, string(d))
		})
	}

	var missing *decimalInput
	assert.Nil(t, missing.stringPtr())
}

func TestOptionalTime(t *testing.T) {
	var req timeEntryPatchRequest

	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.False(t, req.EndTime.Set)
	assert.False(t, req.toUpdate().ClearEndTime)

	require.NoError(t, json.Unmarshal([]byte(`{"endTime": null}`), &req))
	assert.True(t, req.EndTime.Set)
	assert.True(t, req.toUpdate().ClearEndTime)

	req = timeEntryPatchRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"endTime": "2024-03-01T10:00:00Z"}`), &req))
	require.NotNil(t, req.EndTime.Value)
	assert.False(t, req.toUpdate().ClearEndTime)
}
