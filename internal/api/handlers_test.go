package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"housing-dashboard/internal/analysis"
	"housing-dashboard/internal/config"
	"housing-dashboard/internal/dataset"
	"housing-dashboard/internal/models"
	"housing-dashboard/internal/render"
	"housing-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCSV = `ID,Category,Sub-Category,Location Identified,Owner,Expected Timeline,Updated Initiative
R1,Housing,Supply,"NS, NB",Government,2022-2024,"Build
more"
R2,Finance,Lending,NB,Industry,2025,Lend
R3,Policy,,PE,Government,n/a,Zone
`

type testServer struct {
	router   chi.Router
	handler  *Handler
	dataPath string
	cookie   *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "initiatives.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(testCSV), 0o644))

	assetDir := filepath.Join(dir, "assets")
	require.NoError(t, os.Mkdir(assetDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assetDir, "R1.png"), []byte("png"), 0o644))

	fields := config.Fields{
		ID: "ID", Category: "Category", Subcategory: "Sub-Category",
		Location: "Location Identified", Stakeholder: "Owner",
		Timeline: "Expected Timeline", Initiative: "Updated Initiative",
	}
	assets := render.Assets{Dir: assetDir, Ext: "png"}
	renderer, err := render.New(assets, "Test Dashboard", []string{"ID", "Updated Initiative", "Category"})
	require.NoError(t, err)

	cache := dataset.NewCache(&dataset.CSVSource{Path: dataPath}, fields, nil, zap.NewNop())
	h := NewHandler(cache, state.NewStore(time.Hour), renderer, assets, zap.NewNop())

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testServer{router: r, handler: h, dataPath: dataPath}
}

func (s *testServer) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			s.cookie = c
		}
	}
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) models.ViewResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view models.ViewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	return view
}

func facetByName(view models.ViewResponse, name string) models.FacetState {
	for _, f := range view.Facets {
		if f.Name == name {
			return f
		}
	}
	return models.FacetState{}
}

func recordIDs(view models.ViewResponse) []string {
	ids := []string{}
	for _, r := range view.Records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGetView_Unfiltered(t *testing.T) {
	s := newTestServer(t)
	view := decodeView(t, s.do(t, http.MethodGet, "/api/view", ""))

	assert.True(t, view.Unfiltered)
	assert.Equal(t, 3, view.Rows)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, []string{"R1", "R2", "R3"}, recordIDs(view))
	assert.Equal(t, []string{"Finance", "Housing", "Policy"}, facetByName(view, "category").Options)
	assert.Equal(t, []string{"2022", "2023", "2024", "2025"}, facetByName(view, "timeline").Options)
	assert.Equal(t, "/assets/R1.png", view.Records[0].AssetURL)
}

func TestReadOnlyRequestsDoNotStartSessions(t *testing.T) {
	s := newTestServer(t)
	decodeView(t, s.do(t, http.MethodGet, "/api/view", ""))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "").Code)
	assert.Nil(t, s.cookie)
	assert.Equal(t, 0, s.handler.Sessions.Len())

	decodeView(t, s.do(t, http.MethodPost, "/api/selections/category", `{"value":"Housing"}`))
	require.NotNil(t, s.cookie)
	assert.Equal(t, 1, s.handler.Sessions.Len())

	// an unknown or expired cookie reads as an empty selection
	stale := &testServer{router: s.router, cookie: &http.Cookie{Name: SessionCookie, Value: "gone"}}
	view := decodeView(t, stale.do(t, http.MethodGet, "/api/view", ""))
	assert.True(t, view.Unfiltered)
	assert.Equal(t, 1, s.handler.Sessions.Len())
}

func TestSelections_CascadeAcrossRequests(t *testing.T) {
	s := newTestServer(t)

	view := decodeView(t, s.do(t, http.MethodPost, "/api/selections/location", `{"value":"NB"}`))
	assert.Equal(t, []string{"R1", "R2"}, recordIDs(view))
	assert.Equal(t, []string{"Finance", "Housing"}, facetByName(view, "category").Options)
	assert.False(t, view.Unfiltered)

	view = decodeView(t, s.do(t, http.MethodPost, "/api/selections/timeline", `{"value":"2025"}`))
	assert.Equal(t, []string{"R2"}, recordIDs(view))
	assert.Equal(t, []string{"Finance"}, facetByName(view, "category").Options)
	assert.Equal(t, []int{2025}, view.Selections.Timeline)

	view = decodeView(t, s.do(t, http.MethodDelete, "/api/selections/timeline?value=2025", ""))
	assert.Equal(t, []string{"R1", "R2"}, recordIDs(view))

	view = decodeView(t, s.do(t, http.MethodPost, "/api/reset", ""))
	assert.True(t, view.Unfiltered)
	assert.Equal(t, 3, view.Rows)
}

func TestReplaceSelections_Sanitizes(t *testing.T) {
	s := newTestServer(t)
	body := `{"location":["PE"],"category":["Finance","Policy","Nope"]}`
	view := decodeView(t, s.do(t, http.MethodPut, "/api/selections", body))

	assert.Equal(t, []string{"Policy"}, view.Selections.Category)
	assert.Equal(t, []string{"R3"}, recordIDs(view))

	// the sanitized selection is what the session keeps
	view = decodeView(t, s.do(t, http.MethodGet, "/api/view", ""))
	assert.Equal(t, []string{"Policy"}, facetByName(view, "category").Selected)
}

func TestReplaceSelections_CollapsesDuplicates(t *testing.T) {
	s := newTestServer(t)
	body := `{"category":["Housing","Housing"],"timeline":[2023,2023]}`
	view := decodeView(t, s.do(t, http.MethodPut, "/api/selections", body))

	assert.Equal(t, []string{"Housing"}, view.Selections.Category)
	assert.Equal(t, []int{2023}, view.Selections.Timeline)
	assert.Equal(t, []string{"Housing"}, facetByName(view, "category").Selected)
	assert.Equal(t, []string{"R1"}, recordIDs(view))
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	decodeView(t, s.do(t, http.MethodPost, "/api/selections/category", `{"value":"Housing"}`))

	other := &testServer{router: s.router}
	view := decodeView(t, other.do(t, http.MethodGet, "/api/view", ""))
	assert.True(t, view.Unfiltered)

	view = decodeView(t, other.do(t, http.MethodPost, "/api/selections/category", `{"value":"Finance"}`))
	assert.Equal(t, []string{"R2"}, recordIDs(view))
	require.NotNil(t, other.cookie)
	assert.NotEqual(t, s.cookie.Value, other.cookie.Value)

	view = decodeView(t, s.do(t, http.MethodGet, "/api/view", ""))
	assert.Equal(t, []string{"Housing"}, view.Selections.Category)
}

func TestSelectionErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/selections/colour", `{"value":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/selections/category", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/selections", `{"timeline":["x"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetUnavailable(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.Remove(s.dataPath))

	rec := s.do(t, http.MethodGet, "/api/view", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusAndReload(t *testing.T) {
	s := newTestServer(t)

	var status models.StatusResponse
	rec := s.do(t, http.MethodGet, "/api/status", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.Loaded)

	rec = s.do(t, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/status", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Rows)
	assert.Contains(t, status.Source, "initiatives.csv")

	require.NoError(t, os.WriteFile(s.dataPath, []byte("ID\n"), 0o644))
	rec = s.do(t, http.MethodPost, "/api/reload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 3, len(s.handler.Datasets.Current().Records))
}

func TestGetColumns(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/columns", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profiles []analysis.ColumnProfile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profiles))
	require.Len(t, profiles, 7)
	assert.Equal(t, "ID", profiles[0].ColumnName)
	assert.True(t, profiles[0].IsPrimaryKey)
	assert.Equal(t, "Location Identified", profiles[3].ColumnName)
	assert.True(t, profiles[3].MultiValue)
}

func TestDashboardHTML(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"location": {"NB"}, "timeline": {"2023"}}
	rec := s.do(t, http.MethodPost, "/selections", form.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "<title>Test Dashboard</title>")
	assert.Contains(t, html, `<option value="NB" selected>NB</option>`)
	assert.Contains(t, html, `<option value="2023" selected>2023</option>`)
	assert.Contains(t, html, `src="/assets/R1.png"`)
	assert.Contains(t, html, "<td>Build<br>more</td>")
	assert.NotContains(t, html, "<td>Lend</td>")

	rec = s.do(t, http.MethodPost, "/reset", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	html = s.do(t, http.MethodGet, "/", "").Body.String()
	assert.Contains(t, html, "Showing all 3 initiatives")
}

func TestAssetsServed(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/assets/R1.png", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/assets/R2.png", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
