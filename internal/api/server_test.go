package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/flexoplate-iq/internal/common"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/exposure"
	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/service"
	"github.com/Veraticus/flexoplate-iq/internal/testutil"
	"github.com/Veraticus/flexoplate-iq/internal/testutil/plates"
)

func newTestServer(t *testing.T) (*Server, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t, plates.Catalog().Plates()...)
	return NewServer(db.Storage, engine.New(db.Storage), Options{Version: "test"}), db
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFindEquivalents(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		validate   func(t *testing.T, resp FindResponse)
		name       string
		body       string
		wantMsg    string
		wantStatus int
	}{
		{
			name:       "ranked equivalents",
			body:       `{"source_plate_id":"ftf-114"}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp FindResponse) {
				t.Helper()
				assert.Equal(t, plates.FTF114, resp.SourcePlate.ID)
				require.Len(t, resp.Equivalents, 8)
				assert.Equal(t, 8, resp.TotalCandidates)
				assert.Equal(t, plates.DSP114, resp.Equivalents[0].ID)
				assert.Equal(t, 100, resp.Equivalents[0].SimilarityScore)
				assert.NotEmpty(t, resp.Equivalents[0].MatchNotes)
				assert.Equal(t, "Standard", resp.Profile.Name)
			},
		},
		{
			name:       "target supplier and limit",
			body:       `{"source_plate_id":"ftf-114","target_supplier":"Miraclon","limit":2}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp FindResponse) {
				t.Helper()
				require.Len(t, resp.Equivalents, 2)
				assert.Equal(t, 3, resp.TotalCandidates)
				assert.Equal(t, plates.NXH114, resp.Equivalents[0].ID)
			},
		},
		{
			name:       "same supplier included",
			body:       `{"source_plate_id":"ftf-114","include_same_supplier":true,"limit":20}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp FindResponse) {
				t.Helper()
				assert.Equal(t, 11, resp.TotalCandidates)
			},
		},
		{
			name:       "score floor",
			body:       `{"source_plate_id":"ftf-114","min_score":100}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp FindResponse) {
				t.Helper()
				require.Len(t, resp.Equivalents, 1)
				assert.Equal(t, 1, resp.TotalCandidates)
				assert.Equal(t, plates.DSP114, resp.Equivalents[0].ID)
			},
		},
		{
			name:       "job preferences",
			body:       `{"source_plate_id":"ftf-114","substrate":"film","ink_system":"UV","application":"labels","limit":1}`,
			wantStatus: http.StatusOK,
			validate: func(t *testing.T, resp FindResponse) {
				t.Helper()
				require.Len(t, resp.Equivalents, 1)
				assert.Equal(t, 100, resp.Equivalents[0].SimilarityScore)
				notes := resp.Equivalents[0].MatchNotes
				require.GreaterOrEqual(t, len(notes), 3)
				assert.Equal(t, []string{
					"Matches substrate: film",
					"Compatible with UV inks",
					"Suitable for labels",
				}, notes[len(notes)-3:])
			},
		},
		{
			name:       "score floor too large",
			body:       `{"source_plate_id":"ftf-114","min_score":101}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "min_score must be at most 100",
		},
		{
			name:       "missing source",
			body:       `{"limit":5}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "source_plate_id is required",
		},
		{
			name:       "limit too large",
			body:       `{"source_plate_id":"ftf-114","limit":500}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "limit must be at most 100",
		},
		{
			name:       "malformed body",
			body:       `{"source_plate_id":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown source",
			body:       `{"source_plate_id":"nope"}`,
			wantStatus: http.StatusNotFound,
			wantMsg:    "source plate not found",
		},
		{
			name:       "unknown profile",
			body:       `{"source_plate_id":"ftf-114","profile_id":"nope"}`,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/api/equivalency/find", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				msg := decode[ErrorResponse](t, rec)
				assert.NotEmpty(t, msg.Message)
				if tt.wantMsg != "" {
					assert.Contains(t, msg.Message, tt.wantMsg)
				}
				return
			}
			if tt.validate != nil {
				tt.validate(t, decode[FindResponse](t, rec))
			}
		})
	}
}

func TestQuickEquivalents(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/equivalency/quick?plate_id=ftf-114&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[FindResponse](t, rec)
	assert.Len(t, resp.Equivalents, 2)
	assert.Equal(t, 8, resp.TotalCandidates)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/equivalency/quick?limit=2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "plate_id is required")

	rec = do(t, srv.Handler(), http.MethodGet, "/api/equivalency/quick?plate_id=ftf-114&min_score=100&ink_system=uv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[FindResponse](t, rec)
	require.Len(t, resp.Equivalents, 1)
	notes := resp.Equivalents[0].MatchNotes
	assert.Equal(t, "Compatible with uv inks", notes[len(notes)-1])
}

func TestFindEquivalentsShowsOverrides(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/overrides", `{
		"source_plate_id": "ftf-114",
		"target_plate_id": "dsp-114",
		"similarity_score": 35,
		"confidence_level": "high",
		"adjustment_notes": "Solid density drops on film"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/equivalency/find", `{"source_plate_id":"ftf-114"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[FindResponse](t, rec)

	assert.Equal(t, plates.NXH114, resp.Equivalents[0].ID)
	for _, eq := range resp.Equivalents {
		if eq.ID == plates.DSP114 {
			assert.True(t, eq.Overridden)
			assert.Equal(t, 35, eq.SimilarityScore)
			assert.Equal(t, "Solid density drops on film", eq.MatchNotes[0])
		}
	}
}

func TestListPlates(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "all", query: "", wantStatus: http.StatusOK, wantCount: 12},
		{name: "supplier", query: "?supplier=XSYS", wantStatus: http.StatusOK, wantCount: 4},
		{name: "process", query: "?process_type=thermal", wantStatus: http.StatusOK, wantCount: 3},
		{name: "thickness", query: "?thickness_mm=2.84", wantStatus: http.StatusOK, wantCount: 3},
		{name: "search", query: "?search=NXH", wantStatus: http.StatusOK, wantCount: 2},
		{name: "limit", query: "?limit=5", wantStatus: http.StatusOK, wantCount: 5},
		{name: "bad process", query: "?process_type=uv", wantStatus: http.StatusBadRequest},
		{name: "limit too large", query: "?limit=201", wantStatus: http.StatusBadRequest},
		{name: "non numeric thickness", query: "?thickness_mm=thick", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, "/api/plates"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				list := decode[ListResponse[model.Plate]](t, rec)
				assert.Equal(t, tt.wantCount, list.Count)
				assert.Len(t, list.Items, tt.wantCount)
			}
		})
	}
}

func TestGetPlate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/plates/nxh-114", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[model.Plate](t, rec)
	assert.Equal(t, "FLEXCEL NXH 1.14", p.DisplayName)
	assert.Equal(t, "Miraclon", p.SupplierName)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/plates/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuppliersAndFamilies(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/suppliers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[ListResponse[model.Supplier]](t, rec).Count)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/families", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, decode[ListResponse[model.PlateFamily]](t, rec).Count)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/families?supplier=DuPont", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[ListResponse[model.PlateFamily]](t, rec).Count)
}

func TestProfiles(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"name":"Labels","weights":{"thickness":30,"ink_compat":10},"hardness_tolerance":3,"thickness_tolerance_mm":0.1}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "zero total weight",
			body:       `{"name":"Zero","weights":{"thickness":0},"hardness_tolerance":3,"thickness_tolerance_mm":0.1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown attribute",
			body:       `{"name":"Odd","weights":{"durometer":10},"hardness_tolerance":3,"thickness_tolerance_mm":0.1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing tolerance",
			body:       `{"name":"Loose","weights":{"thickness":10}}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/profiles", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListResponse[model.WeightProfile]](t, rec)
	assert.Equal(t, 2, list.Count)
}

func TestOrganizationProfileIsUsed(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/profiles", `{
		"name": "Acme",
		"organization_id": "acme",
		"weights": {"thickness": 100},
		"hardness_tolerance": 2,
		"thickness_tolerance_mm": 0.05,
		"is_default": true
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/equivalency/find", `{"source_plate_id":"ftf-114","organization_id":"acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decode[FindResponse](t, rec).Profile.Name)

	rec = do(t, h, http.MethodGet, "/api/profiles?organization_id=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, decode[ListResponse[model.WeightProfile]](t, rec).Count)
}

func TestOverrides(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "self pair", body: `{"source_plate_id":"ftf-114","target_plate_id":"ftf-114","similarity_score":50}`, wantStatus: http.StatusBadRequest},
		{name: "score out of range", body: `{"source_plate_id":"ftf-114","target_plate_id":"dsp-114","similarity_score":101}`, wantStatus: http.StatusBadRequest},
		{name: "bad confidence", body: `{"source_plate_id":"ftf-114","target_plate_id":"dsp-114","confidence_level":"sure"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown target", body: `{"source_plate_id":"ftf-114","target_plate_id":"nope","similarity_score":50}`, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/overrides", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, h, http.MethodPost, "/api/overrides", `{"source_plate_id":"ftf-114","target_plate_id":"nxh-114","similarity_score":88,"created_by":"qa"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.OverrideRule](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.ConfidenceMedium, created.ConfidenceLevel)

	rec = do(t, h, http.MethodGet, "/api/overrides?source_plate_id=ftf-114", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ListResponse[model.OverrideRule]](t, rec).Count)

	rec = do(t, h, http.MethodGet, "/api/overrides?source_plate_id=nxh-114", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[ListResponse[model.OverrideRule]](t, rec).Count)

	rec = do(t, h, http.MethodDelete, "/api/overrides/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/overrides/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/overrides", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[ListResponse[model.OverrideRule]](t, rec).Count)
}

func newEquipmentServer(t *testing.T) (*Server, map[string]string) {
	t.Helper()
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{
		Plates:      plates.Catalog().Plates(),
		CustomSetup: testutil.SeedEquipment,
	})
	all, err := db.Storage.GetEquipmentModels(context.Background(), service.EquipmentFilter{})
	require.NoError(t, err)
	ids := make(map[string]string, len(all))
	for _, e := range all {
		ids[e.ModelName] = e.ID
	}
	return NewServer(db.Storage, engine.New(db.Storage), Options{}), ids
}

func TestListEquipment(t *testing.T) {
	srv, _ := newEquipmentServer(t)

	tests := []struct {
		name       string
		query      string
		wantMsg    string
		want       []string
		wantStatus int
	}{
		{
			name:       "all",
			want:       []string{"Cyrel 2000 ECLF", "Cyrel FAST 2000TD", "FLEXCEL NX Wide 5080", "Catena-E 48", "Catena-W 48"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "category",
			query:      "?equipment_type=exposure",
			want:       []string{"Cyrel 2000 ECLF", "Catena-E 48"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "exact type and supplier",
			query:      "?equipment_type=processor_solvent&supplier=xsys",
			want:       []string{"Catena-W 48"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "no match",
			query:      "?supplier=Asahi",
			want:       []string{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown type",
			query:      "?equipment_type=toaster",
			wantMsg:    "unknown equipment type",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, "/api/equipment/models"+tt.query, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantMsg != "" {
				assert.Contains(t, decode[ErrorResponse](t, rec).Message, tt.wantMsg)
				return
			}
			resp := decode[ListResponse[model.EquipmentModel]](t, rec)
			names := make([]string, 0, len(resp.Items))
			for _, e := range resp.Items {
				names = append(names, e.ModelName)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestCalculateExposure(t *testing.T) {
	srv, equipment := newEquipmentServer(t)

	tests := []struct {
		name       string
		body       string
		wantMsg    string
		wantMainS  float64
		wantStatus int
	}{
		{name: "valid", body: `{"plate_id":"ftf-114","uv_intensity_mw_cm2":20}`, wantMainS: 50, wantStatus: http.StatusOK},
		{
			name:       "intensity from equipment",
			body:       `{"plate_id":"ftf-114","equipment_model_id":"` + equipment["Catena-E 48"] + `"}`,
			wantMainS:  55.6,
			wantStatus: http.StatusOK,
		},
		{
			name:       "explicit intensity wins over equipment",
			body:       `{"plate_id":"ftf-114","uv_intensity_mw_cm2":20,"equipment_model_id":"` + equipment["Catena-E 48"] + `"}`,
			wantMainS:  50,
			wantStatus: http.StatusOK,
		},
		{
			name:       "equipment is not an exposure unit",
			body:       `{"plate_id":"ftf-114","equipment_model_id":"` + equipment["Catena-W 48"] + `"}`,
			wantMsg:    "not an exposure unit",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown equipment",
			body:       `{"plate_id":"ftf-114","equipment_model_id":"nope"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no intensity source",
			body:       `{"plate_id":"ftf-114","uv_intensity_mw_cm2":0}`,
			wantMsg:    "equipment_model_id is required when no intensity is given",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative intensity",
			body:       `{"plate_id":"ftf-114","uv_intensity_mw_cm2":-5}`,
			wantMsg:    "uv_intensity_mw_cm2 must be greater than 0",
			wantStatus: http.StatusBadRequest,
		},
		{name: "floor above thickness", body: `{"plate_id":"ftf-114","uv_intensity_mw_cm2":20,"target_floor_mm":1.5}`, wantStatus: http.StatusBadRequest},
		{name: "unknown plate", body: `{"plate_id":"nope","uv_intensity_mw_cm2":20}`, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/api/exposure/calculate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantMsg != "" {
				assert.Contains(t, decode[ErrorResponse](t, rec).Message, tt.wantMsg)
			}
			if tt.wantStatus == http.StatusOK {
				res := decode[exposure.Result](t, rec)
				require.NotNil(t, res.Exposure.MainS)
				assert.InDelta(t, tt.wantMainS, *res.Exposure.MainS, 1e-9)
				assert.Equal(t, "XSYS", res.SupplierName)
			}
		})
	}
}

func TestScaleExposure(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/exposure/scale?reference_time_s=60&reference_intensity=20&current_intensity=16", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[exposure.ScaleResult](t, rec)
	assert.InDelta(t, 75.0, res.ScaledTimeS, 1e-9)
	assert.InDelta(t, -20.0, res.IntensityChangePercent, 1e-9)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/exposure/scale?reference_time_s=60&reference_intensity=20", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "current_intensity")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "ok", resp.Checks["database"])
}

func TestHealthReportsClosedDatabase(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Storage.Close())

	rec := do(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", decode[HealthResponse](t, rec).Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodGet, "/api/equivalency/quick?plate_id=ftf-114", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "flexo_http_requests_total")
	assert.Contains(t, body, `route="/api/equivalency/quick"`)
	assert.Contains(t, body, `flexo_equivalency_searches_total{outcome="ok"}`)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[ErrorResponse](t, rec).Message)
}

// failingCatalog injects storage failures into the engine.
type failingCatalog struct {
	engine.Catalog
	poolErr    error
	profileErr error
}

func (f *failingCatalog) GetCandidatePlates(ctx context.Context, org *string) ([]model.Plate, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	return f.Catalog.GetCandidatePlates(ctx, org)
}

func (f *failingCatalog) GetDefaultWeightProfile(ctx context.Context, org *string) (*model.WeightProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.Catalog.GetDefaultWeightProfile(ctx, org)
}

func TestFindEquivalentsEngineFailures(t *testing.T) {
	tests := []struct {
		catalog    func(engine.Catalog) engine.Catalog
		name       string
		wantMsg    string
		wantStatus int
	}{
		{
			name: "no default profile",
			catalog: func(c engine.Catalog) engine.Catalog {
				return &failingCatalog{Catalog: c, profileErr: common.ErrNotFound}
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "missing configuration",
		},
		{
			name: "storage failure",
			catalog: func(c engine.Catalog) engine.Catalog {
				return &failingCatalog{Catalog: c, poolErr: errors.New("disk on fire")}
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t, plates.Catalog().Plates()...)
			srv := NewServer(db.Storage, engine.New(tt.catalog(db.Storage)), Options{})

			rec := do(t, srv.Handler(), http.MethodPost, "/api/equivalency/find", `{"source_plate_id":"ftf-114"}`)
			require.Equal(t, tt.wantStatus, rec.Code)
			msg := decode[ErrorResponse](t, rec).Message
			assert.Contains(t, msg, tt.wantMsg)
			assert.NotContains(t, msg, "disk on fire")
		})
	}
}
