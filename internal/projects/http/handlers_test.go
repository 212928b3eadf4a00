package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
)

// fakeService implements only what a test sets; anything else panics.
type fakeService struct {
	Service

	owner     string
	traitsReq service.TraitBatchRequest
	extracted service.ExtractRequest
	patch     service.LayerPatch
	cascade   bool
	err       error
}

func (f *fakeService) Initialize(ctx context.Context, ownerID, prompt string) (*domain.Project, error) {
	f.owner = ownerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Project{ID: "collection-00001-0000", OwnerID: ownerID, Prompt: prompt, Status: domain.StatusInitializing}, nil
}

func (f *fakeService) Get(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Project{ID: id, OwnerID: ownerID}, nil
}

func (f *fakeService) Analyze(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	return nil, f.err
}

func (f *fakeService) GenerateTraits(ctx context.Context, ownerID, id string, req service.TraitBatchRequest) (*service.TraitBatchReport, error) {
	f.traitsReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.TraitBatchReport{
		Layer:     "Hat",
		Requested: req.Count,
		Succeeded: []service.GeneratedTrait{{Variation: 1, Name: "Hat 1"}},
		Failed:    []service.TraitFailure{{Variation: 2, Kind: "QuotaExceeded"}},
	}, nil
}

func (f *fakeService) ExtractTraits(ctx context.Context, req service.ExtractRequest) (*service.ExtractResult, error) {
	f.extracted = req
	return &service.ExtractResult{Background: "#b8b8b8", Regions: []service.ExtractedRegion{{Index: 0, Pixels: 42}}}, nil
}

func (f *fakeService) UpdateLayer(ctx context.Context, ownerID, id, name string, patch service.LayerPatch) (*domain.Project, error) {
	f.patch = patch
	return &domain.Project{ID: id}, f.err
}

func (f *fakeService) DeleteLayer(ctx context.Context, ownerID, id, name string, cascade bool) (*domain.Project, error) {
	f.cascade = cascade
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Project{ID: id}, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(auth.OptionalUser())
	h := New(svc)
	h.Register(r.Group("/api/v1/projects"))
	h.RegisterExtract(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateProject(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"prompt": "space cats"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "owner-1", svc.owner)
	assert.Contains(t, w.Body.String(), `"ok":true`)

	w = doJSON(r, http.MethodPost, "/api/v1/projects", gin.H{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":{"kind":"InvalidRequest","message":"prompt is required"}}`, w.Body.String())
}

func TestGetProject_NotFound(t *testing.T) {
	r := newRouter(&fakeService{err: domain.ErrProjectNotFound})

	w := doJSON(r, http.MethodGet, "/api/v1/projects/collection-00001-0000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"NotFound"`)
}

func TestAnalyze_HierarchyError(t *testing.T) {
	err := &domain.HierarchyError{Kind: domain.CyclicParent, Layer: "Hat"}
	r := newRouter(&fakeService{err: err})

	w := doJSON(r, http.MethodPost, "/api/v1/projects/p1/analyze", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"CyclicParent"`)
}

func TestGenerateTraits(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/projects/p1/traits/generate", gin.H{"category": "hat", "count": 2, "policy": "fail_fast"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.PolicyFailFast, svc.traitsReq.Policy)
	assert.Equal(t, 2, svc.traitsReq.Count)

	var resp struct {
		OK      bool                     `json:"ok"`
		Partial bool                     `json:"partial"`
		Report  service.TraitBatchReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Partial)
	assert.Len(t, resp.Report.Failed, 1)

	w = doJSON(r, http.MethodPost, "/api/v1/projects/p1/traits/generate", gin.H{"category": "hat", "policy": "sometimes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateTraits_Quota(t *testing.T) {
	r := newRouter(&fakeService{err: &generation.ServiceError{Op: "generate image", Quota: true}})

	w := doJSON(r, http.MethodPost, "/api/v1/projects/p1/traits/generate", gin.H{"category": "hat"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"QuotaExceeded"`)
}

func TestExtract_JSONAndMultipart(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := doJSON(r, http.MethodPost, "/api/v1/extract-traits", gin.H{"image": "data:image/png;base64,AAAA", "backgroundColor": "#ffffff"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{0, 0, 0}, svc.extracted.Sheet)
	assert.Equal(t, "#ffffff", svc.extracted.Background)
	assert.Contains(t, w.Body.String(), `"traits":[`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("sheet", "sheet.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.WriteField("detectBackground", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract-traits", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte("png-bytes"), svc.extracted.Sheet)
	assert.True(t, svc.extracted.DetectBackground)

	w = doJSON(r, http.MethodPost, "/api/v1/extract-traits", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLayerEdits(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	w := doJSON(r, http.MethodPatch, "/api/v1/projects/p1/layers/Hat", gin.H{"name": "Headwear", "position": gin.H{"x": 3, "y": 4}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.patch.Name)
	assert.Equal(t, "Headwear", *svc.patch.Name)
	assert.Nil(t, svc.patch.ParentLayer)
	assert.Equal(t, &domain.Position{X: 3, Y: 4}, svc.patch.Position)

	w = doJSON(r, http.MethodDelete, "/api/v1/projects/p1/layers/Body?cascade=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.cascade)

	svc.err = &domain.HierarchyError{Kind: domain.LayerHasChildren, Layer: "Body"}
	w = doJSON(r, http.MethodDelete, "/api/v1/projects/p1/layers/Body", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, svc.cascade)
	assert.Contains(t, w.Body.String(), "LayerHasChildren")
}
