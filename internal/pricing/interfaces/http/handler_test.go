package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

type stubRepository struct {
	mu     sync.Mutex
	nextID uint
	calcs  map[uint]*domain.Calculation
	order  []uint
}

func newStubRepository() *stubRepository {
	return &stubRepository{nextID: 1, calcs: make(map[uint]*domain.Calculation)}
}

func (s *stubRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *stubRepository) Save(ctx context.Context, calc *domain.Calculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	calc.ID = s.nextID
	s.nextID++
	calc.CreatedAt = time.Now()
	s.calcs[calc.ID] = calc
	s.order = append(s.order, calc.ID)
	return nil
}

func (s *stubRepository) SaveBatch(ctx context.Context, calcs []*domain.Calculation) error {
	for _, calc := range calcs {
		if err := s.Save(ctx, calc); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRepository) FindByID(ctx context.Context, id uint) (*domain.Calculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calcs[id], nil
}

func (s *stubRepository) List(ctx context.Context, offset, limit int) ([]*domain.Calculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Calculation, 0, limit)
	for i := len(s.order) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.calcs[s.order[i]])
	}
	return out, nil
}

func (s *stubRepository) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.calcs)), nil
}

func (s *stubRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range ids {
		if _, ok := s.calcs[id]; !ok {
			continue
		}
		delete(s.calcs, id)
		deleted++
		for i, stored := range s.order {
			if stored == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return deleted, nil
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := application.NewPricingService(newStubRepository(), nil, nil, metrics.New("test"), config.BatchConfig{MaxRows: 100, Workers: 2})
	t.Cleanup(svc.Close)

	router := gin.New()
	NewPricingHandler(svc).RegisterRoutes(router.Group("/api"))
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{"s0":100,"x":100,"t":1,"r":0.05,"d":0.02,"v":0.2}`

func TestCreateCalculationEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto application.CalculationDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, uint(1), dto.ID)
	assert.InDelta(t, 9.2270055, dto.CallPrice.InexactFloat64(), 1e-4)
	assert.InDelta(t, 6.3300806, dto.PutPrice.InexactFloat64(), 1e-4)
	assert.InDelta(t, 0.25, dto.D1, 1e-9)
	assert.InDelta(t, 0.05, dto.D2, 1e-9)
}

func TestCreateCalculationMissingField(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations", `{"s0":100,"x":100,"t":1,"r":0.05,"d":0.02}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCalculationInvalidInput(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations", `{"s0":-5,"x":100,"t":-1,"r":0.05,"d":0.02,"v":0.2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error      string                  `json:"error"`
		Violations []domain.FieldViolation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid calculation input", resp.Error)
	require.Len(t, resp.Violations, 2)
	assert.Equal(t, "s0", resp.Violations[0].Field)
	assert.Equal(t, "t", resp.Violations[1].Field)
}

func TestCreateCalculationNonFiniteResult(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations", `{"s0":100,"x":100,"t":1e-300,"r":0.05,"d":0.02,"v":1e-300}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestGetCalculationEndpoint(t *testing.T) {
	router := setupRouter(t)
	doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)

	w := doRequest(t, router, http.MethodGet, "/api/v1/calculations/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var dto application.CalculationDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, uint(1), dto.ID)
	assert.InDelta(t, 0.25, dto.D1, 1e-9)
}

func TestGetCalculationNotFoundEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/calculations/999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "calculation not found")
}

func TestGetCalculationInvalidID(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodGet, "/api/v1/calculations/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCalculationsEndpoint(t *testing.T) {
	router := setupRouter(t)
	for i := 0; i < 3; i++ {
		doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)
	}

	w := doRequest(t, router, http.MethodGet, "/api/v1/calculations?offset=0&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Calculations []application.CalculationDTO `json:"calculations"`
		Pagination   utils.Pagination             `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Calculations, 2)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, int64(2), resp.Pagination.Pages)
}

func TestCountCalculationsEndpoint(t *testing.T) {
	router := setupRouter(t)
	for i := 0; i < 3; i++ {
		doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)
	}

	w := doRequest(t, router, http.MethodGet, "/api/v1/calculations/count", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3}`, w.Body.String())
}

func TestDeleteCalculationsEndpoint(t *testing.T) {
	router := setupRouter(t)
	doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)
	doRequest(t, router, http.MethodPost, "/api/v1/calculations", validBody)

	w := doRequest(t, router, http.MethodDelete, "/api/v1/calculations", `{"ids":[1,5]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())

	w = doRequest(t, router, http.MethodGet, "/api/v1/calculations/count", "")
	assert.JSONEq(t, `{"total":1}`, w.Body.String())
}

func TestDeleteCalculationsRequiresIDs(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodDelete, "/api/v1/calculations", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchCalculateEndpoint(t *testing.T) {
	router := setupRouter(t)

	body := fmt.Sprintf(`{"batch_id":"batch-7","inputs":[%s,{"s0":100,"x":100,"t":-1,"r":0.05,"d":0,"v":0.2},%s]}`, validBody, validBody)
	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations/batch", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp application.BatchResultDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "batch-7", resp.BatchID)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 2, resp.Successful)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Results, 2)
}

func TestBatchCalculateRejectsEmptyInputs(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/v1/calculations/batch", `{"inputs":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
