package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"filevault/internal/domain/file"
	"filevault/internal/logger"
	"filevault/internal/queue"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishResize(ctx context.Context, task queue.ResizeTask) error {
	return m.Called(ctx, task).Error(0)
}

type fakeResolver map[string]string

func (f fakeResolver) ResolvePath(_ context.Context, id string) (string, error) {
	p, ok := f[id]
	if !ok {
		return "", file.ErrNotFound
	}
	return p, nil
}

func setupTestRouter(publisher Publisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(fakeResolver{"img-1": "/srv/storage/cat.png"}, publisher, logger.Discard())
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postResize(r http.Handler, id string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images/"+id+"/resize", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestResize_Publishes(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishResize", mock.Anything, queue.ResizeTask{ImagePath: "/srv/storage/cat.png", NewWidth: 100, NewHeight: 50}).Return(nil)

	rr := postResize(setupTestRouter(pub), "img-1", map[string]int{"new_width": 100, "new_height": 50})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Task has been submitted")
	pub.AssertExpectations(t)
}

func TestResize_Errors(t *testing.T) {
	failing := new(MockPublisher)
	failing.On("PublishResize", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	cases := []struct {
		name      string
		publisher Publisher
		id        string
		body      any
		want      int
		wantCode  string
	}{
		{name: "unknown id", publisher: new(MockPublisher), id: "nope", body: map[string]int{"new_width": 1, "new_height": 1}, want: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "zero width", publisher: new(MockPublisher), id: "img-1", body: map[string]int{"new_width": 0, "new_height": 1}, want: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "missing height", publisher: new(MockPublisher), id: "img-1", body: map[string]int{"new_width": 5}, want: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "no queue", publisher: nil, id: "img-1", body: map[string]int{"new_width": 1, "new_height": 1}, want: http.StatusServiceUnavailable, wantCode: "QUEUE_UNAVAILABLE"},
		{name: "publish fails", publisher: failing, id: "img-1", body: map[string]int{"new_width": 1, "new_height": 1}, want: http.StatusBadGateway, wantCode: "QUEUE_PUBLISH_FAILED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postResize(setupTestRouter(tc.publisher), tc.id, tc.body)
			assert.Equal(t, tc.want, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.wantCode)
		})
	}
}
