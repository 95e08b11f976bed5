package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBatchResponse(t *testing.T, status domain.BatchStatus) Response {
	t.Helper()

	h := &Handler{}
	batch := &domain.ScheduleBatch{ID: 1, Status: status}

	r := httptest.NewRequest(http.MethodPost, "/schedule-batches/1/run", nil)
	r = r.WithContext(context.WithValue(r.Context(), ScheduleBatchCtx, batch))
	w := httptest.NewRecorder()

	h.RunScheduleBatch(w, r)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// 已确认归档的批次不能再运行排班，必须直接拒绝，
// 而不是去抢运行锁然后永远返回"稍后重试"
func TestRunScheduleBatch_RejectsConfirmedBatch(t *testing.T) {
	resp := runBatchResponse(t, domain.BatchStatusConfirmed)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "已确认归档")
}

func TestRunScheduleBatch_RejectsDeployedBatch(t *testing.T) {
	resp := runBatchResponse(t, domain.BatchStatusDeployed)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "已发布")
}
