// Copyright 2025 The colafs Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metricshub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesOccupancyGauges(t *testing.T) {
	h := New()
	h.SetColaOccupancy(3, 32767)
	h.SetFatOccupancy(32760, 32767)
	h.ObserveOpLatency("write", 0.002)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "colafs_cola_used_slots 3")
	assert.Contains(t, body, "colafs_cola_total_slots 32767")
	assert.Contains(t, body, "colafs_fat_free_blocks 32760")
	assert.Contains(t, body, "colafs_fs_op_latency_seconds")
	assert.True(t, strings.Contains(body, `op="write"`))
}
