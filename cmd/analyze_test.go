package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestReadClaims_ExtensionDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "claims.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("cpt_code,payer_id,provider_id,billed_amount\n99213,AETNA,P-1,100\n"), 0o644))

	claims, err := readClaims(csvPath, "")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "99213", claims[0].CPTCode)

	_, err = readClaims(filepath.Join(dir, "claims.txt"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestWriteResult_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeResult(nil, path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "null\n", string(b))
}

func TestRateLimit_Rejects(t *testing.T) {
	handler := rateLimit(rate.Limit(1), 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2], "burst of 2 exhausted")
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
