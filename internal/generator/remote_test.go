package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
)

func TestRemote_Generate(t *testing.T) {
	var received Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Result{
			Proposals: []*domain.DutyAssignment{
				{StaffID: "mar-a", Type: domain.DutyGarde},
			},
			Validation: ValidationReport{Valid: true},
		})
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)

	req := testRequest()
	result, err := remote.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.SiteID, received.SiteID)
	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Proposals, 1)
	assert.Equal(t, "mar-a", result.Proposals[0].StaffID)
}

func TestRemote_Generate_HTTPErrorIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "surcharge", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, 5*time.Second)

	_, err := remote.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statut 503")
}
