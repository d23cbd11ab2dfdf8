package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/voltgrid/internal/api/models"
	"github.com/voltgrid/voltgrid/internal/station"
)

func TestInterestPointsFromDomain_WireShape(t *testing.T) {
	points := []station.InterestPoint{
		station.StationPoint{ID: 42, Name: "Harbor Hub", Lon: 4.89, Lat: 52.37},
		station.ClusterPoint{Lon: -10.5, Lat: 5.0, Count: 2},
	}

	markers := models.InterestPointsFromDomain(points)
	require.Len(t, markers, 2)

	raw, err := json.Marshal(markers)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	// Station markers carry the discriminator "L" plus id and name.
	assert.Equal(t, "L", decoded[0]["t"])
	assert.Equal(t, float64(42), decoded[0]["id"])
	assert.Equal(t, "Harbor Hub", decoded[0]["n"])
	assert.Equal(t, 52.37, decoded[0]["lat"])
	assert.Equal(t, 4.89, decoded[0]["lon"])

	// Cluster markers carry "C" plus the point count; no id or name.
	assert.Equal(t, "C", decoded[1]["t"])
	assert.Equal(t, float64(2), decoded[1]["numPoints"])
	assert.NotContains(t, decoded[1], "id")
	assert.NotContains(t, decoded[1], "n")
}

func TestCreateStationRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       models.CreateStationRequest
		wantField string
	}{
		{"valid", models.CreateStationRequest{Name: "Hub", Lat: 52.0, Lon: 4.8}, ""},
		{"missing name", models.CreateStationRequest{Lat: 52.0, Lon: 4.8}, "name"},
		{"lat too big", models.CreateStationRequest{Name: "Hub", Lat: 91, Lon: 0}, "lat"},
		{"lon too small", models.CreateStationRequest{Name: "Hub", Lat: 0, Lon: -181}, "lon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}
