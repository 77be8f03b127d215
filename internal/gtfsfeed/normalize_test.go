package gtfsfeed

import (
	"testing"

	"github.com/metrovan/isochrone/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestInferMode(t *testing.T) {
	tests := []struct {
		name  string
		route models.GTFSRoute
		want  models.TransitMode
	}{
		{"BRT keyword", models.GTFSRoute{ShortName: "R1", LongName: "Rapid Bus"}, models.ModeBRT},
		{"rail keyword", models.GTFSRoute{ShortName: "WCE", LongName: "West Coast Train"}, models.ModeTER},
		{"ferry keyword", models.GTFSRoute{LongName: "Harbour Ferry"}, models.ModeFerry},
		{"tram keyword", models.GTFSRoute{LongName: "Downtown Tram"}, models.ModeTram},
		{"route_type subway", models.GTFSRoute{RouteType: 1}, models.ModeBRT},
		{"route_type rail", models.GTFSRoute{RouteType: 2}, models.ModeTER},
		{"route_type bus", models.GTFSRoute{RouteType: 3}, models.ModeBus},
		{"route_type ferry", models.GTFSRoute{RouteType: 4}, models.ModeFerry},
		{"default bus", models.GTFSRoute{RouteType: 99}, models.ModeBus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferMode(tt.route))
		})
	}
}

func TestParseTimeToSeconds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"midnight", "00:00:00", 0, false},
		{"simple", "08:30:00", 8*3600 + 30*60, false},
		{"post-midnight", "25:15:00", 25*3600 + 15*60, false},
		{"empty", "", 0, true},
		{"malformed", "not-a-time", 0, true},
		{"wrong parts", "08:30", 0, true},
		{"bad minutes", "08:70:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeToSeconds(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAndCleanStops(t *testing.T) {
	stops := []models.GTFSStop{
		{StopID: "1", Lat: 49.28, Lon: -123.12},
		{StopID: "bad-lat", Lat: 120, Lon: -123.12},
		{StopID: "bad-lon", Lat: 49.28, Lon: 200},
		{StopID: "null-island", Lat: 0, Lon: 0},
	}

	cleaned := ValidateAndCleanStops(stops)

	assert.Len(t, cleaned, 1)
	assert.Equal(t, "1", cleaned[0].StopID)
}
