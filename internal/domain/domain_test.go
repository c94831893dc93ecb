package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyExpertise(t *testing.T) {
	tests := []struct {
		role string
		want Expertise
	}{
		{"Demografie", ExpertiseDemografie},
		{"demografie specialist", ExpertiseDemografie},
		{"AI DEMOGRAFIE Zeeland", ExpertiseDemografie},
		{"Economie", ExpertiseEconomie},
		{"regionale eCoNoMiE", ExpertiseEconomie},
		{"Wonen", ExpertiseWonen},
		{"Communicatie", ExpertiseWonen},
		{"", ExpertiseWonen},
		// demografie wins when both markers are present
		{"Economie en Demografie", ExpertiseDemografie},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyExpertise(tt.role))
		})
	}
}

func TestAnalysisRequestWireFormat(t *testing.T) {
	data, err := json.Marshal(AnalysisRequest{SessionID: "session_1", Description: "Bouw van 500 woningen"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"session_1","description":"Bouw van 500 woningen"}`, string(data))
}

func TestAnalysisResultDegraded(t *testing.T) {
	assert.True(t, AnalysisResult{Source: SourceFallback}.Degraded())
	assert.False(t, AnalysisResult{Source: SourceBackend}.Degraded())
}
