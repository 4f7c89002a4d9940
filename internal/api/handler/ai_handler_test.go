package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMatchLimit(t *testing.T) {
	var omitted matchJobsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"resumeId": 10}`), &omitted))
	assert.Nil(t, omitted.Limit)
	assert.Equal(t, defaultMatchLimit, resolveMatchLimit(omitted.Limit), "未提供limit时使用默认值")

	var explicitZero matchJobsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"resumeId": 10, "limit": 0}`), &explicitZero))
	require.NotNil(t, explicitZero.Limit, "显式传0不等于未提供")
	assert.Equal(t, 0, resolveMatchLimit(explicitZero.Limit), "显式传0应该原样透传，由校验层拒绝")

	var explicit matchJobsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"resumeId": 10, "limit": 7}`), &explicit))
	assert.Equal(t, 7, resolveMatchLimit(explicit.Limit))
}
