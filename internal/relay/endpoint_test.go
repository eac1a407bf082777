package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testARN = "arn:aws:bedrock-agentcore:eu-west-1:1234567890:runtime/s3_data_lake_mcp_server-wyeGrTEgwU"

func TestEndpointURL(t *testing.T) {
	got := EndpointURL("eu-west-1", testARN)
	want := "https://bedrock-agentcore.eu-west-1.amazonaws.com/runtimes/" +
		"arn%3Aaws%3Abedrock-agentcore%3Aeu-west-1%3A1234567890%3Aruntime%2Fs3_data_lake_mcp_server-wyeGrTEgwU" +
		"/invocations"
	assert.Equal(t, want, got)
}

func TestParseARN(t *testing.T) {
	arn, err := ParseARN(testARN)
	require.NoError(t, err)
	assert.Equal(t, "aws", arn.Partition)
	assert.Equal(t, "bedrock-agentcore", arn.Service)
	assert.Equal(t, "eu-west-1", arn.Region)
	assert.Equal(t, "1234567890", arn.AccountID)
	assert.Equal(t, "runtime/s3_data_lake_mcp_server-wyeGrTEgwU", arn.Resource)

	for _, bad := range []string{"", "not-an-arn", "arn:aws:svc::123:thing", "arn:aws:svc:us-east-1:123:"} {
		_, err := ParseARN(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolveRegion(t *testing.T) {
	region, err := ResolveRegion(testARN, "")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", region)

	region, err = ResolveRegion("garbage", "us-west-2")
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", region)

	_, err = ResolveRegion("garbage", "")
	assert.Error(t, err)
}
