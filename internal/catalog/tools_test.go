package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/s3lake/internal/rpc"
	"github.com/justapithecus/s3lake/lake"
)

func TestListTools(t *testing.T) {
	c, _ := newTestCatalog(t)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema["type"], tool.Name)
	}
	assert.Equal(t, []string{
		ToolListBuckets, ToolListObjects, ToolReadCSV, ToolReadJSON,
		ToolReadParquet, ToolQueryCSV, ToolSummarize, ToolFileMetadata,
	}, names)

	readCSV := tools[2].InputSchema
	assert.Equal(t, []string{"object_key"}, readCSV["required"])
	props := readCSV["properties"].(map[string]any)
	assert.Equal(t, DefaultMaxRows, props["max_rows"].(map[string]any)["default"])
}

func TestCallTool_Envelope(t *testing.T) {
	c, api := newTestCatalog(t)
	api.AddObject(testBucket, "people.csv", []byte(peopleCSV))

	res, err := c.CallTool(context.Background(), ToolReadCSV,
		[]byte(`{"bucket_name":"lake","object_key":"people.csv","max_rows":1}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)

	text := res.Text()
	assert.True(t, strings.HasPrefix(text, "{\n  \"status\": \"success\""), text)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	assert.EqualValues(t, 1, out["metadata"].(map[string]any)["returned_rows"])
}

func TestCallTool_FailureEnvelope(t *testing.T) {
	c, _ := newTestCatalog(t)

	res, err := c.CallTool(context.Background(), ToolReadJSON, []byte(`{"bucket_name":"lake","object_key":"nope.json"}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Text()), &out))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "store", out["error_kind"])
	assert.NotEmpty(t, out["message"])
}

func TestCallTool_ArgumentDecoding(t *testing.T) {
	c, _ := newTestCatalog(t)

	tests := []struct {
		name string
		tool string
		args string
	}{
		{name: "wrong type", tool: ToolListObjects, args: `{"bucket_name":7}`},
		{name: "fractional limit", tool: ToolReadCSV, args: `{"bucket_name":"lake","object_key":"a.csv","max_rows":1.5}`},
		{name: "bad filter value", tool: ToolQueryCSV, args: `{"bucket_name":"lake","object_key":"a.csv","filter_value":[1]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.CallTool(context.Background(), tt.tool, []byte(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, res.Text(), `"error_kind": "argument"`)
		})
	}
}

func TestCallTool_ArgumentsNotObject(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.CallTool(context.Background(), ToolListBuckets, []byte(`[1,2]`))
	assert.True(t, errors.Is(err, lake.ErrArgument))
}

func TestCallTool_UnknownTool(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.CallTool(context.Background(), "drop_bucket", nil)
	assert.True(t, errors.Is(err, rpc.ErrUnknownTool))
}

func TestCallTool_ThroughServer(t *testing.T) {
	c, api := newTestCatalog(t)
	api.AddObject(testBucket, "a.csv", []byte("x\n1\n"))
	srv := rpc.NewServer(c)

	reply := srv.HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_s3_objects","arguments":{"bucket_name":"lake"}}}`))
	require.NotNil(t, reply)
	require.Nil(t, reply.Error)

	var result rpc.CallResult
	require.NoError(t, json.Unmarshal(reply.Result, &result))
	assert.False(t, result.IsError)
	assert.Contains(t, result.Text(), `"key": "a.csv"`)
}

func TestParseArgs(t *testing.T) {
	for _, raw := range []string{"", " ", "null", "{}"} {
		args, err := ParseArgs([]byte(raw))
		require.NoError(t, err, raw)
		assert.Empty(t, args, raw)
	}

	args, err := ParseArgs([]byte(`{"max_rows":"25","n":3,"s":null}`))
	require.NoError(t, err)

	n, err := args.Int("max_rows", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	n, err = args.Int("s", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = args.String("n")
	assert.True(t, errors.Is(err, lake.ErrArgument))

	_, err = ParseArgs([]byte(`"text"`))
	assert.Error(t, err)
}
