// File: internal/bridge/transport_test.go
package bridge

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/x0rw4ng/ghostbridge/internal/driver"
	"github.com/x0rw4ng/ghostbridge/internal/humanize"
)

// wireResponse is the loosely-typed view of one response line.
type wireResponse struct {
	ID     stdjson.RawMessage     `json:"id"`
	Result map[string]interface{} `json:"result"`
	Error  *Error                 `json:"error"`
}

// runTransport feeds input through a fresh loop and returns the raw output
// lines, ready notification included.
func runTransport(t *testing.T, launch driver.LaunchFunc, input string) []string {
	t.Helper()

	engine := humanize.NewWithSeed(nil, 12345)
	session := NewSession(fastDefaults(), engine, launch, zap.NewNop())
	t.Cleanup(func() { session.Shutdown(context.Background()) })

	d := NewDispatcher(session, zap.NewNop())
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader(input), &out, d, zap.NewNop())
	require.NoError(t, loop.Run(context.Background()))

	raw := strings.TrimRight(out.String(), "\n")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, "\n")
}

func parseResponse(t *testing.T, line string) wireResponse {
	t.Helper()
	var resp wireResponse
	require.NoError(t, stdjson.Unmarshal([]byte(line), &resp), "line: %s", line)
	return resp
}

func TestLoopAnnouncesReadyBeforeAnything(t *testing.T) {
	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil), "")

	require.Len(t, lines, 1)
	assert.JSONEq(t, `{"ready":true}`, lines[0])
}

func TestLoopEchoesRequestIDVerbatim(t *testing.T) {
	input := strings.Join([]string{
		`{"id": 7, "method": "get_page_info"}`,
		`{"id": "req-abc", "method": "get_page_info"}`,
		`{"id": {"odd": true}, "method": "get_page_info"}`,
		`{"method": "get_page_info"}`,
		`{"id": null, "method": "get_page_info"}`,
	}, "\n")

	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil), input)
	require.Len(t, lines, 6)

	wantIDs := []string{`7`, `"req-abc"`, `{"odd": true}`, `0`, `0`}
	for i, want := range wantIDs {
		resp := parseResponse(t, lines[i+1])
		assert.JSONEq(t, want, string(resp.ID))
	}
}

func TestLoopReportsParseErrorAndKeepsServing(t *testing.T) {
	input := "this is not json\n" +
		`{"id": 2, "method": "get_page_info"}`

	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil), input)
	require.Len(t, lines, 3)

	bad := parseResponse(t, lines[1])
	require.NotNil(t, bad.Error)
	assert.Equal(t, CodeParseError, bad.Error.Code)
	assert.JSONEq(t, `0`, string(bad.ID))

	good := parseResponse(t, lines[2])
	assert.Nil(t, good.Error)
	assert.JSONEq(t, `2`, string(good.ID))
}

func TestLoopSkipsBlankLines(t *testing.T) {
	input := "\n   \n" + `{"id": 1, "method": "get_page_info"}` + "\n\n"

	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil), input)
	require.Len(t, lines, 2, "blank lines must not produce responses")
}

func TestLoopUnknownMethod(t *testing.T) {
	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil),
		`{"id": 1, "method": "levitate"}`)
	require.Len(t, lines, 2)

	resp := parseResponse(t, lines[1])
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method not found: levitate", resp.Error.Message)
}

func TestLoopPageInfoBeforeInit(t *testing.T) {
	lines := runTransport(t, fakeLaunch(&mockDriver{}, nil),
		`{"id": 1, "method": "get_page_info"}`)
	require.Len(t, lines, 2)

	resp := parseResponse(t, lines[1])
	require.Nil(t, resp.Error)
	want := map[string]interface{}{
		"url":   "",
		"title": "",
		"ready": false,
	}
	if diff := cmp.Diff(want, resp.Result); diff != "" {
		t.Errorf("page info mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopFullConversation(t *testing.T) {
	drv := &mockDriver{title: "Example Domain"}
	input := strings.Join([]string{
		`{"id": 1, "method": "init", "params": {"stealth": {"headless": true}}}`,
		`{"id": 2, "method": "navigate", "params": {}}`,
		`{"id": 3, "method": "navigate", "params": {"url": "https://example.com"}}`,
		`{"id": 4, "method": "close"}`,
	}, "\n")

	lines := runTransport(t, fakeLaunch(drv, nil), input)
	require.Len(t, lines, 5)

	initResp := parseResponse(t, lines[1])
	require.Nil(t, initResp.Error)
	assert.Equal(t, "initialized", initResp.Result["status"])

	missingURL := parseResponse(t, lines[2])
	require.NotNil(t, missingURL.Error)
	assert.Equal(t, "url is required", missingURL.Error.Message)

	navResp := parseResponse(t, lines[3])
	require.Nil(t, navResp.Error)
	assert.Equal(t, "https://example.com", navResp.Result["url"])
	assert.Equal(t, "Example Domain", navResp.Result["title"])

	closeResp := parseResponse(t, lines[4])
	require.Nil(t, closeResp.Error)
	assert.Equal(t, "closed", closeResp.Result["status"])
	assert.Equal(t, 1, drv.closed)
}

func TestLoopContainsHandlerPanic(t *testing.T) {
	drv := &mockDriver{panicOnURL: true}
	input := strings.Join([]string{
		`{"id": 1, "method": "init"}`,
		`{"id": 2, "method": "get_page_info"}`,
		`{"id": 3, "method": "close"}`,
	}, "\n")

	lines := runTransport(t, fakeLaunch(drv, nil), input)
	require.Len(t, lines, 4, "a panicking handler must not end the loop")

	crashed := parseResponse(t, lines[2])
	require.NotNil(t, crashed.Error)
	assert.Equal(t, CodeGenericError, crashed.Error.Code)
	assert.Contains(t, crashed.Error.Message, "internal error")
	assert.JSONEq(t, `2`, string(crashed.ID))

	closed := parseResponse(t, lines[3])
	require.Nil(t, closed.Error)
	assert.Equal(t, "closed", closed.Result["status"])
}
