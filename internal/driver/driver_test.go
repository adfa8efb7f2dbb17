// File: internal/driver/driver_test.go
package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeContextFollowsSecondaryCancel(t *testing.T) {
	primary := context.Background()
	secondary, cancelSecondary := context.WithCancel(context.Background())

	merged, cancel := mergeContext(primary, secondary)
	defer cancel()

	select {
	case <-merged.Done():
		t.Fatal("merged context canceled prematurely")
	default:
	}

	cancelSecondary()
	select {
	case <-merged.Done():
	case <-time.After(time.Second):
		t.Fatal("merged context did not follow secondary cancellation")
	}
}

func TestMergeContextCarriesPrimaryValues(t *testing.T) {
	type key struct{}
	primary := context.WithValue(context.Background(), key{}, "cdp-session")

	merged, cancel := mergeContext(primary, context.Background())
	defer cancel()

	assert.Equal(t, "cdp-session", merged.Value(key{}))
}

func TestMergeContextOwnCancelWins(t *testing.T) {
	merged, cancel := mergeContext(context.Background(), context.Background())

	cancel()
	select {
	case <-merged.Done():
	case <-time.After(time.Second):
		t.Fatal("merged context ignored its own cancel")
	}
}

func TestExecOptionsGrowWithConfig(t *testing.T) {
	base := execOptions(Config{WindowWidth: 1920, WindowHeight: 1080})

	headless := execOptions(Config{WindowWidth: 1920, WindowHeight: 1080, Headless: true})
	assert.Len(t, headless, len(base)+2, "headless adds the headless and GPU flags")

	full := execOptions(Config{
		WindowWidth:          1920,
		WindowHeight:         1080,
		Headless:             true,
		ExecutablePath:       "/usr/bin/chromium",
		Proxy:                "socks5://127.0.0.1:9050",
		DisableWebdriverFlag: true,
		UserAgent:            "Mozilla/5.0",
		ExtraArgs:            []string{"--lang=en-US", "--mute-audio", ""},
	})
	// headless(2) + exec path + proxy + blink flag + user agent + 2 extra args;
	// the empty extra arg is dropped.
	require.Len(t, full, len(base)+8)
}
