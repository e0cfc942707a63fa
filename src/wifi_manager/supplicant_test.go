package wifi_manager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supplicantFixture(t *testing.T, content string) *SupplicantConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wpa_supplicant.conf")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return NewSupplicantConfig(path)
}

func TestUpsertCreatesMissingFile(t *testing.T) {
	sc := supplicantFixture(t, "")

	require.True(t, sc.UpsertNetworkBlock("Home", "hunter2"))

	data, err := os.ReadFile(sc.path)
	require.NoError(t, err)
	text := string(data)

	assert.Equal(t, 1, strings.Count(text, "network={"))
	assert.Contains(t, text, `ssid="Home"`)
	assert.Contains(t, text, `psk="hunter2"`)
	assert.Contains(t, text, "priority=1")
	assert.NotContains(t, text, "key_mgmt=NONE")

	info, err := os.Stat(sc.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestUpsertOpenNetworkUsesKeyMgmtNone(t *testing.T) {
	sc := supplicantFixture(t, "")

	require.True(t, sc.UpsertNetworkBlock("CoffeeShop", ""))

	data, err := os.ReadFile(sc.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key_mgmt=NONE")
	assert.NotContains(t, string(data), "psk=")
}

func TestUpsertPreservesUnrelatedBlocks(t *testing.T) {
	existing := `ctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev
update_config=1
country=DE

network={
	ssid="Office"
	psk="officepass"
	priority=5
}
network={
	ssid="Guest"
	key_mgmt=NONE
}
`
	sc := supplicantFixture(t, existing)

	require.True(t, sc.UpsertNetworkBlock("Home", "hunter2"))

	data, err := os.ReadFile(sc.path)
	require.NoError(t, err)
	text := string(data)

	// Unrelated blocks survive byte-for-byte, in original order, with the
	// header lines untouched.
	assert.Contains(t, text, "ctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev")
	assert.Contains(t, text, "\tssid=\"Office\"\n\tpsk=\"officepass\"\n\tpriority=5")
	assert.Contains(t, text, "\tssid=\"Guest\"\n\tkey_mgmt=NONE")
	assert.Less(t, strings.Index(text, `ssid="Office"`), strings.Index(text, `ssid="Guest"`))
	assert.Less(t, strings.Index(text, `ssid="Guest"`), strings.Index(text, `ssid="Home"`))
}

func TestUpsertReplacesMatchingBlock(t *testing.T) {
	existing := `network={
	ssid="Home"
	psk="oldpassword"
	priority=1
}
network={
	ssid="Guest"
	key_mgmt=NONE
}
`
	sc := supplicantFixture(t, existing)

	require.True(t, sc.UpsertNetworkBlock("Home", "newpassword"))

	data, err := os.ReadFile(sc.path)
	require.NoError(t, err)
	text := string(data)

	assert.Equal(t, 1, strings.Count(text, `ssid="Home"`))
	assert.NotContains(t, text, "oldpassword")
	assert.Contains(t, text, `psk="newpassword"`)
	assert.Contains(t, text, `ssid="Guest"`)
}

func TestUpsertIsIdempotent(t *testing.T) {
	sc := supplicantFixture(t, "")

	require.True(t, sc.UpsertNetworkBlock("Home", "hunter2"))
	require.True(t, sc.UpsertNetworkBlock("Home", "hunter2"))

	data, err := os.ReadFile(sc.path)
	require.NoError(t, err)
	text := string(data)

	assert.Equal(t, 1, strings.Count(text, `ssid="Home"`))
	assert.Equal(t, 1, strings.Count(text, "network={"))
	assert.Contains(t, text, `psk="hunter2"`)
}

func TestUpsertReadFailureReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	// A directory at the config path makes both read and write fail.
	sc := NewSupplicantConfig(dir)

	assert.False(t, sc.UpsertNetworkBlock("Home", "hunter2"))
}
