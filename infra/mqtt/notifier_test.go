package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	require.Equal(t, "meterplan", cfg.ClientID)
	require.Equal(t, "meterplan", cfg.TopicPrefix)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	require.Error(t, cfg.Validate())
	cfg.Broker = "tcp://localhost:1883"
	require.NoError(t, cfg.Validate())
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()
	visits := []VisitMessage{{AddressID: 1, Address: "Main 1, 0150 Oslo"}}
	require.NoError(t, m.NotifyVisits(4, visits))
	require.Equal(t, visits, m.Sent[4])

	m.FailIDs[5] = true
	require.Error(t, m.NotifyVisits(5, visits))
	require.Empty(t, m.Sent[5])

	m.Close()
	require.True(t, m.Closed)
}
