package setup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcakeeper/config"
	"github.com/vadiminshakov/dcakeeper/internal/services/gasprice"
)

func TestWrite_ProducesLoadableConfig(t *testing.T) {
	a := defaults()
	a.platform = config.PlatformEVM
	a.rpcURL = "https://rpc.example.org"
	a.cycleStore = "0x00000000000000000000000000000000000dca01"
	a.automation = "0x00000000000000000000000000000000000a0701"
	a.executor = "0x00000000000000000000000000000000000000e1"
	a.maxGasGwei = "120"
	a.pollInterval = "15s"
	a.autoExec = true

	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, write(path, a))

	s, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, s.Keepers, 1)
	require.Equal(t, 15*time.Second, s.Keepers[0].PollInterval)
	require.Equal(t, gasprice.KindNode, s.Keepers[0].GasSource)
	require.True(t, s.Keepers[0].AutoExec)
	require.Equal(t, "logs/keeper.log", s.Log.File)
}

func TestWrite_RejectsIncompleteEVM(t *testing.T) {
	a := defaults()
	a.platform = config.PlatformEVM
	require.Error(t, write(filepath.Join(t.TempDir(), DefaultFile), a))
}

func TestValidators(t *testing.T) {
	require.NoError(t, requiredAddress("0x00000000000000000000000000000000000000e1"))
	require.Error(t, requiredAddress("e1"))
	require.NoError(t, optionalAddress(""))
	require.NoError(t, validateGwei(""))
	require.NoError(t, validateGwei("1.5"))
	require.Error(t, validateGwei("0"))
	require.Error(t, validateGwei("abc"))
}
