package metrics

import (
	"context"
	"testing"

	"github.com/ipfs-force-community/sophon-auth/core"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats/view"
)

// sophon-auth registers its own gauges at init, ours must live beside them.
func TestViewsBesideSophonAuth(t *testing.T) {
	require.NotNil(t, core.ApiState)
	require.NotNil(t, view.Find("api/state"))

	stateView := view.Find("airdrop/api_state")
	require.NotNil(t, stateView)

	ApiState.Set(context.Background(), 1)
	rows, err := view.RetrieveData("airdrop/api_state")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, float64(1), rows[0].Data.(*view.LastValueData).Value)
}
