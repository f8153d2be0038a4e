package metrics

import (
	"time"

	rpcMetrics "github.com/filecoin-project/go-jsonrpc/metrics"
	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	WalletAccountKey, _ = tag.NewKey("wallet_account")
	WalletAddressKey, _ = tag.NewKey("address")

	IPKey, _ = tag.NewKey("ip")

	// MethodKey is the wallet connection method of a screen operation.
	MethodKey, _ = tag.NewKey("method")
	// ResultKey is one of the Result* values below.
	ResultKey, _ = tag.NewKey("result")
)

const (
	ResultSuccess     = "success"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
	ResultCancelled   = "cancelled"
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// wallet relay
	WalletNum        = metrics.NewInt64("wallet/num", "Wallet count", stats.UnitDimensionless)
	WalletAddressNum = metrics.NewInt64("wallet/address_num", "Address owned by wallet", stats.UnitDimensionless)
	WalletConnNum    = metrics.NewInt64("wallet/conn_num", "Wallet connection count", stats.UnitDimensionless)
	WalletRegister   = stats.Int64("wallet/register", "Wallet register", stats.UnitDimensionless)
	WalletUnregister = stats.Int64("wallet/unregister", "Wallet unregister", stats.UnitDimensionless)
	WalletAddAddr    = stats.Int64("wallet/add_addr", "Wallet add a new address", stats.UnitDimensionless)
	WalletRemoveAddr = stats.Int64("wallet/remove_addr", "Wallet remove a new address", stats.UnitDimensionless)

	// claim screen
	ScreenConnect = stats.Int64("screen/connect", "Wallet connect attempts", stats.UnitDimensionless)
	ScreenClaim   = stats.Int64("screen/claim", "Airdrop claim attempts", stats.UnitDimensionless)

	// method call
	WalletSign      = stats.Float64("wallet_sign", "Call WalletSign spent time", stats.UnitMilliseconds)
	WalletList      = stats.Float64("wallet_list", "Call WalletList spent time", stats.UnitMilliseconds)
	WalletSignTx    = stats.Float64("wallet_sign_tx", "Call WalletSignTx spent time", stats.UnitMilliseconds)
	RequestAccounts = stats.Float64("request_accounts", "Call RequestAccounts spent time", stats.UnitMilliseconds)
	ConnectDuration = stats.Float64("connect_duration", "Wallet connect spent time", stats.UnitMilliseconds)
	ClaimDuration   = stats.Float64("claim_duration", "Claim until confirmation spent time", stats.UnitMilliseconds)

	ApiState = metrics.NewInt64("airdrop/api_state", "api service state. 0: down, 1: up", "")
)

var (
	// wallet
	walletRegisterView = &view.View{
		Measure:     WalletRegister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletAccountKey, IPKey},
	}
	walletUnregisterView = &view.View{
		Measure:     WalletUnregister,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletAccountKey, IPKey},
	}

	walletAddAddrView = &view.View{
		Measure:     WalletAddAddr,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletAccountKey, WalletAddressKey},
	}
	walletRemoveAddrView = &view.View{
		Measure:     WalletRemoveAddr,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletAccountKey, WalletAddressKey},
	}

	// screen
	screenConnectView = &view.View{
		Measure:     ScreenConnect,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MethodKey, ResultKey},
	}
	screenClaimView = &view.View{
		Measure:     ScreenClaim,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MethodKey, ResultKey},
	}

	// method call
	walletSignView = &view.View{
		Measure:     WalletSign,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletAccountKey},
	}
	walletListView = &view.View{
		Measure:     WalletList,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletAccountKey},
	}
	walletSignTxView = &view.View{
		Measure:     WalletSignTx,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletAddressKey},
	}
	requestAccountsView = &view.View{
		Measure:     RequestAccounts,
		Aggregation: defaultMillisecondsDistribution,
	}
	connectDurationView = &view.View{
		Measure:     ConnectDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{MethodKey},
	}
	claimDurationView = &view.View{
		Measure:     ClaimDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{MethodKey},
	}
)

var views = append([]*view.View{
	walletRegisterView,
	walletUnregisterView,
	walletAddAddrView,
	walletRemoveAddrView,
	screenConnectView,
	screenClaimView,
	walletSignView,
	walletListView,
	walletSignTxView,
	requestAccountsView,
	connectDurationView,
	claimDurationView,
}, rpcMetrics.DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

func init() {
	// register metrics
	_ = view.Register(views...)
}
