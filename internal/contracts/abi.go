// Package contracts holds the ABIs of the on-chain collaborators and the
// tuple types they exchange with the keeper.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const orderComponents = `[
	{"name":"user","type":"address"},
	{"name":"inToken","type":"address"},
	{"name":"outToken","type":"address"},
	{"name":"amountPerTrade","type":"uint256"},
	{"name":"nTradesLeft","type":"uint256"},
	{"name":"minSlippage","type":"uint256"},
	{"name":"maxSlippage","type":"uint256"},
	{"name":"delay","type":"uint256"},
	{"name":"lastExecutionTime","type":"uint256"},
	{"name":"platformWallet","type":"address"},
	{"name":"platformFeeBps","type":"uint256"}
]`

const submitOrderComponents = `[
	{"name":"inToken","type":"address"},
	{"name":"outToken","type":"address"},
	{"name":"amountPerTrade","type":"uint256"},
	{"name":"numTrades","type":"uint256"},
	{"name":"minSlippage","type":"uint256"},
	{"name":"maxSlippage","type":"uint256"},
	{"name":"delay","type":"uint256"},
	{"name":"platformWallet","type":"address"},
	{"name":"platformFeeBps","type":"uint256"}
]`

const feeComponents = `[
	{"name":"amount","type":"uint256"},
	{"name":"swapRate","type":"uint256"},
	{"name":"isOutToken","type":"bool"}
]`

const orderArg = `{"name":"_order","type":"tuple","internalType":"struct ExecOrder","components":` + orderComponents + `}`

const submitOrderArg = `{"name":"_order","type":"tuple","internalType":"struct SubmitOrder","components":` + submitOrderComponents + `}`

const dcaJSON = `[
	{"type":"function","name":"isTaskSubmitted","stateMutability":"view",
	 "inputs":[` + orderArg + `,{"name":"_id","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getMinReturn","stateMutability":"view",
	 "inputs":[` + orderArg + `],
	 "outputs":[{"name":"minReturn","type":"uint256"}]},
	{"type":"function","name":"getExpectedReturnKyber","stateMutability":"view",
	 "inputs":[{"name":"_src","type":"address"},{"name":"_dest","type":"address"},{"name":"_srcAmount","type":"uint256"},{"name":"_platformFee","type":"uint256"},{"name":"_hint","type":"bytes"}],
	 "outputs":[{"name":"outAmount","type":"uint256"},{"name":"expectedRate","type":"uint256"}]},
	{"type":"function","name":"getExpectedReturnUniswap","stateMutability":"view",
	 "inputs":[{"name":"_router","type":"address"},{"name":"_amountIn","type":"uint256"},{"name":"_tradePath","type":"address[]"},{"name":"_platformFee","type":"uint256"}],
	 "outputs":[{"name":"amountOut","type":"uint256"},{"name":"expectedRate","type":"uint256"}]},
	{"type":"function","name":"gelato","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"currentTaskId","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"exec","stateMutability":"nonpayable",
	 "inputs":[` + orderArg + `,{"name":"_id","type":"uint256"},{"name":"_protocol","type":"uint8"},
	   {"name":"_fee","type":"tuple","internalType":"struct Fee","components":` + feeComponents + `},
	   {"name":"_tradePath","type":"address[]"}],
	 "outputs":[]},
	{"type":"function","name":"submit","stateMutability":"payable",
	 "inputs":[` + submitOrderArg + `,{"name":"_isSubmitAndExec","type":"bool"}],
	 "outputs":[]},
	{"type":"function","name":"submitAndExec","stateMutability":"payable",
	 "inputs":[` + submitOrderArg + `,{"name":"_protocol","type":"uint8"},{"name":"_minReturnOrRate","type":"uint256"},{"name":"_tradePath","type":"address[]"}],
	 "outputs":[]},
	{"type":"function","name":"cancel","stateMutability":"nonpayable",
	 "inputs":[` + orderArg + `,{"name":"_id","type":"uint256"}],
	 "outputs":[]},
	{"type":"function","name":"editNumTrades","stateMutability":"nonpayable",
	 "inputs":[` + orderArg + `,{"name":"_id","type":"uint256"},{"name":"_newNumTradesLeft","type":"uint256"}],
	 "outputs":[]},
	{"type":"event","name":"LogTaskSubmitted","anonymous":false,
	 "inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"order","type":"tuple","indexed":false,"components":` + orderComponents + `}]},
	{"type":"event","name":"LogTaskUpdated","anonymous":false,
	 "inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"order","type":"tuple","indexed":false,"components":` + orderComponents + `}]},
	{"type":"event","name":"LogTaskCancelled","anonymous":false,
	 "inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"order","type":"tuple","indexed":false,"components":` + orderComponents + `}]}
]`

const automationJSON = `[
	{"type":"function","name":"canExec","stateMutability":"view",
	 "inputs":[{"name":"_executor","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"estimateExecGasDebit","stateMutability":"nonpayable",
	 "inputs":[{"name":"_service","type":"address"},{"name":"_data","type":"bytes"},{"name":"_creditToken","type":"address"}],
	 "outputs":[{"name":"gasDebitInETH","type":"uint256"},{"name":"gasDebitInCreditToken","type":"uint256"}]},
	{"type":"function","name":"exec","stateMutability":"nonpayable",
	 "inputs":[{"name":"_service","type":"address"},{"name":"_data","type":"bytes"},{"name":"_creditToken","type":"address"}],
	 "outputs":[]},
	{"type":"function","name":"getOracleAggregator","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]}
]`

const oracleJSON = `[
	{"type":"function","name":"getExpectedReturnAmount","stateMutability":"view",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"inToken","type":"address"},{"name":"outToken","type":"address"}],
	 "outputs":[{"name":"returnAmount","type":"uint256"},{"name":"returnDecimals","type":"uint256"}]}
]`

const erc20JSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

const gasPriceOracleJSON = `[
	{"type":"function","name":"latestAnswer","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"int256"}]}
]`

var (
	DCA            = mustParse(dcaJSON)
	Automation     = mustParse(automationJSON)
	Oracle         = mustParse(oracleJSON)
	ERC20          = mustParse(erc20JSON)
	GasPriceOracle = mustParse(gasPriceOracleJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("contracts: invalid ABI: " + err.Error())
	}
	return parsed
}
