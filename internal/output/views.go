package output

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/dmagro/oneswap-deployer/internal/keys"
	"github.com/dmagro/oneswap-deployer/internal/state"
	"github.com/dmagro/oneswap-deployer/internal/swaplist"
	"github.com/dmagro/oneswap-deployer/internal/tx"
	"github.com/dmagro/oneswap-deployer/internal/uniswap"
	"github.com/dmagro/oneswap-deployer/internal/units"
)

func addr(a common.Address) string { return keys.FormatAddress(a) }

func amount(raw *big.Int, decimals int, symbol string) string {
	return units.FormatTokenAmount(raw, decimals, symbol)
}

func bigString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

// BalanceView is the deployer's native and token holdings.
type BalanceView struct {
	Address string
	OLT     decimal.Decimal
	Tokens  []uniswap.TokenInfo
}

type jsonToken struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	Balance  string `json:"balance"`
}

func (p *Printer) Balance(v BalanceView) error {
	if p.JSON() {
		return p.encode(struct {
			Address string      `json:"address"`
			OLT     string      `json:"olt"`
			Tokens  []jsonToken `json:"tokens"`
		}{
			Address: v.Address,
			OLT:     v.OLT.String(),
			Tokens: lo.Map(v.Tokens, func(t uniswap.TokenInfo, _ int) jsonToken {
				return jsonToken{Symbol: t.Symbol, Address: addr(t.Address), Decimals: t.Decimals, Balance: bigString(t.Balance)}
			}),
		})
	}

	p.heading("Balance of " + v.Address)
	fmt.Fprintf(p.w, "  OLT: %s\n", cyan(v.OLT.String()))
	if len(v.Tokens) == 0 {
		return nil
	}
	fmt.Fprintln(p.w)
	tbl := p.table("Token", "Address", "Balance")
	for _, t := range v.Tokens {
		tbl.AddRow(t.Symbol, addr(t.Address), amount(t.Balance, t.Decimals, t.Symbol))
	}
	tbl.Print()
	return nil
}

func (p *Printer) StateEntries(entries []state.Entry) error {
	if p.JSON() {
		out := make(map[string]state.Record, len(entries))
		for _, e := range entries {
			out[e.Key] = e.Record
		}
		return p.encode(out)
	}

	if len(entries) == 0 {
		p.Warn("state file is empty")
		return nil
	}
	tbl := p.table("Key", "Address", "Tx Hash")
	for _, e := range entries {
		tbl.AddRow(e.Key, keys.AddressPrefix+e.Address, e.TxHash)
	}
	tbl.Print()
	return nil
}

func (p *Printer) SwapList(tokens []swaplist.Token) error {
	if p.JSON() {
		return p.encode(tokens)
	}

	if len(tokens) == 0 {
		p.Warn("swap list is empty")
		return nil
	}
	tbl := p.table("Symbol", "Address")
	for _, t := range tokens {
		tbl.AddRow(t.Symbol, keys.AddressPrefix+t.Address)
	}
	tbl.Print()
	return nil
}

func (p *Printer) PairInfo(info *uniswap.PairInfo) error {
	if p.JSON() {
		return p.encode(struct {
			Pair     string    `json:"pair"`
			Exists   bool      `json:"exists"`
			Token0   jsonToken `json:"token0"`
			Token1   jsonToken `json:"token1"`
			Reserve0 string    `json:"reserve0"`
			Reserve1 string    `json:"reserve1"`
			Price0   string    `json:"price0"`
			Price1   string    `json:"price1"`
			K        string    `json:"k"`
		}{
			Pair:     addr(info.Pair),
			Exists:   info.Exists,
			Token0:   jsonToken{Symbol: info.Token0.Symbol, Address: addr(info.Token0.Address), Decimals: info.Token0.Decimals, Balance: bigString(info.Token0.Balance)},
			Token1:   jsonToken{Symbol: info.Token1.Symbol, Address: addr(info.Token1.Address), Decimals: info.Token1.Decimals, Balance: bigString(info.Token1.Balance)},
			Reserve0: bigString(info.Reserves[0]),
			Reserve1: bigString(info.Reserves[1]),
			Price0:   info.Price0.String(),
			Price1:   info.Price1.String(),
			K:        bigString(info.K),
		})
	}

	s0, s1 := info.Token0.Symbol, info.Token1.Symbol
	p.heading(fmt.Sprintf("Pool %s/%s", s0, s1))
	if !info.Exists {
		p.Warn("pair has not been created")
		return nil
	}
	fmt.Fprintf(p.w, "  Pair: %s\n\n", addr(info.Pair))

	tbl := p.table("Token", "Address", "Reserve")
	tbl.AddRow(s0, addr(info.Token0.Address), amount(info.Reserves[0], info.Token0.Decimals, s0))
	tbl.AddRow(s1, addr(info.Token1.Address), amount(info.Reserves[1], info.Token1.Decimals, s1))
	tbl.Print()

	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "  1 %s = %s %s\n", s0, cyan(info.Price0.String()), s1)
	fmt.Fprintf(p.w, "  1 %s = %s %s\n", s1, cyan(info.Price1.String()), s0)
	fmt.Fprintf(p.w, "  Liquidity (k): %s\n", info.K)
	return nil
}

// QuoteView carries the token labels a quote is printed with.
type QuoteView struct {
	Quote        *uniswap.SwapQuote
	FromSymbol   string
	ToSymbol     string
	FromDecimals int
	ToDecimals   int
}

func (p *Printer) SwapQuote(v QuoteView) error {
	q := v.Quote
	limitLabel, limitSymbol, limitDecimals := "Minimum received", v.ToSymbol, v.ToDecimals
	if q.Request.Kind == uniswap.ExactOut {
		limitLabel, limitSymbol, limitDecimals = "Maximum paid", v.FromSymbol, v.FromDecimals
	}

	if p.JSON() {
		return p.encode(struct {
			Method    string   `json:"method"`
			Kind      string   `json:"kind"`
			Path      []string `json:"path"`
			AmountIn  string   `json:"amount_in"`
			AmountOut string   `json:"amount_out"`
			Limit     string   `json:"limit"`
			Fee       string   `json:"fee"`
			Price     string   `json:"price"`
			Slippage  string   `json:"slippage"`
		}{
			Method:    q.Method,
			Kind:      q.Request.Kind.String(),
			Path:      lo.Map(q.Path, func(a common.Address, _ int) string { return addr(a) }),
			AmountIn:  bigString(q.AmountIn),
			AmountOut: bigString(q.AmountOut),
			Limit:     bigString(q.Limit),
			Fee:       bigString(q.Fee),
			Price:     q.Price.String(),
			Slippage:  q.Request.Slippage.String(),
		})
	}

	p.heading(fmt.Sprintf("Swap %s → %s", v.FromSymbol, v.ToSymbol))
	tbl := p.table("", "")
	tbl.AddRow("You pay", amount(q.AmountIn, v.FromDecimals, v.FromSymbol))
	tbl.AddRow("You receive", amount(q.AmountOut, v.ToDecimals, v.ToSymbol))
	tbl.AddRow("Price", fmt.Sprintf("%s %s per %s", q.Price, v.ToSymbol, v.FromSymbol))
	tbl.AddRow(limitLabel, amount(q.Limit, limitDecimals, limitSymbol))
	tbl.AddRow("Slippage", q.Request.Slippage.String()+"%")
	tbl.AddRow("Liquidity fee (0.3%)", amount(q.Fee, v.FromDecimals, v.FromSymbol))
	tbl.AddRow("Router call", q.Method)
	tbl.Print()
	return nil
}

func (p *Printer) Receipt(r *tx.Receipt) error {
	if p.JSON() {
		view := struct {
			Hash      string            `json:"hash"`
			Status    bool              `json:"status"`
			Contract  string            `json:"contract_address,omitempty"`
			GasUsed   uint64            `json:"gas_used"`
			GasWanted uint64            `json:"gas_wanted"`
			Log       string            `json:"log,omitempty"`
			Events    map[string]string `json:"events,omitempty"`
		}{
			Hash: r.Hash, Status: r.Status, GasUsed: r.GasUsed, GasWanted: r.GasWanted, Log: r.Log,
			Events: r.Events.Map(),
		}
		if r.ContractAddress != nil {
			view.Contract = addr(*r.ContractAddress)
		}
		return p.encode(view)
	}

	status := green("✓ OK")
	if !r.Status {
		status = red("✗ FAILED")
	}
	tbl := p.table("Field", "Value")
	tbl.AddRow("Hash", r.Hash)
	tbl.AddRow("Status", status)
	if r.ContractAddress != nil {
		tbl.AddRow("Contract", addr(*r.ContractAddress))
	}
	tbl.AddRow("Gas used", strconv.FormatUint(r.GasUsed, 10)+" / "+strconv.FormatUint(r.GasWanted, 10))
	if r.Log != "" {
		tbl.AddRow("Log", r.Log)
	}
	tbl.Print()
	return nil
}

func (p *Printer) Liquidity(r *uniswap.LiquidityResult) error {
	if p.JSON() {
		view := struct {
			Pair     string `json:"pair"`
			Skipped  bool   `json:"skipped"`
			Reserve0 string `json:"reserve0"`
			Reserve1 string `json:"reserve1"`
			TxHash   string `json:"tx_hash,omitempty"`
		}{Pair: addr(r.Pair), Skipped: r.Skipped, Reserve0: bigString(r.Reserves[0]), Reserve1: bigString(r.Reserves[1])}
		if r.Receipt != nil {
			view.TxHash = r.Receipt.Hash
		}
		return p.encode(view)
	}

	if r.Skipped {
		p.Warn("pool already has liquidity, nothing sent (use --force to add more)")
	}
	tbl := p.table("Pair", "Reserve0", "Reserve1", "Tx")
	hash := "-"
	if r.Receipt != nil {
		hash = r.Receipt.Hash
	}
	tbl.AddRow(addr(r.Pair), bigString(r.Reserves[0]), bigString(r.Reserves[1]), hash)
	tbl.Print()
	return nil
}

func (p *Printer) Bootstrap(r *uniswap.BootstrapResult) error {
	rows := []struct{ name, address string }{
		{uniswap.WOLT, addr(r.WOLT)},
		{uniswap.Factory, addr(r.Factory)},
		{uniswap.Router, addr(r.Router)},
		{uniswap.DAI, addr(r.DAI)},
		{"DAI/WOLT pair", addr(r.Pair)},
	}
	if p.JSON() {
		out := make(map[string]string, len(rows))
		for _, row := range rows {
			out[row.name] = row.address
		}
		return p.encode(out)
	}

	p.heading("OneSwap deployment")
	tbl := p.table("Contract", "Address")
	for _, row := range rows {
		tbl.AddRow(row.name, row.address)
	}
	tbl.Print()
	if r.Liquidity != nil && r.Liquidity.Skipped {
		fmt.Fprintf(p.w, "\n  %s pool was already funded\n", yellow("⚠"))
	}
	return nil
}
