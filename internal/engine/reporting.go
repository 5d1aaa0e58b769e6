package engine

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"forecastbt/types"

	"github.com/shopspring/decimal"
)

type Report struct {
	// Meta / period info
	StartDate       time.Time
	TotalPeriod     time.Duration
	TotalOrders     int
	ClosedOrders    int
	CancelledOrders int
	TotalTrades     int

	// Absolute performance
	Deposited  decimal.Decimal
	FinalValue decimal.Decimal
	NetProfit  decimal.Decimal
	Return     decimal.Decimal
	PairTotals map[string]decimal.Decimal
	pairs      []string

	// Trade-level distribution metrics
	AvgWin  decimal.Decimal
	AvgLoss decimal.Decimal

	// Drawdown & loss streak metrics
	MaxDrawdown          decimal.Decimal
	MaxDrawdownPercent   decimal.Decimal
	MaxDrawdownDays      time.Duration
	MaxConsecutiveLosses int

	// Costs, in quote currency
	TotalFees decimal.Decimal
}

// trade is one round trip: a market buy and the sell that closed it.
type trade struct {
	pair      string
	buy       types.Order
	sell      types.Order
	closeTime time.Time
}

func (t trade) netPnL() decimal.Decimal {
	proceeds := t.sell.ResolvedPrice.Mul(t.sell.Filled).Sub(t.sell.Fee)
	cost := t.buy.Amount
	return proceeds.Sub(cost)
}

type equityPoint struct {
	Time   time.Time
	Equity decimal.Decimal
}

func NewReport(result *Result) *Report {
	trades := ordersToTrades(result.Pairs, result.Orders)
	equity := equityCurve(result.Calendar)

	report := &Report{
		StartDate:   result.Start,
		TotalPeriod: result.End.Sub(result.Start).Truncate(24 * time.Hour),
		TotalTrades: len(trades),
		Deposited:   result.Deposited,
		FinalValue:  result.Total,
		NetProfit:   result.NetProfit(),
		PairTotals:  result.Totals,
		pairs:       result.Pairs,
	}
	if result.Deposited.GreaterThan(decimal.Zero) {
		report.Return = result.NetProfit().Div(result.Deposited)
	}
	for _, pair := range result.Pairs {
		for _, o := range result.Orders[pair] {
			report.TotalOrders++
			switch o.Status {
			case types.OrderClosed:
				report.ClosedOrders++
			case types.OrderCancelled:
				report.CancelledOrders++
			}
		}
	}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		report.TotalFees = calcTotalFees(result.Orders, &wg)
	}()
	go func() {
		report.AvgWin, report.AvgLoss = calcAvgWinLossPerTrade(trades, &wg)
	}()
	go func() {
		report.MaxDrawdown, report.MaxDrawdownPercent, report.MaxDrawdownDays = calcDrawdownMetrics(equity, &wg)
	}()
	go func() {
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(trades, &wg)
	}()
	wg.Wait()

	return report
}

func (r *Report) Print(w io.Writer) {
	fmt.Fprintln(w, "===== Backtest Report =====")
	fmt.Fprintf(w, "Start Date:            %s\n", r.StartDate.Format(types.DateLayout))
	fmt.Fprintf(w, "Total Period:          %d days\n", r.TotalPeriod/(24*time.Hour))
	fmt.Fprintf(w, "Orders:                %d (closed %d, cancelled %d)\n", r.TotalOrders, r.ClosedOrders, r.CancelledOrders)
	fmt.Fprintf(w, "Round Trips:           %d\n", r.TotalTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Deposited:             %s\n", r.Deposited)
	fmt.Fprintf(w, "Final Value:           %s\n", r.FinalValue.StringFixed(8))
	fmt.Fprintf(w, "Net Profit:            %s\n", r.NetProfit.StringFixed(8))
	fmt.Fprintf(w, "Return:                %s%%\n", r.Return.Mul(decimal.NewFromInt(100)).StringFixed(4))

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Avg Win:               %s\n", r.AvgWin.StringFixed(8))
	fmt.Fprintf(w, "Avg Loss:              %s\n", r.AvgLoss.StringFixed(8))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s\n", r.MaxDrawdown.StringFixed(8))
	fmt.Fprintf(w, "Max Drawdown %%:        %s\n", r.MaxDrawdownPercent.Mul(decimal.NewFromInt(100)).StringFixed(4))
	fmt.Fprintf(w, "Max Drawdown Days:     %d\n", r.MaxDrawdownDays/(24*time.Hour))
	fmt.Fprintf(w, "Max Losing Streak:     %d\n", r.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Costs --")
	fmt.Fprintf(w, "Total Fees:            %s\n", r.TotalFees.StringFixed(8))

	fmt.Fprintln(w, "\n-- Per Pair --")
	for _, pair := range r.pairs {
		fmt.Fprintf(w, "%-22s %s\n", pair+":", r.PairTotals[pair].StringFixed(8))
	}
	fmt.Fprintln(w, "===========================")
}

// calcTotalFees converts buy fees, charged in the base asset, at their fill
// price.
func calcTotalFees(orders map[string][]types.Order, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	total := decimal.Zero
	for _, history := range orders {
		for _, o := range history {
			if o.Side == types.SideBuy {
				total = total.Add(o.Fee.Mul(o.ResolvedPrice))
				continue
			}
			total = total.Add(o.Fee)
		}
	}
	return total
}

func calcAvgWinLossPerTrade(trades []trade, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal) {
	defer wg.Done()

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // store absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, tr := range trades {
		net := tr.netPnL()
		switch {
		case net.GreaterThan(decimal.Zero):
			sumWins = sumWins.Add(net)
			winCount++
		case net.LessThan(decimal.Zero):
			sumLosses = sumLosses.Add(net.Abs())
			lossCount++
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero

	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}

	return avgWin, avgLoss
}

func calcDrawdownMetrics(points []equityPoint, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal, time.Duration) {
	defer wg.Done()

	if len(points) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	peak := decimal.Zero
	var peakTime time.Time

	maxDD := decimal.Zero
	maxDDPct := decimal.Zero
	var maxDDDuration time.Duration

	for i, p := range points {
		// Initialize peak with first point that has a value
		if i == 0 || p.Equity.GreaterThan(peak) || peak.IsZero() {
			peak = p.Equity
			peakTime = p.Time
		}

		if peak.GreaterThan(decimal.Zero) {
			dd := peak.Sub(p.Equity)

			if dd.GreaterThan(maxDD) {
				maxDD = dd
				maxDDPct = dd.Div(peak)
				maxDDDuration = p.Time.Sub(peakTime)
			}
		}
	}

	return maxDD, maxDDPct, maxDDDuration
}

func calcMaxConsecutiveLosses(trades []trade, wg *sync.WaitGroup) int {
	defer wg.Done()

	sorted := append([]trade(nil), trades...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].closeTime.Before(sorted[j].closeTime)
	})

	maxLossStreak := 0
	currentStreak := 0
	for _, tr := range sorted {
		if tr.netPnL().LessThan(decimal.Zero) {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxLossStreak
}

// ordersToTrades pairs every market buy with the next closed sell of the same
// pair. Cancelled sells do not close a trade.
func ordersToTrades(pairs []string, orders map[string][]types.Order) []trade {
	var trades []trade
	for _, pair := range pairs {
		var open *types.Order
		for _, o := range orders[pair] {
			switch {
			case o.Side == types.SideBuy:
				buy := o
				open = &buy
			case o.IsClosed() && open != nil:
				trades = append(trades, trade{pair: pair, buy: *open, sell: o, closeTime: o.UpdatedAt})
				open = nil
			}
		}
	}
	return trades
}

// equityCurve sums the total value of all pairs per simulated day.
func equityCurve(calendar *types.Calendar) []equityPoint {
	if calendar == nil {
		return nil
	}
	dates := calendar.Dates()
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]equityPoint, 0, len(dates))
	for _, date := range dates {
		equity := decimal.Zero
		for _, pair := range calendar.Pairs(date) {
			data, _ := calendar.Get(date, pair)
			equity = equity.Add(data.TotalValue)
		}
		points = append(points, equityPoint{Time: date, Equity: equity})
	}
	return points
}
