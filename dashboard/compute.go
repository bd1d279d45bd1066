package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"agriconnect/models"
	"agriconnect/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	Range1Month  = "1month"
	Range6Months = "6months"
	Range1Year   = "1year"

	DefaultRange = Range6Months

	topItems       = 8
	recentOrders   = 10
	trailingMonths = 12
)

var palette = [topItems]string{
	"#10B981", "#3B82F6", "#F59E0B", "#EF4444",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows returns the current window ending at now and the equal-length
// window immediately before it.
func Windows(now time.Time, timeRange string) (cur, prev Window, err error) {
	var start time.Time
	switch timeRange {
	case Range1Month:
		start = monthsBack(now, 1)
	case Range6Months:
		start = monthsBack(now, 6)
	case Range1Year:
		start = monthsBack(now, 12)
	default:
		return Window{}, Window{}, utils.Invalid("Invalid timeRange %q", timeRange)
	}
	// End is exclusive; push it past now so orders placed this instant count.
	cur = Window{Start: start, End: now.Add(time.Nanosecond)}
	prev = Window{Start: start.Add(-now.Sub(start)), End: start}
	return cur, prev, nil
}

// monthsBack steps n calendar months back, clamping the day to the end of
// the target month so Mar 31 becomes Feb 28 rather than Mar 3.
func monthsBack(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// monthStart is the first instant of the month t falls in, shifted back by n months.
func monthStart(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()-time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

// Earliest is the oldest creation time Compute needs orders from.
func Earliest(now time.Time, prev Window) time.Time {
	rollup := monthStart(now, trailingMonths-1)
	if rollup.Before(prev.Start) {
		return rollup
	}
	return prev.Start
}

type totals struct {
	revenue   float64
	orders    int
	customers map[primitive.ObjectID]struct{}
}

func (t *totals) add(o models.Order) {
	if t.customers == nil {
		t.customers = map[primitive.ObjectID]struct{}{}
	}
	t.revenue += o.TotalAmount
	t.orders++
	t.customers[o.CustomerID] = struct{}{}
}

// Compute builds the farmer dashboard from orders fetched since Earliest.
// Orders outside the windows and the rollup are ignored.
func Compute(now time.Time, timeRange string, orders []models.Order, activeProducts int64) (*models.DashboardStats, error) {
	cur, prev, err := Windows(now, timeRange)
	if err != nil {
		return nil, err
	}

	var curT, prevT totals
	inWindow := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		switch {
		case cur.contains(o.CreatedAt):
			inWindow = append(inWindow, o)
			curT.add(o)
		case prev.contains(o.CreatedAt):
			prevT.add(o)
		}
	}

	return &models.DashboardStats{
		TimeRange:            timeRange,
		TotalRevenue:         utils.RoundMoney(curT.revenue),
		TotalOrders:          curT.orders,
		UniqueCustomers:      len(curT.customers),
		ActiveProducts:       activeProducts,
		RevenueGrowth:        Growth(curT.revenue, prevT.revenue),
		OrdersGrowth:         Growth(float64(curT.orders), float64(prevT.orders)),
		CustomersGrowth:      Growth(float64(len(curT.customers)), float64(len(prevT.customers))),
		MonthlySales:         MonthlyRollup(now, orders),
		MostSoldItems:        MostSold(inWindow),
		RecentActivity:       Recent(now, inWindow),
		OrderStatusBreakdown: StatusBreakdown(inWindow),
	}, nil
}

// Growth is the percentage change from prev to cur, one decimal.
// A zero baseline yields 0.
func Growth(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return math.Round((cur-prev)/prev*1000) / 10
}

// MonthlyRollup returns the trailing twelve calendar months, oldest first.
func MonthlyRollup(now time.Time, orders []models.Order) []models.MonthlySales {
	out := make([]models.MonthlySales, trailingMonths)
	index := make(map[string]int, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		m := monthStart(now, trailingMonths-1-i)
		label := m.Format("Jan 2006")
		out[i] = models.MonthlySales{Month: label}
		index[label] = i
	}

	end := now.Add(time.Nanosecond)
	for _, o := range orders {
		if !o.CreatedAt.Before(end) {
			continue
		}
		i, ok := index[o.CreatedAt.In(now.Location()).Format("Jan 2006")]
		if !ok {
			continue
		}
		out[i].Revenue += o.TotalAmount
		out[i].Orders++
	}
	for i := range out {
		out[i].Revenue = utils.RoundMoney(out[i].Revenue)
	}
	return out
}

// MostSold ranks line items by quantity sold.
func MostSold(orders []models.Order) []models.SoldItem {
	byName := map[string]*models.SoldItem{}
	for _, o := range orders {
		for _, it := range o.Items {
			s, ok := byName[it.Name]
			if !ok {
				s = &models.SoldItem{Name: it.Name}
				byName[it.Name] = s
			}
			s.Quantity += it.Quantity
			s.Revenue += it.Subtotal()
		}
	}

	items := make([]models.SoldItem, 0, len(byName))
	for _, s := range byName {
		s.Revenue = utils.RoundMoney(s.Revenue)
		items = append(items, *s)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > topItems {
		items = items[:topItems]
	}
	for i := range items {
		items[i].Color = palette[i]
	}
	return items
}

// Recent lists the newest orders first.
func Recent(now time.Time, orders []models.Order) []models.RecentActivity {
	sorted := make([]models.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > recentOrders {
		sorted = sorted[:recentOrders]
	}

	out := make([]models.RecentActivity, len(sorted))
	for i, o := range sorted {
		out[i] = models.RecentActivity{
			OrderID:      o.ID.Hex(),
			CustomerName: o.CustomerName,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
			TimeAgo:      TimeAgo(now, o.CreatedAt),
		}
	}
	return out
}

func StatusBreakdown(orders []models.Order) map[string]int {
	out := map[string]int{}
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// TimeAgo renders the distance between t and now in coarse English units.
func TimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return plural(int(d/(30*24*time.Hour)), "month")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
