package models

import "time"

type DashboardStats struct {
	TimeRange            string           `json:"timeRange"`
	TotalRevenue         float64          `json:"totalRevenue"`
	TotalOrders          int              `json:"totalOrders"`
	UniqueCustomers      int              `json:"uniqueCustomers"`
	ActiveProducts       int64            `json:"activeProducts"`
	RevenueGrowth        float64          `json:"revenueGrowth"`
	OrdersGrowth         float64          `json:"ordersGrowth"`
	CustomersGrowth      float64          `json:"customersGrowth"`
	MonthlySales         []MonthlySales   `json:"monthlySales"`
	MostSoldItems        []SoldItem       `json:"mostSoldItems"`
	RecentActivity       []RecentActivity `json:"recentActivity"`
	OrderStatusBreakdown map[string]int   `json:"orderStatusBreakdown"`
}

type MonthlySales struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type SoldItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
	Color    string  `json:"color"`
}

type RecentActivity struct {
	OrderID      string    `json:"orderId"`
	CustomerName string    `json:"customerName"`
	TotalAmount  float64   `json:"totalAmount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	TimeAgo      string    `json:"timeAgo"`
}
