package models

import "time"

// ReportEntry is one stock movement listed in a daily report.
type ReportEntry struct {
	Time        time.Time        `bson:"time" json:"time"`
	Item        string           `bson:"item" json:"item"`
	PartsNumber string           `bson:"parts_number" json:"partsNumber"`
	Type        NotificationType `bson:"type" json:"type"`
	Quantity    int              `bson:"quantity" json:"quantity"`
	User        string           `bson:"user" json:"user"`
	Notes       string           `bson:"notes" json:"notes"`
}

// DailyReport aggregates the stock movements of one calendar day. It is
// archived to MongoDB by the scheduler.
type DailyReport struct {
	Date              time.Time     `bson:"date" json:"date"`
	Entries           []ReportEntry `bson:"entries" json:"entries"`
	ItemsIn           int           `bson:"items_in" json:"itemsIn"`
	ItemsOut          int           `bson:"items_out" json:"itemsOut"`
	UnitsIn           int           `bson:"units_in" json:"unitsIn"`
	UnitsOut          int           `bson:"units_out" json:"unitsOut"`
	TotalTransactions int           `bson:"total_transactions" json:"totalTransactions"`
	LowStockAlerts    int           `bson:"low_stock_alerts" json:"lowStockAlerts"`
	ItemsInHand       int64         `bson:"items_in_hand" json:"itemsInHand"`
	CreatedAt         time.Time     `bson:"created_at" json:"createdAt"`
}

// ChartSeries is the monthly stock movement series shown on the dashboard.
type ChartSeries struct {
	Labels       []string `json:"labels"`
	StockInData  []int    `json:"stockInData"`
	StockOutData []int    `json:"stockOutData"`
}

// Dashboard bundles the headline statistics with the chart series.
type Dashboard struct {
	Statistics  StockStatistics `json:"statistics"`
	UnreadCount int             `json:"unreadCount"`
	LowStock    int             `json:"lowStock"`
	Chart       ChartSeries     `json:"chartData"`
}
