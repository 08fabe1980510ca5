package domain

import "time"

// Item is an inventory item as owned by the inventory management system.
type Item struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	Category     string  `json:"category" db:"category"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
	MinStock     float64 `json:"min_stock" db:"min_stock"`
	Unit         string  `json:"unit" db:"unit"`
}

// TransactionType is the kind of inventory movement.
type TransactionType string

const (
	TransactionIssue    TransactionType = "issue"
	TransactionReceive  TransactionType = "receive"
	TransactionAdjust   TransactionType = "adjust"
	TransactionTransfer TransactionType = "transfer"
)

// ConsumptionTransaction is a historical inventory movement.
type ConsumptionTransaction struct {
	ID       int64           `json:"id" db:"id"`
	ItemID   int64           `json:"item_id" db:"item_id"`
	Type     TransactionType `json:"transaction_type" db:"transaction_type"`
	Quantity float64         `json:"quantity" db:"quantity"`
	Date     time.Time       `json:"transaction_date" db:"transaction_date"`
	Notes    string          `json:"notes,omitempty" db:"notes"`
}

// IssueQuantity is the projection of an issue transaction the forecast engine reads.
type IssueQuantity struct {
	Quantity float64   `json:"quantity" db:"quantity"`
	Date     time.Time `json:"date" db:"transaction_date"`
}

// ForecastMethod tags which formula branch produced a projection.
type ForecastMethod string

const (
	MethodHistoricalTrend  ForecastMethod = "historical-trend"
	MethodDefaultHeuristic ForecastMethod = "default-heuristic"
)

// ForecastRecord is one item's forecast inside a batch.
type ForecastRecord struct {
	ID                          int64          `json:"id" db:"id"`
	ItemID                      int64          `json:"item_id" db:"item_id"`
	ForecastDate                time.Time      `json:"forecast_date" db:"forecast_date"`
	AnnualConsumptionRate       float64        `json:"annual_consumption_rate" db:"annual_consumption_rate"`
	ProjectedAnnualConsumption  float64        `json:"projected_annual_consumption" db:"projected_annual_consumption"`
	MonthlyProjectedConsumption float64        `json:"monthly_projected_consumption" db:"monthly_projected_consumption"`
	MonthsToMinStock            float64        `json:"months_to_min_stock" db:"months_to_min_stock"`
	ReorderDate                 *time.Time     `json:"reorder_date" db:"reorder_date"`
	RecommendedOrderQty         int            `json:"recommended_order_qty" db:"recommended_order_qty"`
	ConfidenceLevel             float64        `json:"confidence_level" db:"confidence_level"`
	ForecastMethod              ForecastMethod `json:"forecast_method" db:"forecast_method"`

	// Item attributes, filled on reads for presentation.
	ItemName     string  `json:"item_name" db:"item_name"`
	Category     string  `json:"category" db:"category"`
	Unit         string  `json:"unit" db:"unit"`
	CurrentStock float64 `json:"current_stock" db:"current_stock"`
	MinStock     float64 `json:"min_stock" db:"min_stock"`
}

// ForecastBatch is one forecast generation: every record shares ForecastDate.
// A zero ForecastDate means no batch has been written yet.
type ForecastBatch struct {
	ForecastDate time.Time        `json:"forecast_date"`
	Records      []ForecastRecord `json:"records"`
	Total        int              `json:"total"`
}

// Empty reports whether the batch carries no generation at all.
func (b *ForecastBatch) Empty() bool {
	return b == nil || b.ForecastDate.IsZero()
}

// ForecastFilter narrows reads of the latest batch.
type ForecastFilter struct {
	Categories    []string `json:"categories"`
	MaxMonths     *float64 `json:"max_months"`
	MinConfidence *float64 `json:"min_confidence"`
	Page          int      `json:"page"`
	PageSize      int      `json:"page_size"`
}

// RunStatus is the lifecycle state of a forecast run.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// ForecastRun tracks a single execution of the batch runner, successful or not.
type ForecastRun struct {
	ID                int64      `json:"id" db:"id"`
	ForecastDate      time.Time  `json:"forecast_date" db:"forecast_date"`
	ReferenceDate     time.Time  `json:"reference_date" db:"reference_date"`
	Status            RunStatus  `json:"status" db:"status"`
	TotalItems        int        `json:"total_items" db:"total_items"`
	ProcessedItems    int        `json:"processed_items" db:"processed_items"`
	SkippedItems      int        `json:"skipped_items" db:"skipped_items"`
	ReorderItems      int        `json:"reorder_items" db:"reorder_items"`
	AverageConfidence float64    `json:"average_confidence" db:"average_confidence"`
	StartedAt         time.Time  `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage      string     `json:"error_message,omitempty" db:"error_message"`
}
