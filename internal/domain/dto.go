package domain

import (
	"encoding/json"
	"time"
)

// Response DTOs. Timestamps are rendered as ISO 8601 strings by the mapper.

type UserDTO struct {
	ID                uint     `json:"id"`
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	FirstName         string   `json:"firstName,omitempty"`
	LastName          string   `json:"lastName,omitempty"`
	Role              UserRole `json:"role"`
	TeamID            *uint    `json:"teamId,omitempty"`
	TeamName          string   `json:"teamName,omitempty"`
	Region            string   `json:"region,omitempty"`
	Districts         []string `json:"districts"`
	IsActive          bool     `json:"isActive"`
	CanManageExpenses bool     `json:"canManageExpenses"`
	CreatedAt         string   `json:"createdAt"`
}

type TeamDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	ManagerID   *uint  `json:"managerId,omitempty"`
	ManagerName string `json:"managerName,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type SchoolDTO struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city,omitempty"`
	District     string   `json:"district,omitempty"`
	Region       string   `json:"region,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	ContactName  string   `json:"contactName,omitempty"`
	ContactTitle string   `json:"contactTitle,omitempty"`
	ContactPhone string   `json:"contactPhone,omitempty"`
	ContactEmail string   `json:"contactEmail,omitempty"`
	StudentCount int      `json:"studentCount"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

// SchoolStatsDTO holds pipeline counts against a school, limited to the
// records the requesting user can see
type SchoolStatsDTO struct {
	VisitCount int64 `json:"visitCount"`
	OfferCount int64 `json:"offerCount"`
	SaleCount  int64 `json:"saleCount"`
}

type SchoolWithStatsDTO struct {
	SchoolDTO
	Stats SchoolStatsDTO `json:"stats"`
}

type VisitDTO struct {
	ID            uint   `json:"id"`
	UserID        uint   `json:"userId"`
	UserName      string `json:"userName,omitempty"`
	SchoolID      uint   `json:"schoolId"`
	SchoolName    string `json:"schoolName,omitempty"`
	VisitDate     string `json:"visitDate"`
	Purpose       string `json:"purpose,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Outcome       string `json:"outcome,omitempty"`
	NextStep      string `json:"nextStep,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type OfferDTO struct {
	ID              uint        `json:"id"`
	UserID          uint        `json:"userId"`
	UserName        string      `json:"userName,omitempty"`
	SchoolID        uint        `json:"schoolId"`
	SchoolName      string      `json:"schoolName,omitempty"`
	VisitID         *uint       `json:"visitId,omitempty"`
	Title           string      `json:"title"`
	Destination     string      `json:"destination,omitempty"`
	TourStartDate   *string     `json:"tourStartDate,omitempty"`
	TourEndDate     *string     `json:"tourEndDate,omitempty"`
	StudentCount    int         `json:"studentCount"`
	PricePerStudent float64     `json:"pricePerStudent"`
	TotalPrice      float64     `json:"totalPrice"`
	Currency        string      `json:"currency"`
	ValidUntil      *string     `json:"validUntil,omitempty"`
	Status          OfferStatus `json:"status"`
	LastSentAt      *string     `json:"lastSentAt,omitempty"`
	LastSentStatus  string      `json:"lastSentStatus,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       string      `json:"createdAt"`
	UpdatedAt       string      `json:"updatedAt"`
}

// OfferEditLockDTO tells a client whether the current user may mutate an offer
type OfferEditLockDTO struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason,omitempty"`
}

// OfferTransitionResultDTO is returned from a status change. Sale and
// Appointment are set when the offer was accepted.
type OfferTransitionResultDTO struct {
	Offer       OfferDTO        `json:"offer"`
	Sale        *SaleDTO        `json:"sale,omitempty"`
	Appointment *AppointmentDTO `json:"appointment,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type SaleDTO struct {
	ID                 uint       `json:"id"`
	OfferID            *uint      `json:"offerId,omitempty"`
	SchoolID           uint       `json:"schoolId"`
	SchoolName         string     `json:"schoolName,omitempty"`
	ClosedByUserID     uint       `json:"closedByUserId"`
	ClosedByName       string     `json:"closedByName,omitempty"`
	SaleDate           string     `json:"saleDate"`
	FinalRevenueAmount float64    `json:"finalRevenueAmount"`
	Currency           string     `json:"currency"`
	CreatedFromOffer   bool       `json:"createdFromOffer"`
	TourDate           *string    `json:"tourDate,omitempty"`
	StudentCount       int        `json:"studentCount"`
	Status             SaleStatus `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
}

// SaleProfitabilityDTO is a sale with its expenses and derived profit figures
type SaleProfitabilityDTO struct {
	SaleDTO
	Expenses      []ExpenseDTO `json:"expenses"`
	TotalExpenses float64      `json:"totalExpenses"`
	Profit        float64      `json:"profit"`
	ProfitMargin  float64      `json:"profitMargin"`
}

type ExpenseDTO struct {
	ID              uint            `json:"id"`
	SaleID          uint            `json:"saleId"`
	Category        ExpenseCategory `json:"category"`
	Description     string          `json:"description,omitempty"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	ExpenseDate     *string         `json:"expenseDate,omitempty"`
	CreatedByUserID uint            `json:"createdByUserId"`
	CreatedAt       string          `json:"createdAt"`
}

type AppointmentDTO struct {
	ID            uint              `json:"id"`
	UserID        uint              `json:"userId"`
	UserName      string            `json:"userName,omitempty"`
	SchoolID      *uint             `json:"schoolId,omitempty"`
	SchoolName    string            `json:"schoolName,omitempty"`
	SaleID        *uint             `json:"saleId,omitempty"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Type          AppointmentType   `json:"type"`
	StartDatetime string            `json:"startDatetime"`
	EndDatetime   *string           `json:"endDatetime,omitempty"`
	Status        AppointmentStatus `json:"status"`
	IsAutoCreated bool              `json:"isAutoCreated"`
	CreatedAt     string            `json:"createdAt"`
}

type AnnouncementDTO struct {
	ID            uint         `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Priority      string       `json:"priority"`
	AudienceType  AudienceType `json:"audienceType"`
	AudienceID    string       `json:"audienceId,omitempty"`
	ExpiresAt     *string      `json:"expiresAt,omitempty"`
	CreatedByID   uint         `json:"createdById"`
	CreatedByName string       `json:"createdByName,omitempty"`
	CreatedAt     string       `json:"createdAt"`
}

type SalesTargetDTO struct {
	ID            uint       `json:"id"`
	UserID        uint       `json:"userId"`
	UserName      string     `json:"userName,omitempty"`
	PeriodType    PeriodType `json:"periodType"`
	PeriodYear    int        `json:"periodYear"`
	PeriodMonth   *int       `json:"periodMonth,omitempty"`
	VisitTarget   int        `json:"visitTarget"`
	OfferTarget   int        `json:"offerTarget"`
	DealTarget    int        `json:"dealTarget"`
	RevenueTarget float64    `json:"revenueTarget"`
	CreatedAt     string     `json:"createdAt"`
}

type CommissionDTO struct {
	ID          uint                 `json:"id"`
	UserID      uint                 `json:"userId"`
	UserName    string               `json:"userName,omitempty"`
	SourceType  CommissionSourceType `json:"sourceType"`
	SourceID    *uint                `json:"sourceId,omitempty"`
	Amount      float64              `json:"amount"`
	Currency    string               `json:"currency"`
	Status      CommissionStatus     `json:"status"`
	PeriodYear  int                  `json:"periodYear"`
	PeriodMonth *int                 `json:"periodMonth,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	CreatedAt   string               `json:"createdAt"`
}

// CommissionTotalsDTO sums the visible commissions of one currency
type CommissionTotalsDTO struct {
	BySource map[CommissionSourceType]float64 `json:"bySource"`
	Total    float64                          `json:"total"`
}

// CommissionListDTO is a list of visible commissions with totals keyed by
// currency code
type CommissionListDTO struct {
	Data   []CommissionDTO                `json:"data"`
	Totals map[string]CommissionTotalsDTO `json:"totals"`
}

type LeaveRequestDTO struct {
	ID               uint        `json:"id"`
	UserID           uint        `json:"userId"`
	UserName         string      `json:"userName,omitempty"`
	LeaveType        LeaveType   `json:"leaveType"`
	StartDate        string      `json:"startDate"`
	EndDate          string      `json:"endDate"`
	Reason           string      `json:"reason,omitempty"`
	Status           LeaveStatus `json:"status"`
	ReviewedByUserID *uint       `json:"reviewedByUserId,omitempty"`
	ReviewedAt       *string     `json:"reviewedAt,omitempty"`
	ReviewNote       string      `json:"reviewNote,omitempty"`
	CreatedAt        string      `json:"createdAt"`
}

type AttachmentDTO struct {
	ID               uint                  `json:"id"`
	RelatedType      AttachmentRelatedType `json:"relatedType"`
	RelatedID        uint                  `json:"relatedId"`
	FileURL          string                `json:"fileUrl"`
	FileName         string                `json:"fileName"`
	ContentType      string                `json:"contentType,omitempty"`
	SizeBytes        int64                 `json:"sizeBytes"`
	UploadedByUserID uint                  `json:"uploadedByUserId"`
	CreatedAt        string                `json:"createdAt"`
}

type AuditLogDTO struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"userId"`
	UserName   string          `json:"userName,omitempty"`
	Action     AuditAction     `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   uint            `json:"entityId"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  string          `json:"createdAt"`
}

type EmailTemplateDTO struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	IsDefault bool   `json:"isDefault"`
}

// DashboardSummaryDTO holds headline numbers over the rows visible to the user
type DashboardSummaryDTO struct {
	Visits                int64   `json:"visits"`
	Offers                int64   `json:"offers"`
	Sales                 int64   `json:"sales"`
	Revenue               float64 `json:"revenue"`
	PendingOffers         int64   `json:"pendingOffers"`
	ScheduledAppointments int64   `json:"scheduledAppointments"`
}

type PerformanceTargetsDTO struct {
	VisitTarget   int     `json:"visitTarget"`
	OfferTarget   int     `json:"offerTarget"`
	DealTarget    int     `json:"dealTarget"`
	RevenueTarget float64 `json:"revenueTarget"`
}

type PerformanceActualDTO struct {
	Visits  int64   `json:"visits"`
	Offers  int64   `json:"offers"`
	Deals   int64   `json:"deals"`
	Revenue float64 `json:"revenue"`
}

type PerformanceRatesDTO struct {
	VisitRate   float64 `json:"visitRate"`
	OfferRate   float64 `json:"offerRate"`
	DealRate    float64 `json:"dealRate"`
	RevenueRate float64 `json:"revenueRate"`
}

// PerformanceSummaryDTO compares a user's actuals against their target for a period
type PerformanceSummaryDTO struct {
	UserID      uint                   `json:"userId"`
	Year        int                    `json:"year"`
	Month       *int                   `json:"month,omitempty"`
	Targets     *PerformanceTargetsDTO `json:"targets"`
	Actual      PerformanceActualDTO   `json:"actual"`
	Performance PerformanceRatesDTO    `json:"performance"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// PaginatedResponse wraps a page of results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

type CreateSchoolRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	City         string   `json:"city,omitempty" validate:"max=100"`
	District     string   `json:"district,omitempty" validate:"max=100"`
	Region       string   `json:"region,omitempty" validate:"max=100"`
	Address      string   `json:"address,omitempty" validate:"max=500"`
	Phone        string   `json:"phone,omitempty" validate:"max=50"`
	Email        string   `json:"email,omitempty" validate:"omitempty,email"`
	ContactName  string   `json:"contactName,omitempty" validate:"max=200"`
	ContactTitle string   `json:"contactTitle,omitempty" validate:"max=100"`
	ContactPhone string   `json:"contactPhone,omitempty" validate:"max=50"`
	ContactEmail string   `json:"contactEmail,omitempty" validate:"omitempty,email"`
	StudentCount int      `json:"studentCount,omitempty" validate:"gte=0"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Notes        string   `json:"notes,omitempty"`
}

type UpdateSchoolRequest CreateSchoolRequest

type CreateVisitRequest struct {
	SchoolID      uint      `json:"schoolId" validate:"required"`
	VisitDate     time.Time `json:"visitDate" validate:"required"`
	Purpose       string    `json:"purpose,omitempty" validate:"max=200"`
	ContactPerson string    `json:"contactPerson,omitempty" validate:"max=200"`
	Outcome       string    `json:"outcome,omitempty" validate:"omitempty,oneof=positive neutral negative"`
	NextStep      string    `json:"nextStep,omitempty" validate:"max=500"`
	Notes         string    `json:"notes,omitempty"`
}

type UpdateVisitRequest CreateVisitRequest

type CreateOfferRequest struct {
	SchoolID        uint       `json:"schoolId" validate:"required"`
	VisitID         *uint      `json:"visitId,omitempty"`
	Title           string     `json:"title" validate:"required,max=200"`
	Destination     string     `json:"destination,omitempty" validate:"max=200"`
	TourStartDate   *time.Time `json:"tourStartDate,omitempty"`
	TourEndDate     *time.Time `json:"tourEndDate,omitempty"`
	StudentCount    int        `json:"studentCount" validate:"gte=0"`
	PricePerStudent float64    `json:"pricePerStudent" validate:"gte=0"`
	// TotalPrice defaults to studentCount * pricePerStudent when omitted
	TotalPrice *float64   `json:"totalPrice,omitempty" validate:"omitempty,gte=0"`
	Currency   string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type UpdateOfferRequest CreateOfferRequest

type UpdateOfferStatusRequest struct {
	Status OfferStatus `json:"status" validate:"required,oneof=draft sent negotiation accepted rejected"`
}

type SendOfferEmailRequest struct {
	TemplateID *uint  `json:"templateId,omitempty"`
	Recipient  string `json:"recipient,omitempty" validate:"omitempty,email"`
}

type CreateSaleRequest struct {
	SchoolID           uint       `json:"schoolId" validate:"required"`
	SaleDate           time.Time  `json:"saleDate" validate:"required"`
	FinalRevenueAmount float64    `json:"finalRevenueAmount" validate:"gte=0"`
	Currency           string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	TourDate           *time.Time `json:"tourDate,omitempty"`
	StudentCount       int        `json:"studentCount,omitempty" validate:"gte=0"`
	Notes              string     `json:"notes,omitempty"`
}

type UpdateSaleRequest struct {
	SaleDate           time.Time  `json:"saleDate" validate:"required"`
	FinalRevenueAmount float64    `json:"finalRevenueAmount" validate:"gte=0"`
	Currency           string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	TourDate           *time.Time `json:"tourDate,omitempty"`
	StudentCount       int        `json:"studentCount,omitempty" validate:"gte=0"`
	Status             SaleStatus `json:"status" validate:"required,oneof=active completed cancelled"`
	Notes              string     `json:"notes,omitempty"`
}

type CreateExpenseRequest struct {
	Category      ExpenseCategory `json:"category" validate:"required,oneof=transport accommodation meals guide tickets insurance other"`
	Description   string          `json:"description,omitempty" validate:"max=500"`
	Amount        float64         `json:"amount" validate:"gt=0"`
	Currency      string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	PaymentStatus PaymentStatus   `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending paid cancelled"`
	ExpenseDate   *time.Time      `json:"expenseDate,omitempty"`
}

type UpdateExpenseRequest CreateExpenseRequest

type CreateAppointmentRequest struct {
	SchoolID      *uint           `json:"schoolId,omitempty"`
	SaleID        *uint           `json:"saleId,omitempty"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description,omitempty"`
	Type          AppointmentType `json:"type" validate:"required,oneof=visit meeting call sale_followup other"`
	StartDatetime time.Time       `json:"startDatetime" validate:"required"`
	EndDatetime   *time.Time      `json:"endDatetime,omitempty"`
}

// UpdateAppointmentRequest edits the details of an appointment. Status moves
// only through complete and cancel.
type UpdateAppointmentRequest struct {
	SchoolID      *uint           `json:"schoolId,omitempty"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description,omitempty"`
	Type          AppointmentType `json:"type" validate:"required,oneof=visit meeting call sale_followup other"`
	StartDatetime time.Time       `json:"startDatetime" validate:"required"`
	EndDatetime   *time.Time      `json:"endDatetime,omitempty"`
}

type CreateAnnouncementRequest struct {
	Title        string       `json:"title" validate:"required,max=200"`
	Content      string       `json:"content" validate:"required"`
	Priority     string       `json:"priority,omitempty" validate:"omitempty,oneof=normal high"`
	AudienceType AudienceType `json:"audienceType" validate:"required,oneof=all role user team"`
	AudienceID   string       `json:"audienceId,omitempty" validate:"max=50"`
	ExpiresAt    *time.Time   `json:"expiresAt,omitempty"`
}

type UpdateAnnouncementRequest CreateAnnouncementRequest

type UpsertSalesTargetRequest struct {
	UserID        uint       `json:"userId" validate:"required"`
	PeriodType    PeriodType `json:"periodType" validate:"required,oneof=month year"`
	PeriodYear    int        `json:"periodYear" validate:"required,gte=2000,lte=2100"`
	PeriodMonth   *int       `json:"periodMonth,omitempty" validate:"omitempty,gte=1,lte=12"`
	VisitTarget   int        `json:"visitTarget" validate:"gte=0"`
	OfferTarget   int        `json:"offerTarget" validate:"gte=0"`
	DealTarget    int        `json:"dealTarget" validate:"gte=0"`
	RevenueTarget float64    `json:"revenueTarget" validate:"gte=0"`
}

type CreateCommissionRequest struct {
	UserID      uint                 `json:"userId" validate:"required"`
	SourceType  CommissionSourceType `json:"sourceType" validate:"required,oneof=sale target_bonus manual"`
	SourceID    *uint                `json:"sourceId,omitempty"`
	Amount      float64              `json:"amount" validate:"gt=0"`
	Currency    string               `json:"currency,omitempty" validate:"omitempty,len=3"`
	PeriodYear  int                  `json:"periodYear" validate:"required,gte=2000,lte=2100"`
	PeriodMonth *int                 `json:"periodMonth,omitempty" validate:"omitempty,gte=1,lte=12"`
	Notes       string               `json:"notes,omitempty"`
}

type UpdateCommissionStatusRequest struct {
	Status CommissionStatus `json:"status" validate:"required,oneof=pending approved paid"`
}

type CreateLeaveRequestRequest struct {
	LeaveType LeaveType `json:"leaveType" validate:"required,oneof=annual sick unpaid other"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Reason    string    `json:"reason,omitempty" validate:"max=1000"`
}

type ReviewLeaveRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

type CreateAttachmentRequest struct {
	RelatedType AttachmentRelatedType `json:"relatedType" validate:"required,oneof=school visit offer sale"`
	RelatedID   uint                  `json:"relatedId" validate:"required"`
	FileURL     string                `json:"fileUrl" validate:"required,url,max=1000"`
	FileName    string                `json:"fileName" validate:"required,max=255"`
	ContentType string                `json:"contentType,omitempty" validate:"max=100"`
	SizeBytes   int64                 `json:"sizeBytes,omitempty" validate:"gte=0"`
}
