package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// UserRole represents the position of a user in the sales hierarchy
type UserRole string

const (
	RoleSystemAdmin UserRole = "system_admin"
	RoleAdmin       UserRole = "admin"
	RoleManager     UserRole = "manager"
	RoleSales       UserRole = "sales"
)

// IsValid checks if the UserRole is a valid enum value
func (r UserRole) IsValid() bool {
	switch r {
	case RoleSystemAdmin, RoleAdmin, RoleManager, RoleSales:
		return true
	}
	return false
}

// IsAdmin reports whether the role has unrestricted visibility
func (r UserRole) IsAdmin() bool {
	return r == RoleSystemAdmin || r == RoleAdmin
}

// Team groups sales users under a manager
type Team struct {
	BaseModel
	Name      string `gorm:"type:varchar(100);not null;uniqueIndex"`
	ManagerID *uint  `gorm:"column:manager_id;index"`
	Manager   *User  `gorm:"foreignKey:ManagerID"`
}

// User is an account in the sales organisation
type User struct {
	BaseModel
	Email             string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName         string     `gorm:"type:varchar(100);column:first_name"`
	LastName          string     `gorm:"type:varchar(100);column:last_name"`
	DisplayName       string     `gorm:"type:varchar(200);not null;column:name"`
	Role              UserRole   `gorm:"type:varchar(30);not null;default:'sales';index"`
	TeamID            *uint      `gorm:"column:team_id;index"`
	Team              *Team      `gorm:"foreignKey:TeamID"`
	Region            string     `gorm:"type:varchar(100)"`
	Districts         []string   `gorm:"serializer:json;type:text"`
	IsActive          bool       `gorm:"not null;default:true;column:is_active"`
	CanManageExpenses bool       `gorm:"not null;default:false;column:can_manage_expenses"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
}

// FullName returns the user's full name, or display name if first/last not set
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.DisplayName
}

// School is a lead/account. Schools are shared reference data and carry no owner.
type School struct {
	BaseModel
	Name            string   `gorm:"type:varchar(200);not null;index"`
	City            string   `gorm:"type:varchar(100);index"`
	District        string   `gorm:"type:varchar(100);index"`
	Region          string   `gorm:"type:varchar(100);index"`
	Address         string   `gorm:"type:varchar(500)"`
	Phone           string   `gorm:"type:varchar(50)"`
	Email           string   `gorm:"type:varchar(255)"`
	ContactName     string   `gorm:"type:varchar(200);column:contact_name"`
	ContactTitle    string   `gorm:"type:varchar(100);column:contact_title"`
	ContactPhone    string   `gorm:"type:varchar(50);column:contact_phone"`
	ContactEmail    string   `gorm:"type:varchar(255);column:contact_email"`
	StudentCount    int      `gorm:"not null;default:0;column:student_count"`
	Latitude        *float64 `gorm:"column:latitude"`
	Longitude       *float64 `gorm:"column:longitude"`
	Notes           string   `gorm:"type:text"`
	CreatedByUserID *uint    `gorm:"column:created_by_user_id"`
}

// Visit records a sales visit to a school
type Visit struct {
	BaseModel
	UserID        uint      `gorm:"not null;index;column:user_id"`
	User          *User     `gorm:"foreignKey:UserID"`
	SchoolID      uint      `gorm:"not null;index;column:school_id"`
	School        *School   `gorm:"foreignKey:SchoolID"`
	VisitDate     time.Time `gorm:"not null;index;column:visit_date"`
	Purpose       string    `gorm:"type:varchar(200)"`
	ContactPerson string    `gorm:"type:varchar(200);column:contact_person"`
	Outcome       string    `gorm:"type:varchar(50)"`
	NextStep      string    `gorm:"type:varchar(500);column:next_step"`
	Notes         string    `gorm:"type:text"`
}

// OfferStatus represents the position of an offer in its state machine
type OfferStatus string

const (
	OfferStatusDraft       OfferStatus = "draft"
	OfferStatusSent        OfferStatus = "sent"
	OfferStatusNegotiation OfferStatus = "negotiation"
	OfferStatusAccepted    OfferStatus = "accepted"
	OfferStatusRejected    OfferStatus = "rejected"
)

// IsValid checks if the OfferStatus is a valid enum value
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusDraft, OfferStatusSent, OfferStatusNegotiation, OfferStatusAccepted, OfferStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are permitted
func (s OfferStatus) IsTerminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusRejected
}

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusDraft:       {OfferStatusSent},
	OfferStatusSent:        {OfferStatusNegotiation, OfferStatusAccepted, OfferStatusRejected},
	OfferStatusNegotiation: {OfferStatusSent, OfferStatusAccepted, OfferStatusRejected},
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	for _, allowed := range offerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Offer is a priced tour proposal made to a school
type Offer struct {
	BaseModel
	UserID          uint        `gorm:"not null;index;column:user_id"`
	User            *User       `gorm:"foreignKey:UserID"`
	SchoolID        uint        `gorm:"not null;index;column:school_id"`
	School          *School     `gorm:"foreignKey:SchoolID"`
	VisitID         *uint       `gorm:"column:visit_id"`
	Title           string      `gorm:"type:varchar(200);not null"`
	Destination     string      `gorm:"type:varchar(200)"`
	TourStartDate   *time.Time  `gorm:"column:tour_start_date"`
	TourEndDate     *time.Time  `gorm:"column:tour_end_date"`
	StudentCount    int         `gorm:"not null;default:0;column:student_count"`
	PricePerStudent float64     `gorm:"type:decimal(15,2);not null;default:0;column:price_per_student"`
	TotalPrice      float64     `gorm:"type:decimal(15,2);not null;default:0;column:total_price"`
	Currency        string      `gorm:"type:varchar(3);not null;default:'EUR'"`
	ValidUntil      *time.Time  `gorm:"column:valid_until"`
	Status          OfferStatus `gorm:"type:varchar(30);not null;default:'draft';index"`
	LastSentAt      *time.Time  `gorm:"column:last_sent_at"`
	LastSentStatus  string      `gorm:"type:varchar(500);column:last_sent_status"`
	Notes           string      `gorm:"type:text"`
}

// IsExpired reports whether valid_until lies before now
func (o *Offer) IsExpired(now time.Time) bool {
	return o.ValidUntil != nil && o.ValidUntil.Before(now)
}

// SaleStatus represents the delivery state of a closed sale
type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "active"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// IsValid checks if the SaleStatus is a valid enum value
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusActive, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// Sale is a closed deal. It is owned by the user who closed it.
type Sale struct {
	BaseModel
	OfferID            *uint      `gorm:"uniqueIndex;column:offer_id"`
	Offer              *Offer     `gorm:"foreignKey:OfferID"`
	SchoolID           uint       `gorm:"not null;index;column:school_id"`
	School             *School    `gorm:"foreignKey:SchoolID"`
	ClosedByUserID     uint       `gorm:"not null;index;column:closed_by_user_id"`
	ClosedBy           *User      `gorm:"foreignKey:ClosedByUserID"`
	SaleDate           time.Time  `gorm:"not null;index;column:sale_date"`
	FinalRevenueAmount float64    `gorm:"type:decimal(15,2);not null;default:0;column:final_revenue_amount"`
	Currency           string     `gorm:"type:varchar(3);not null;default:'EUR'"`
	CreatedFromOffer   bool       `gorm:"not null;default:false;column:created_from_offer"`
	TourDate           *time.Time `gorm:"column:tour_date"`
	StudentCount       int        `gorm:"not null;default:0;column:student_count"`
	Status             SaleStatus `gorm:"type:varchar(30);not null;default:'active'"`
	Notes              string     `gorm:"type:text"`
}

// PaymentStatus represents the payment state of an expense
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid checks if the PaymentStatus is a valid enum value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

// ExpenseCategory classifies tour costs
type ExpenseCategory string

const (
	ExpenseCategoryTransport     ExpenseCategory = "transport"
	ExpenseCategoryAccommodation ExpenseCategory = "accommodation"
	ExpenseCategoryMeals         ExpenseCategory = "meals"
	ExpenseCategoryGuide         ExpenseCategory = "guide"
	ExpenseCategoryTickets       ExpenseCategory = "tickets"
	ExpenseCategoryInsurance     ExpenseCategory = "insurance"
	ExpenseCategoryOther         ExpenseCategory = "other"
)

// Expense is a cost booked against a sale
type Expense struct {
	BaseModel
	SaleID          uint            `gorm:"not null;index;column:sale_id"`
	Sale            *Sale           `gorm:"foreignKey:SaleID"`
	Category        ExpenseCategory `gorm:"type:varchar(30);not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Amount          float64         `gorm:"type:decimal(15,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(30);not null;default:'pending';column:payment_status"`
	ExpenseDate     *time.Time      `gorm:"column:expense_date"`
	CreatedByUserID uint            `gorm:"not null;column:created_by_user_id"`
	CreatedBy       *User           `gorm:"foreignKey:CreatedByUserID"`
}

// AppointmentType classifies calendar entries
type AppointmentType string

const (
	AppointmentTypeVisit        AppointmentType = "visit"
	AppointmentTypeMeeting      AppointmentType = "meeting"
	AppointmentTypeCall         AppointmentType = "call"
	AppointmentTypeSaleFollowup AppointmentType = "sale_followup"
	AppointmentTypeOther        AppointmentType = "other"
)

// AppointmentStatus represents the state of a calendar entry
type AppointmentStatus string

const (
	AppointmentStatusPlanned   AppointmentStatus = "planned"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is a scheduled activity for a user
type Appointment struct {
	BaseModel
	UserID        uint              `gorm:"not null;index;column:user_id"`
	User          *User             `gorm:"foreignKey:UserID"`
	SchoolID      *uint             `gorm:"index;column:school_id"`
	School        *School           `gorm:"foreignKey:SchoolID"`
	SaleID        *uint             `gorm:"column:sale_id"`
	Title         string            `gorm:"type:varchar(200);not null"`
	Description   string            `gorm:"type:text"`
	Type          AppointmentType   `gorm:"type:varchar(30);not null;default:'meeting'"`
	StartDatetime time.Time         `gorm:"not null;index;column:start_datetime"`
	EndDatetime   *time.Time        `gorm:"column:end_datetime"`
	Status        AppointmentStatus `gorm:"type:varchar(30);not null;default:'planned';index"`
	IsAutoCreated bool              `gorm:"not null;default:false;column:is_auto_created"`
}

// AudienceType discriminates who an announcement is addressed to
type AudienceType string

const (
	AudienceAll  AudienceType = "all"
	AudienceRole AudienceType = "role"
	AudienceUser AudienceType = "user"
	AudienceTeam AudienceType = "team"
)

// Announcement is a message shown to a targeted audience until it expires
type Announcement struct {
	BaseModel
	Title           string       `gorm:"type:varchar(200);not null"`
	Content         string       `gorm:"type:text;not null"`
	Priority        string       `gorm:"type:varchar(20);not null;default:'normal'"`
	AudienceType    AudienceType `gorm:"type:varchar(20);not null;default:'all';column:audience_type"`
	AudienceID      string       `gorm:"type:varchar(50);column:audience_id"`
	ExpiresAt       *time.Time   `gorm:"column:expires_at"`
	CreatedByUserID uint         `gorm:"not null;column:created_by_user_id"`
	CreatedBy       *User        `gorm:"foreignKey:CreatedByUserID"`
}

// PeriodType is the granularity of a sales target
type PeriodType string

const (
	PeriodMonth PeriodType = "month"
	PeriodYear  PeriodType = "year"
)

// SalesTarget holds the goals of one user for one period
type SalesTarget struct {
	BaseModel
	UserID          uint       `gorm:"not null;index;column:user_id"`
	User            *User      `gorm:"foreignKey:UserID"`
	PeriodType      PeriodType `gorm:"type:varchar(10);not null;column:period_type"`
	PeriodYear      int        `gorm:"not null;column:period_year"`
	PeriodMonth     *int       `gorm:"column:period_month"`
	VisitTarget     int        `gorm:"not null;default:0;column:visit_target"`
	OfferTarget     int        `gorm:"not null;default:0;column:offer_target"`
	DealTarget      int        `gorm:"not null;default:0;column:deal_target"`
	RevenueTarget   float64    `gorm:"type:decimal(15,2);not null;default:0;column:revenue_target"`
	CreatedByUserID uint       `gorm:"not null;column:created_by_user_id"`
}

// CommissionSourceType tells what a commission was earned from
type CommissionSourceType string

const (
	CommissionSourceSale        CommissionSourceType = "sale"
	CommissionSourceTargetBonus CommissionSourceType = "target_bonus"
	CommissionSourceManual      CommissionSourceType = "manual"
)

// CommissionStatus represents the payout state of a commission
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// Commission is an amount owed to a user
type Commission struct {
	BaseModel
	UserID      uint                 `gorm:"not null;index;column:user_id"`
	User        *User                `gorm:"foreignKey:UserID"`
	SourceType  CommissionSourceType `gorm:"type:varchar(30);not null;column:source_type"`
	SourceID    *uint                `gorm:"column:source_id"`
	Amount      float64              `gorm:"type:decimal(15,2);not null"`
	Currency    string               `gorm:"type:varchar(3);not null;default:'EUR'"`
	Status      CommissionStatus     `gorm:"type:varchar(30);not null;default:'pending'"`
	PeriodYear  int                  `gorm:"not null;column:period_year"`
	PeriodMonth *int                 `gorm:"column:period_month"`
	Notes       string               `gorm:"type:text"`
}

// LeaveType classifies leave requests
type LeaveType string

const (
	LeaveTypeAnnual LeaveType = "annual"
	LeaveTypeSick   LeaveType = "sick"
	LeaveTypeUnpaid LeaveType = "unpaid"
	LeaveTypeOther  LeaveType = "other"
)

// LeaveStatus represents the review state of a leave request
type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

// LeaveRequest is a request for time off
type LeaveRequest struct {
	BaseModel
	UserID           uint        `gorm:"not null;index;column:user_id"`
	User             *User       `gorm:"foreignKey:UserID"`
	LeaveType        LeaveType   `gorm:"type:varchar(30);not null;column:leave_type"`
	StartDate        time.Time   `gorm:"not null;column:start_date"`
	EndDate          time.Time   `gorm:"not null;column:end_date"`
	Reason           string      `gorm:"type:text"`
	Status           LeaveStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	ReviewedByUserID *uint       `gorm:"column:reviewed_by_user_id"`
	ReviewedAt       *time.Time  `gorm:"column:reviewed_at"`
	ReviewNote       string      `gorm:"type:varchar(500);column:review_note"`
}

// AttachmentRelatedType names the entity an attachment hangs off
type AttachmentRelatedType string

const (
	AttachmentRelatedSchool AttachmentRelatedType = "school"
	AttachmentRelatedVisit  AttachmentRelatedType = "visit"
	AttachmentRelatedOffer  AttachmentRelatedType = "offer"
	AttachmentRelatedSale   AttachmentRelatedType = "sale"
)

// IsValid checks if the AttachmentRelatedType is a valid enum value
func (t AttachmentRelatedType) IsValid() bool {
	switch t {
	case AttachmentRelatedSchool, AttachmentRelatedVisit, AttachmentRelatedOffer, AttachmentRelatedSale:
		return true
	}
	return false
}

// Attachment references a stored file by URL
type Attachment struct {
	BaseModel
	RelatedType      AttachmentRelatedType `gorm:"type:varchar(20);not null;index:idx_attachment_related;column:related_type"`
	RelatedID        uint                  `gorm:"not null;index:idx_attachment_related;column:related_id"`
	FileURL          string                `gorm:"type:varchar(1000);not null;column:file_url"`
	FileName         string                `gorm:"type:varchar(255);not null;column:file_name"`
	ContentType      string                `gorm:"type:varchar(100);column:content_type"`
	SizeBytes        int64                 `gorm:"not null;default:0;column:size_bytes"`
	UploadedByUserID uint                  `gorm:"not null;column:uploaded_by_user_id"`
	UploadedBy       *User                 `gorm:"foreignKey:UploadedByUserID"`
}

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionCreate       AuditAction = "create"
	AuditActionUpdate       AuditAction = "update"
	AuditActionDelete       AuditAction = "delete"
	AuditActionStatusChange AuditAction = "status_change"
	AuditActionSendEmail    AuditAction = "send_email"
)

// AuditLog is an append-only record of a mutating operation
type AuditLog struct {
	ID         uint           `gorm:"primaryKey"`
	UserID     uint           `gorm:"not null;index;column:user_id"`
	User       *User          `gorm:"foreignKey:UserID"`
	Action     AuditAction    `gorm:"type:varchar(30);not null;index"`
	EntityType string         `gorm:"type:varchar(50);not null;index:idx_audit_entity;column:entity_type"`
	EntityID   uint           `gorm:"not null;index:idx_audit_entity;column:entity_id"`
	Changes    datatypes.JSON `gorm:"column:changes"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}

// EmailTemplate is the subject/body pair used when emailing an offer
type EmailTemplate struct {
	BaseModel
	Name      string `gorm:"type:varchar(100);not null"`
	Subject   string `gorm:"type:varchar(300);not null"`
	Body      string `gorm:"type:text;not null"`
	IsDefault bool   `gorm:"not null;default:false;column:is_default"`
}
