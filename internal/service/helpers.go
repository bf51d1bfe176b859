package service

import (
	"strings"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
)

// DefaultCurrency is used when a request leaves currency empty
const DefaultCurrency = "EUR"

// Entity type names recorded in the audit log
const (
	entitySchool       = "school"
	entityVisit        = "visit"
	entitySale         = "sale"
	entityExpense      = "expense"
	entityAppointment  = "appointment"
	entityAnnouncement = "announcement"
	entitySalesTarget  = "sales_target"
	entityCommission   = "commission"
	entityLeaveRequest = "leave_request"
	entityAttachment   = "attachment"
)

func currencyOrDefault(currency string) string {
	if currency == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(currency)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func paginated(data interface{}, total int64, page repository.Page) *domain.PaginatedResponse {
	page = page.Normalize()
	totalPages := int(total) / page.Size
	if int(total)%page.Size != 0 {
		totalPages++
	}
	return &domain.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
	}
}
