package mapper

import (
	"encoding/json"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func userName(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.FullName()
}

func schoolName(s *domain.School) string {
	if s == nil {
		return ""
	}
	return s.Name
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	dto := domain.UserDTO{
		ID:                user.ID,
		Email:             user.Email,
		Name:              user.DisplayName,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Role:              user.Role,
		TeamID:            user.TeamID,
		Region:            user.Region,
		Districts:         user.Districts,
		IsActive:          user.IsActive,
		CanManageExpenses: user.CanManageExpenses,
		CreatedAt:         formatTime(user.CreatedAt),
	}
	if dto.Districts == nil {
		dto.Districts = []string{}
	}
	if user.Team != nil {
		dto.TeamName = user.Team.Name
	}
	return dto
}

// ToTeamDTO converts Team to TeamDTO
func ToTeamDTO(team *domain.Team) domain.TeamDTO {
	return domain.TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		ManagerID:   team.ManagerID,
		ManagerName: userName(team.Manager),
		CreatedAt:   formatTime(team.CreatedAt),
	}
}

// ToSchoolDTO converts School to SchoolDTO
func ToSchoolDTO(school *domain.School) domain.SchoolDTO {
	return domain.SchoolDTO{
		ID:           school.ID,
		Name:         school.Name,
		City:         school.City,
		District:     school.District,
		Region:       school.Region,
		Address:      school.Address,
		Phone:        school.Phone,
		Email:        school.Email,
		ContactName:  school.ContactName,
		ContactTitle: school.ContactTitle,
		ContactPhone: school.ContactPhone,
		ContactEmail: school.ContactEmail,
		StudentCount: school.StudentCount,
		Latitude:     school.Latitude,
		Longitude:    school.Longitude,
		Notes:        school.Notes,
		CreatedAt:    formatTime(school.CreatedAt),
		UpdatedAt:    formatTime(school.UpdatedAt),
	}
}

// ToVisitDTO converts Visit to VisitDTO
func ToVisitDTO(visit *domain.Visit) domain.VisitDTO {
	return domain.VisitDTO{
		ID:            visit.ID,
		UserID:        visit.UserID,
		UserName:      userName(visit.User),
		SchoolID:      visit.SchoolID,
		SchoolName:    schoolName(visit.School),
		VisitDate:     formatTime(visit.VisitDate),
		Purpose:       visit.Purpose,
		ContactPerson: visit.ContactPerson,
		Outcome:       visit.Outcome,
		NextStep:      visit.NextStep,
		Notes:         visit.Notes,
		CreatedAt:     formatTime(visit.CreatedAt),
		UpdatedAt:     formatTime(visit.UpdatedAt),
	}
}

// ToOfferDTO converts Offer to OfferDTO
func ToOfferDTO(offer *domain.Offer) domain.OfferDTO {
	return domain.OfferDTO{
		ID:              offer.ID,
		UserID:          offer.UserID,
		UserName:        userName(offer.User),
		SchoolID:        offer.SchoolID,
		SchoolName:      schoolName(offer.School),
		VisitID:         offer.VisitID,
		Title:           offer.Title,
		Destination:     offer.Destination,
		TourStartDate:   formatTimePtr(offer.TourStartDate),
		TourEndDate:     formatTimePtr(offer.TourEndDate),
		StudentCount:    offer.StudentCount,
		PricePerStudent: offer.PricePerStudent,
		TotalPrice:      offer.TotalPrice,
		Currency:        offer.Currency,
		ValidUntil:      formatTimePtr(offer.ValidUntil),
		Status:          offer.Status,
		LastSentAt:      formatTimePtr(offer.LastSentAt),
		LastSentStatus:  offer.LastSentStatus,
		Notes:           offer.Notes,
		CreatedAt:       formatTime(offer.CreatedAt),
		UpdatedAt:       formatTime(offer.UpdatedAt),
	}
}

// ToSaleDTO converts Sale to SaleDTO
func ToSaleDTO(sale *domain.Sale) domain.SaleDTO {
	return domain.SaleDTO{
		ID:                 sale.ID,
		OfferID:            sale.OfferID,
		SchoolID:           sale.SchoolID,
		SchoolName:         schoolName(sale.School),
		ClosedByUserID:     sale.ClosedByUserID,
		ClosedByName:       userName(sale.ClosedBy),
		SaleDate:           formatTime(sale.SaleDate),
		FinalRevenueAmount: sale.FinalRevenueAmount,
		Currency:           sale.Currency,
		CreatedFromOffer:   sale.CreatedFromOffer,
		TourDate:           formatTimePtr(sale.TourDate),
		StudentCount:       sale.StudentCount,
		Status:             sale.Status,
		Notes:              sale.Notes,
		CreatedAt:          formatTime(sale.CreatedAt),
		UpdatedAt:          formatTime(sale.UpdatedAt),
	}
}

// ToExpenseDTO converts Expense to ExpenseDTO
func ToExpenseDTO(expense *domain.Expense) domain.ExpenseDTO {
	return domain.ExpenseDTO{
		ID:              expense.ID,
		SaleID:          expense.SaleID,
		Category:        expense.Category,
		Description:     expense.Description,
		Amount:          expense.Amount,
		Currency:        expense.Currency,
		PaymentStatus:   expense.PaymentStatus,
		ExpenseDate:     formatTimePtr(expense.ExpenseDate),
		CreatedByUserID: expense.CreatedByUserID,
		CreatedAt:       formatTime(expense.CreatedAt),
	}
}

// ToAppointmentDTO converts Appointment to AppointmentDTO
func ToAppointmentDTO(appointment *domain.Appointment) domain.AppointmentDTO {
	return domain.AppointmentDTO{
		ID:            appointment.ID,
		UserID:        appointment.UserID,
		UserName:      userName(appointment.User),
		SchoolID:      appointment.SchoolID,
		SchoolName:    schoolName(appointment.School),
		SaleID:        appointment.SaleID,
		Title:         appointment.Title,
		Description:   appointment.Description,
		Type:          appointment.Type,
		StartDatetime: formatTime(appointment.StartDatetime),
		EndDatetime:   formatTimePtr(appointment.EndDatetime),
		Status:        appointment.Status,
		IsAutoCreated: appointment.IsAutoCreated,
		CreatedAt:     formatTime(appointment.CreatedAt),
	}
}

// ToAnnouncementDTO converts Announcement to AnnouncementDTO
func ToAnnouncementDTO(announcement *domain.Announcement) domain.AnnouncementDTO {
	return domain.AnnouncementDTO{
		ID:            announcement.ID,
		Title:         announcement.Title,
		Content:       announcement.Content,
		Priority:      announcement.Priority,
		AudienceType:  announcement.AudienceType,
		AudienceID:    announcement.AudienceID,
		ExpiresAt:     formatTimePtr(announcement.ExpiresAt),
		CreatedByID:   announcement.CreatedByUserID,
		CreatedByName: userName(announcement.CreatedBy),
		CreatedAt:     formatTime(announcement.CreatedAt),
	}
}

// ToSalesTargetDTO converts SalesTarget to SalesTargetDTO
func ToSalesTargetDTO(target *domain.SalesTarget) domain.SalesTargetDTO {
	return domain.SalesTargetDTO{
		ID:            target.ID,
		UserID:        target.UserID,
		UserName:      userName(target.User),
		PeriodType:    target.PeriodType,
		PeriodYear:    target.PeriodYear,
		PeriodMonth:   target.PeriodMonth,
		VisitTarget:   target.VisitTarget,
		OfferTarget:   target.OfferTarget,
		DealTarget:    target.DealTarget,
		RevenueTarget: target.RevenueTarget,
		CreatedAt:     formatTime(target.CreatedAt),
	}
}

// ToCommissionDTO converts Commission to CommissionDTO
func ToCommissionDTO(commission *domain.Commission) domain.CommissionDTO {
	return domain.CommissionDTO{
		ID:          commission.ID,
		UserID:      commission.UserID,
		UserName:    userName(commission.User),
		SourceType:  commission.SourceType,
		SourceID:    commission.SourceID,
		Amount:      commission.Amount,
		Currency:    commission.Currency,
		Status:      commission.Status,
		PeriodYear:  commission.PeriodYear,
		PeriodMonth: commission.PeriodMonth,
		Notes:       commission.Notes,
		CreatedAt:   formatTime(commission.CreatedAt),
	}
}

// ToLeaveRequestDTO converts LeaveRequest to LeaveRequestDTO
func ToLeaveRequestDTO(request *domain.LeaveRequest) domain.LeaveRequestDTO {
	return domain.LeaveRequestDTO{
		ID:               request.ID,
		UserID:           request.UserID,
		UserName:         userName(request.User),
		LeaveType:        request.LeaveType,
		StartDate:        formatTime(request.StartDate),
		EndDate:          formatTime(request.EndDate),
		Reason:           request.Reason,
		Status:           request.Status,
		ReviewedByUserID: request.ReviewedByUserID,
		ReviewedAt:       formatTimePtr(request.ReviewedAt),
		ReviewNote:       request.ReviewNote,
		CreatedAt:        formatTime(request.CreatedAt),
	}
}

// ToAttachmentDTO converts Attachment to AttachmentDTO
func ToAttachmentDTO(attachment *domain.Attachment) domain.AttachmentDTO {
	return domain.AttachmentDTO{
		ID:               attachment.ID,
		RelatedType:      attachment.RelatedType,
		RelatedID:        attachment.RelatedID,
		FileURL:          attachment.FileURL,
		FileName:         attachment.FileName,
		ContentType:      attachment.ContentType,
		SizeBytes:        attachment.SizeBytes,
		UploadedByUserID: attachment.UploadedByUserID,
		CreatedAt:        formatTime(attachment.CreatedAt),
	}
}

// ToAuditLogDTO converts AuditLog to AuditLogDTO
func ToAuditLogDTO(log *domain.AuditLog) domain.AuditLogDTO {
	dto := domain.AuditLogDTO{
		ID:         log.ID,
		UserID:     log.UserID,
		UserName:   userName(log.User),
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   log.EntityID,
		CreatedAt:  formatTime(log.CreatedAt),
	}
	if len(log.Changes) > 0 {
		dto.Changes = json.RawMessage(log.Changes)
	}
	return dto
}

// ToEmailTemplateDTO converts EmailTemplate to EmailTemplateDTO
func ToEmailTemplateDTO(template *domain.EmailTemplate) domain.EmailTemplateDTO {
	return domain.EmailTemplateDTO{
		ID:        template.ID,
		Name:      template.Name,
		Subject:   template.Subject,
		Body:      template.Body,
		IsDefault: template.IsDefault,
	}
}
