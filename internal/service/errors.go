package service

import (
	"context"
	"errors"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// Service errors. Each is a *domain.Error, so errors.Is also matches the
// kind sentinels in the domain package.
var (
	// ErrUnauthenticated is returned when no actor is attached to the context
	ErrUnauthenticated = domain.NewPermissionDenied("no authenticated user")

	ErrUserNotFound         = domain.NewNotFound("user not found")
	ErrSchoolNotFound       = domain.NewNotFound("school not found")
	ErrVisitNotFound        = domain.NewNotFound("visit not found")
	ErrOfferNotFound        = domain.NewNotFound("offer not found")
	ErrSaleNotFound         = domain.NewNotFound("sale not found")
	ErrExpenseNotFound      = domain.NewNotFound("expense not found")
	ErrAppointmentNotFound  = domain.NewNotFound("appointment not found")
	ErrAnnouncementNotFound = domain.NewNotFound("announcement not found")
	ErrSalesTargetNotFound  = domain.NewNotFound("sales target not found")
	ErrCommissionNotFound   = domain.NewNotFound("commission not found")
	ErrLeaveRequestNotFound = domain.NewNotFound("leave request not found")
	ErrAttachmentNotFound   = domain.NewNotFound("attachment not found")
	ErrTemplateNotFound     = domain.NewNotFound("email template not found")

	ErrExpensePermission      = domain.NewPermissionDenied("managing expenses requires an admin role or the expense capability")
	ErrAuditPermission        = domain.NewPermissionDenied("audit logs are restricted to admin roles")
	ErrAnnouncementPermission = domain.NewPermissionDenied("only admin roles can manage announcements")
	ErrSchoolDeletePermission = domain.NewPermissionDenied("only admin roles can delete schools")
	ErrTargetPermission       = domain.NewPermissionDenied("only admins, or managers for their team, can set sales targets")
	ErrCommissionPermission   = domain.NewPermissionDenied("only admin roles can manage commissions")
	ErrLeaveReviewPermission  = domain.NewPermissionDenied("only admins, or managers for their team, can review leave requests")
	ErrLeaveCancelPermission  = domain.NewPermissionDenied("only the requester can cancel a leave request")
	ErrAttachmentPermission   = domain.NewPermissionDenied("only the uploader or an admin can delete an attachment")

	ErrOfferLocked            = domain.NewBusinessRuleViolation("offer is locked for editing")
	ErrInvalidOfferTransition = domain.NewBusinessRuleViolation("offer status transition not allowed")
	ErrOfferTerminal          = domain.NewBusinessRuleViolation("offer is in a terminal status")
	ErrNoDefaultTemplate      = domain.NewBusinessRuleViolation("no default email template is configured")
	ErrLeaveNotPending        = domain.NewBusinessRuleViolation("leave request is no longer pending")

	ErrNoRecipient   = domain.NewValidation("offer has no recipient email address")
	ErrInvalidPeriod = domain.NewValidation("month targets need periodMonth, year targets must not set it")
	ErrInvalidDates  = domain.NewValidation("end date must not be before start date")

	ErrOfferEmailFailed = &domain.Error{Kind: domain.KindExternal, Message: "offer email delivery failed"}
)

// ruleViolation returns a business rule error with a specific message that still matches sentinel
func ruleViolation(sentinel error, msg string) error {
	return &domain.Error{Kind: domain.KindBusinessRuleViolation, Message: msg, Err: sentinel}
}

// actorFrom returns the actor attached to ctx
func actorFrom(ctx context.Context) (*auth.Actor, error) {
	actor, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return actor, nil
}

// notFoundOr maps gorm's missing-row error to notFound and passes anything else through
func notFoundOr(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
