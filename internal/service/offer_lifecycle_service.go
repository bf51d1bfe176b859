package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/edutour/sales-crm/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FollowUpDelay is how long after acceptance the automatic follow-up appointment is scheduled
const FollowUpDelay = 7 * 24 * time.Hour

const (
	sentStatusManual = "manual"
	sentStatusOK     = "sent"
)

// UpdateStatus moves an offer through its state machine. Moving to the
// current status is a no-op. Accepting an offer creates the sale and the
// follow-up appointment in the same transaction as the status change; if
// only the appointment fails the acceptance stands and a warning is returned.
func (s *OfferService) UpdateStatus(ctx context.Context, id uint, req *domain.UpdateOfferStatusRequest) (*domain.OfferTransitionResultDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer.Status == req.Status {
		return &domain.OfferTransitionResultDTO{Offer: mapper.ToOfferDTO(offer)}, nil
	}

	offer, err = s.loadUnlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	from := offer.Status
	if !from.CanTransitionTo(req.Status) {
		return nil, ruleViolation(ErrInvalidOfferTransition,
			fmt.Sprintf("offer cannot move from %s to %s", from, req.Status))
	}

	now := s.now()
	fields := map[string]interface{}{"status": req.Status}
	if req.Status == domain.OfferStatusSent {
		fields["last_sent_at"] = now
		fields["last_sent_status"] = sentStatusManual
	}

	result := &domain.OfferTransitionResultDTO{}
	var sale *domain.Sale
	var appointment *domain.Appointment

	if req.Status == domain.OfferStatusAccepted {
		sale, appointment, result.Warnings, err = s.accept(ctx, offer, fields, now)
		if err != nil {
			return nil, err
		}
	} else {
		changed, err := s.offerRepo.UpdateFieldsFrom(ctx, id, from, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to update offer status: %w", err)
		}
		if !changed {
			return nil, staleTransition(from)
		}
	}

	offer, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Offer = mapper.ToOfferDTO(offer)

	s.auditService.LogStatusChange(ctx, entityOffer, id, string(from), string(req.Status))
	if sale != nil {
		saleDTO := mapper.ToSaleDTO(sale)
		result.Sale = &saleDTO
		s.auditService.LogCreate(ctx, entitySale, sale.ID, saleDTO)
	}
	if appointment != nil {
		appointmentDTO := mapper.ToAppointmentDTO(appointment)
		result.Appointment = &appointmentDTO
		s.auditService.LogCreate(ctx, entityAppointment, appointment.ID, appointmentDTO)
	}

	s.logger.Info("offer status changed",
		zap.Uint("offer_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)))

	return result, nil
}

// accept writes the status change and the sale atomically. The follow-up
// appointment runs in a savepoint so its failure rolls back only itself.
func (s *OfferService) accept(ctx context.Context, offer *domain.Offer, fields map[string]interface{}, now time.Time) (*domain.Sale, *domain.Appointment, []string, error) {
	var sale *domain.Sale
	var appointment *domain.Appointment
	var warnings []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.offerRepo.WithTx(tx).UpdateFieldsFrom(ctx, offer.ID, offer.Status, fields)
		if err != nil {
			return fmt.Errorf("failed to update offer status: %w", err)
		}
		if !changed {
			return staleTransition(offer.Status)
		}

		offerID := offer.ID
		sale = &domain.Sale{
			OfferID:            &offerID,
			SchoolID:           offer.SchoolID,
			ClosedByUserID:     offer.UserID,
			SaleDate:           now,
			FinalRevenueAmount: offer.TotalPrice,
			Currency:           currencyOrDefault(offer.Currency),
			CreatedFromOffer:   true,
			TourDate:           offer.TourStartDate,
			StudentCount:       offer.StudentCount,
			Status:             domain.SaleStatusActive,
		}
		if err := s.saleRepo.WithTx(tx).Create(ctx, sale); err != nil {
			return fmt.Errorf("failed to create sale from offer: %w", err)
		}

		schoolID := offer.SchoolID
		saleID := sale.ID
		candidate := &domain.Appointment{
			UserID:        offer.UserID,
			SchoolID:      &schoolID,
			SaleID:        &saleID,
			Title:         "Follow-up: " + offer.Title,
			Type:          domain.AppointmentTypeSaleFollowup,
			StartDatetime: now.Add(FollowUpDelay),
			Status:        domain.AppointmentStatusPlanned,
			IsAutoCreated: true,
		}
		spErr := tx.Transaction(func(sp *gorm.DB) error {
			return s.appointmentRepo.WithTx(sp).Create(ctx, candidate)
		})
		if spErr != nil {
			s.logger.Warn("failed to create follow-up appointment for accepted offer",
				zap.Uint("offer_id", offer.ID),
				zap.Uint("sale_id", sale.ID),
				zap.Error(spErr))
			warnings = append(warnings, "sale created but the follow-up appointment could not be scheduled")
			return nil
		}
		appointment = candidate
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return sale, appointment, warnings, nil
}

// staleTransition reports an offer whose status changed after it was loaded
func staleTransition(from domain.OfferStatus) error {
	return ruleViolation(ErrInvalidOfferTransition,
		fmt.Sprintf("offer is no longer %s", from))
}

// SendEmail renders the offer with a template and hands it to the mailer.
// On success the offer moves to sent (a draft or negotiation offer) and
// last_sent_at is stamped. A delivery failure is recorded on the offer and
// returned as ErrOfferEmailFailed.
func (s *OfferService) SendEmail(ctx context.Context, id uint, req *domain.SendOfferEmailRequest) (*domain.OfferDTO, error) {
	offer, err := s.loadUnlocked(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOfferLocked) {
			// a terminal offer reports the more specific reason
			if loaded, loadErr := s.load(ctx, id); loadErr == nil && loaded.Status.IsTerminal() {
				return nil, ErrOfferTerminal
			}
		}
		return nil, err
	}

	template, err := s.resolveTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	recipient := req.Recipient
	if recipient == "" && offer.School != nil {
		recipient = offer.School.ContactEmail
		if recipient == "" {
			recipient = offer.School.Email
		}
	}
	if recipient == "" {
		return nil, ErrNoRecipient
	}

	now := s.now()
	msg := mailer.RenderOffer(template, offer, recipient)
	if sendErr := s.mailer.Send(ctx, msg); sendErr != nil {
		status := "failed: " + sendErr.Error()
		if len(status) > 500 {
			status = status[:500]
		}
		if err := s.offerRepo.UpdateFields(ctx, id, map[string]interface{}{"last_sent_status": status}); err != nil {
			s.logger.Error("failed to record offer email failure", zap.Uint("offer_id", id), zap.Error(err))
		}
		s.logger.Warn("offer email delivery failed", zap.Uint("offer_id", id), zap.Error(sendErr))
		return nil, &domain.Error{Kind: domain.KindExternal, Message: ErrOfferEmailFailed.Message + ": " + sendErr.Error(), Err: ErrOfferEmailFailed}
	}

	from := offer.Status
	fields := map[string]interface{}{
		"last_sent_at":     now,
		"last_sent_status": sentStatusOK,
	}
	if from.CanTransitionTo(domain.OfferStatusSent) {
		fields["status"] = domain.OfferStatusSent
	}
	if err := s.offerRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to record offer email: %w", err)
	}

	s.auditService.Log(ctx, LogEntry{
		Action:     domain.AuditActionSendEmail,
		EntityType: entityOffer,
		EntityID:   id,
		NewValues:  map[string]interface{}{"recipient": recipient, "templateId": template.ID},
	})
	if _, moved := fields["status"]; moved {
		s.auditService.LogStatusChange(ctx, entityOffer, id, string(from), string(domain.OfferStatusSent))
	}

	offer, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfferDTO(offer)
	return &dto, nil
}

func (s *OfferService) resolveTemplate(ctx context.Context, templateID *uint) (*domain.EmailTemplate, error) {
	if templateID != nil {
		template, err := s.templateRepo.GetByID(ctx, *templateID)
		if err != nil {
			return nil, notFoundOr(err, ErrTemplateNotFound)
		}
		return template, nil
	}
	template, err := s.templateRepo.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoDefaultTemplate
		}
		return nil, fmt.Errorf("failed to load default template: %w", err)
	}
	return template, nil
}
