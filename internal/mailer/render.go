package mailer

import (
	"html"
	"strconv"
	"strings"

	"github.com/edutour/sales-crm/internal/domain"
)

// RenderOffer fills the {{placeholders}} of template with offer details.
// Unknown placeholders are left as written.
func RenderOffer(template *domain.EmailTemplate, offer *domain.Offer, to string) Message {
	schoolName, contactName := "", ""
	if offer.School != nil {
		schoolName = offer.School.Name
		contactName = offer.School.ContactName
	}
	salesName := ""
	if offer.User != nil {
		salesName = offer.User.FullName()
	}
	validUntil := ""
	if offer.ValidUntil != nil {
		validUntil = offer.ValidUntil.Format("2006-01-02")
	}

	values := []string{
		"{{schoolName}}", schoolName,
		"{{contactName}}", contactName,
		"{{offerTitle}}", offer.Title,
		"{{destination}}", offer.Destination,
		"{{studentCount}}", strconv.Itoa(offer.StudentCount),
		"{{pricePerStudent}}", strconv.FormatFloat(offer.PricePerStudent, 'f', 2, 64),
		"{{totalPrice}}", strconv.FormatFloat(offer.TotalPrice, 'f', 2, 64),
		"{{currency}}", offer.Currency,
		"{{validUntil}}", validUntil,
		"{{salesName}}", salesName,
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		if i%2 == 1 {
			v = html.EscapeString(v)
		}
		escaped[i] = v
	}

	// The body is sent as HTML; the subject is a plain header.
	return Message{
		To:      to,
		Subject: strings.NewReplacer(values...).Replace(template.Subject),
		Body:    strings.NewReplacer(escaped...).Replace(template.Body),
	}
}
