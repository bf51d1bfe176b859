package mailer_test

import (
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/stretchr/testify/assert"
)

func testOffer() *domain.Offer {
	validUntil := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	return &domain.Offer{
		Title:           "Berlin 2025",
		Destination:     "Berlin",
		StudentCount:    40,
		PricePerStudent: 325.5,
		TotalPrice:      13020,
		Currency:        "EUR",
		ValidUntil:      &validUntil,
		School:          &domain.School{Name: "Het Baarnsch Lyceum", ContactName: "J. de Vries"},
		User:            &domain.User{FirstName: "Anna", LastName: "Jansen"},
	}
}

func TestRenderOffer(t *testing.T) {
	template := &domain.EmailTemplate{
		Subject: "Offer {{offerTitle}} for {{schoolName}}",
		Body: "<p>Dear {{contactName}},</p><p>{{studentCount}} students at {{pricePerStudent}} " +
			"{{currency}}, total {{totalPrice}}, valid until {{validUntil}}. {{unknown}}</p><p>{{salesName}}</p>",
	}

	msg := mailer.RenderOffer(template, testOffer(), "info@school.example.com")

	assert.Equal(t, "info@school.example.com", msg.To)
	assert.Equal(t, "Offer Berlin 2025 for Het Baarnsch Lyceum", msg.Subject)
	assert.Equal(t, "<p>Dear J. de Vries,</p><p>40 students at 325.50 EUR, total 13020.00, "+
		"valid until 2025-03-31. {{unknown}}</p><p>Anna Jansen</p>", msg.Body)
}

func TestRenderOffer_EscapesValuesInBody(t *testing.T) {
	offer := testOffer()
	offer.School.Name = "<script>x()</script>"
	offer.Title = `<a href="http://evil">click</a>`
	template := &domain.EmailTemplate{
		Subject: "{{offerTitle}}",
		Body:    "<p>Hello {{schoolName}}: {{offerTitle}}</p>",
	}

	msg := mailer.RenderOffer(template, offer, "info@school.example.com")

	assert.Equal(t, "<p>Hello &lt;script&gt;x()&lt;/script&gt;: "+
		"&lt;a href=&#34;http://evil&#34;&gt;click&lt;/a&gt;</p>", msg.Body)
	assert.NotContains(t, msg.Body, "<script>")
	assert.Equal(t, `<a href="http://evil">click</a>`, msg.Subject, "the subject header is not HTML")
}

func TestRenderOffer_WithoutAssociations(t *testing.T) {
	offer := &domain.Offer{Title: "Rome", Currency: "EUR"}
	template := &domain.EmailTemplate{Subject: "{{offerTitle}}", Body: "[{{schoolName}}][{{validUntil}}][{{salesName}}]"}

	msg := mailer.RenderOffer(template, offer, "a@b.example.com")

	assert.Equal(t, "Rome", msg.Subject)
	assert.Equal(t, "[][][]", msg.Body)
}
